package kms

import (
	"encoding/hex"
	"math"
	"time"
)

// stateDocument is the persisted form of State:
//
//	{"master_keys": {"alice": "<64 hex chars>"}, "unlock_store": {"alice": 1760000000.25}}
type stateDocument struct {
	MasterKeys  map[string]string  `json:"master_keys"`
	UnlockStore map[string]float64 `json:"unlock_store"`
}

func (s *State) snapshotLocked() stateDocument {
	doc := stateDocument{
		MasterKeys:  make(map[string]string, len(s.masterKeys)),
		UnlockStore: make(map[string]float64, len(s.unlockExpiry)),
	}
	for owner, key := range s.masterKeys {
		doc.MasterKeys[string(owner)] = hex.EncodeToString(key)
	}
	for owner, expiry := range s.unlockExpiry {
		doc.UnlockStore[string(owner)] = toEpochSeconds(expiry)
	}
	return doc
}

func toEpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromEpochSeconds(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}
