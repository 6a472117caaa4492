package entropy

import (
	"fmt"
	"strings"
)

// Mode selects where samples come from.
type Mode string

const (
	ModeExternal Mode = "external"
	ModeFallback Mode = "fallback"
)

// ParseMode accepts the canonical mode names and the "camera" and "demo" aliases.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "external", "camera":
		return ModeExternal, nil
	case "fallback", "demo":
		return ModeFallback, nil
	default:
		return "", fmt.Errorf("unknown entropy mode %q", raw)
	}
}

func (m Mode) String() string {
	return string(m)
}
