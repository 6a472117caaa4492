// Package storage persists the key custody state document through pluggable
// backends.
//
// The state document holds every owner's master key and unlock expiry and is
// always replaced as a whole. Backends available:
//
//   - File system storage with write-then-rename replacement
//   - S3-compatible object storage
//   - Vault KV v2 storage with token authentication
//   - In-memory storage for tests
//
// # Storage URI Format
//
// State locations are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//	file:///var/lib/kms/state.json
//	file://./state.json
//	s3://ACCESS_KEY:SECRET_KEY@bucket/kms/state.json?region=eu-west-1
//	vault://vault.internal:8200/secret/kms/state?token=s.xxxx
//	mem://test
//
// A location without a scheme is treated as a file path.
//
// # Redundancy
//
// Several locations combine into a MultiStorageBackend: Save writes to every
// available backend and succeeds if one did; Load returns the first document
// found.
//
// # Usage Example
//
//	factory := storage.NewStateBackendFactory(logger)
//	backend, err := factory.CreateMultiBackend([]string{"file://./state.json"})
//	if err != nil {
//	    return err
//	}
//	data, err := backend.Load(ctx)
//	if errors.Is(err, interfaces.ErrStateNotFound) {
//	    // first start
//	}
package storage
