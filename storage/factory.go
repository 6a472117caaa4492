package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/liveness-gated-kms/interfaces"
)

// StateBackendFactory creates state backends from location URIs and combines
// several of them for redundant persistence.
type StateBackendFactory struct {
	log *slog.Logger
}

// NewStateBackendFactory creates a new factory instance.
func NewStateBackendFactory(logger *slog.Logger) *StateBackendFactory {
	return &StateBackendFactory{log: logger}
}

// StateBackendFor creates a state backend from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local file, also the default for URIs without a scheme
//   - s3:// - Amazon S3 or compatible object storage
//   - vault:// - HashiCorp Vault KV v2 secret
//   - mem:// - Process memory, nothing is persisted
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *StateBackendFactory) StateBackendFor(location string) (interfaces.StateBackend, error) {
	if !strings.Contains(location, "://") {
		sf.log.Debug("Treating state location as file path", slog.String("path", location))
		return NewFileBackend(location, sf.log)
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return sf.createFileBackend(u)
	case "s3":
		return sf.createS3Backend(u)
	case "vault":
		return sf.createVaultBackend(u)
	case "mem":
		return NewMemoryBackend(u.Host + u.Path), nil
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme: %s", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiBackend creates a state backend from a list of location URIs.
// A single location is returned as is. Any invalid location is an error.
func (sf *StateBackendFactory) CreateMultiBackend(locations []string) (interfaces.StateBackend, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: no state locations configured", interfaces.ErrInvalidLocationURI)
	}

	backends := make([]interfaces.StateBackend, 0, len(locations))
	for _, location := range locations {
		backend, err := sf.StateBackendFor(location)
		if err != nil {
			return nil, fmt.Errorf("state location %q: %w", location, err)
		}
		backends = append(backends, backend)
	}

	if len(backends) == 1 {
		return backends[0], nil
	}
	return NewMultiStorageBackend(backends, sf.log), nil
}

// createFileBackend creates a file backend.
// URI format: file:///absolute/path/state.json or file://./relative/state.json
func (sf *StateBackendFactory) createFileBackend(u *url.URL) (interfaces.StateBackend, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" || strings.HasSuffix(path, "/") {
		return nil, fmt.Errorf("%w: file URI must name a file: %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	return NewFileBackend(path, sf.log)
}

// createS3Backend creates an S3 backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/state.json?region=us-west-2&endpoint=custom.s3.com&path_style=true
func (sf *StateBackendFactory) createS3Backend(u *url.URL) (interfaces.StateBackend, error) {
	sf.log.Debug("Creating S3 backend", slog.String("bucket", u.Host), slog.String("key", u.Path))

	query := u.Query()
	opts := S3Options{
		Bucket:    u.Host,
		Key:       strings.TrimPrefix(u.Path, "/"),
		Region:    query.Get("region"),
		Endpoint:  query.Get("endpoint"),
		PathStyle: query.Get("path_style") == "true",
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	if u.User != nil {
		// Extract credentials from URI (less secure)
		opts.AccessKey = u.User.Username()
		opts.SecretKey, _ = u.User.Password()
	}

	return NewS3Backend(opts, sf.log)
}

// createVaultBackend creates a Vault KV v2 backend.
// URI format: vault://host:8200/mount/path/to/state?token=s.xxx&tls=false
// The first path segment is the mount, the remainder the secret path.
func (sf *StateBackendFactory) createVaultBackend(u *url.URL) (interfaces.StateBackend, error) {
	sf.log.Debug("Creating Vault backend", slog.String("host", u.Host), slog.String("path", u.Path))

	if u.Host == "" {
		return nil, fmt.Errorf("%w: Vault URI needs a host", interfaces.ErrInvalidLocationURI)
	}

	mount, dataPath, found := strings.Cut(strings.Trim(u.Path, "/"), "/")
	if !found {
		return nil, fmt.Errorf("%w: Vault URI must be vault://host/mount/path", interfaces.ErrInvalidLocationURI)
	}

	query := u.Query()
	scheme := "https"
	if query.Get("tls") == "false" {
		scheme = "http"
	}

	return NewVaultBackend(fmt.Sprintf("%s://%s", scheme, u.Host), mount, dataPath, query.Get("token"), sf.log)
}
