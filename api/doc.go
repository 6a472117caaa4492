// Package api holds the HTTP server configuration and the JSON payloads
// exchanged between the KMS server and its clients.
//
// Subpackages:
//   - server: base HTTP server with health, drain and pprof endpoints
//   - kmshandler: KMS routes, shared secret authentication and the Go client
package api
