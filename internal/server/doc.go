// Package server exposes the transform pipeline over HTTP.
//
// The server binds a small fixed surface: the embedded control page at /,
// the multipart POST /process endpoint that returns the normalized WAV,
// GET /debug for diagnostics, and GET /healthz for liveness. Startup
// acquires a single-instance lock in the log directory, reports preflight
// results, and sweeps stale scratch files before listening. Shutdown
// drains in-flight requests within the configured timeout.
package server
