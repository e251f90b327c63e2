// Package timeouts defines shared timeout constants used across kvmcp.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// SQLiteBusy is how long SQLite waits on a locked database before failing.
const SQLiteBusy = 5 * time.Second
