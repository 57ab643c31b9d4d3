// Package timeouts defines shared timeout constants used across livemory
// services and their clients.
package timeouts

import "time"

// GRPCDial caps the wait for a gRPC peer to report healthy.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single client-side gRPC request.
const GRPCRequest = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second
