// Package timeouts defines shared timeout constants used across the server.
// Centralizing these values prevents drift between transport boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ConnWrite caps a single outbound frame write to a client connection.
const ConnWrite = 10 * time.Second

// WSHandshake limits how long the websocket upgrade may take.
const WSHandshake = 5 * time.Second

// Shutdown limits how long listeners wait for in-flight connections
// during graceful shutdown.
const Shutdown = 5 * time.Second
