package connection

import (
	"context"
	"time"
)

// RequestInfo describes one completed round trip. StatusCode is zero when no
// response was received; Err holds the classified or transport error.
type RequestInfo struct {
	Method     string
	Path       string
	RequestID  string
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Observer is notified after every round trip, including CSRF fetches.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveRequest(ctx context.Context, info RequestInfo)
}
