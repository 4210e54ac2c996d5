package interfaces

import (
	"context"
	"time"
)

type RateLimiter interface {
	// Allow counts one hit for key in the current window and reports whether
	// it is within limit, with the hits left in the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, remaining int, err error)
	Health(ctx context.Context) error
	Close() error
}
