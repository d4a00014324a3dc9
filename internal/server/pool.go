package server

import (
	"net/http"
	"runtime"
	"sync/atomic"

	"github.com/labstack/echo/v5"
)

// Limiter is a bounded worker pool for request handling: a fixed number of
// requests run concurrently, a bounded backlog waits for a slot, and
// anything beyond that is rejected instead of growing memory without bound.
// A slow client can hold at most one slot.
type Limiter struct {
	slots    chan struct{}
	admitted atomic.Int64
	limit    int64
}

// NewLimiter sizes the pool relative to CPU count when workers is zero,
// mirroring a typical thread-pool default of min(32, numCPU+4). backlog is
// how many requests may wait for a slot (default 100).
func NewLimiter(workers, backlog int) *Limiter {
	if workers <= 0 {
		workers = runtime.NumCPU() + 4
		if workers > 32 {
			workers = 32
		}
	}
	if backlog <= 0 {
		backlog = 100
	}

	return &Limiter{
		slots: make(chan struct{}, workers),
		limit: int64(workers + backlog),
	}
}

// Middleware admits the request into the pool or rejects it with 503.
func (l *Limiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		if l.admitted.Add(1) > l.limit {
			l.admitted.Add(-1)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "server busy")
		}
		defer l.admitted.Add(-1)

		select {
		case l.slots <- struct{}{}:
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
		defer func() { <-l.slots }()

		return next(c)
	}
}
