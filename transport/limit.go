package transport

import (
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ConcurrencyLimit bounds the number of calls in flight through next at
// once, mirroring tower's ConcurrencyLimitLayer; callers beyond the limit
// block until a slot frees up or the request's context is canceled.
type ConcurrencyLimit struct {
	next Transport
	sem  *semaphore.Weighted
}

// NewConcurrencyLimit wraps next with an n-slot admission gate.
func NewConcurrencyLimit(next Transport, n int) *ConcurrencyLimit {
	return &ConcurrencyLimit{next: next, sem: semaphore.NewWeighted(int64(n))}
}

func (c *ConcurrencyLimit) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := c.sem.Acquire(req.Context(), 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)
	return c.next.RoundTrip(req)
}

// RateLimit admits at most N calls per the configured interval through
// next, mirroring tower's RateLimitLayer; this is a token-bucket limiter
// rather than a hard window, so brief bursts up to the bucket size are
// allowed.
type RateLimit struct {
	next    Transport
	limiter *rate.Limiter
}

// NewRateLimit wraps next with a limiter admitting n calls per interval
// (golang.org/x/time/rate expresses this as events-per-second plus a
// burst size, so interval/n becomes the limiter's per-event rate and n
// its burst).
func NewRateLimit(next Transport, n int, interval time.Duration) *RateLimit {
	r := rate.Every(interval / time.Duration(n))
	return &RateLimit{next: next, limiter: rate.NewLimiter(r, n)}
}

func (r *RateLimit) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := r.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return r.next.RoundTrip(req)
}
