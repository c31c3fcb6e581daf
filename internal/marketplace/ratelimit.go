package marketplace

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrDailyLimitReached is returned when the rolling 24 hour call quota
// is exhausted.
var ErrDailyLimitReached = errors.New("daily marketplace call limit reached")

// RateLimiter enforces a steady-state requests-per-second limit plus a
// rolling 24 hour quota shared by all marketplace calls.
type RateLimiter struct {
	limiter *rate.Limiter

	mu         sync.Mutex
	dailyLimit int
	calls      []time.Time
	now        func() time.Time
}

// NewRateLimiter creates a limiter allowing rps sustained requests per
// second with the given burst, and at most dailyLimit calls in any rolling
// 24 hour window. A dailyLimit of zero disables the quota.
func NewRateLimiter(rps float64, burst, dailyLimit int) *RateLimiter {
	return &RateLimiter{
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// Wait blocks until a call is permitted or the context is canceled. It
// returns ErrDailyLimitReached without blocking when the quota is spent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.reserveDaily(); err != nil {
		return err
	}
	return r.limiter.Wait(ctx)
}

// Remaining reports how many calls are left in the current 24 hour window.
// It returns -1 when no daily quota is configured.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dailyLimit <= 0 {
		return -1
	}
	r.prune(r.now())
	return r.dailyLimit - len(r.calls)
}

func (r *RateLimiter) reserveDaily() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dailyLimit <= 0 {
		return nil
	}

	now := r.now()
	r.prune(now)
	if len(r.calls) >= r.dailyLimit {
		return ErrDailyLimitReached
	}
	r.calls = append(r.calls, now)
	return nil
}

// prune drops call timestamps older than 24 hours. Callers must hold mu.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-24 * time.Hour)
	i := 0
	for i < len(r.calls) && !r.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		r.calls = append(r.calls[:0], r.calls[i:]...)
	}
}
