package limiter

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// MinInterval guarantees at least the configured interval between two
// successive Wait returns. The first call never blocks.
type MinInterval struct {
	interval time.Duration
	limiter  *rate.Limiter
}

func NewMinInterval(interval time.Duration) *MinInterval {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &MinInterval{
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

func (m *MinInterval) Wait(ctx context.Context) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("limiter.Wait: %w", err)
	}

	return nil
}

func (m *MinInterval) Interval() time.Duration {
	return m.interval
}

// Unlimited never blocks.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
