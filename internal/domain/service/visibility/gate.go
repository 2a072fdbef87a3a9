package visibility

import (
	"time"

	"fareglitch/internal/domain/entity"
)

const DefaultDelay = time.Hour

// Gate decides whether a viewer may see a deal. Premium subscribers see
// live deals immediately; everyone else waits out the delay after
// publication.
type Gate struct {
	delay time.Duration
}

func NewGate(delay time.Duration) Gate {
	if delay < 0 {
		delay = 0
	}

	return Gate{delay: delay}
}

func (g Gate) Delay() time.Duration {
	return g.delay
}

// CanSee never mutates deal or viewer. A nil viewer is anonymous.
func (g Gate) CanSee(deal entity.Deal, viewer *entity.Subscriber, now time.Time) bool {
	if !deal.IsLive(now) {
		return false
	}

	if viewer.IsPremium(now) {
		return true
	}

	return !now.Before(g.VisibleFrom(deal))
}

// VisibleFrom is the moment a non-premium viewer starts seeing deal. Zero
// when the deal was never published.
func (g Gate) VisibleFrom(deal entity.Deal) time.Time {
	if deal.PublishedAt == nil {
		return time.Time{}
	}

	return deal.PublishedAt.Add(g.delay)
}
