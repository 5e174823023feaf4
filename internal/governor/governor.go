package governor

import (
	"context"
	"time"
)

// Governor paces calls to an external API with a fixed delay.
type Governor struct {
	interval time.Duration
	after    func(time.Duration) <-chan time.Time
}

// New returns a governor that waits interval per Pace call. A zero interval disables pacing.
func New(interval time.Duration) *Governor {
	return &Governor{interval: interval, after: time.After}
}

// Interval returns the configured delay.
func (g *Governor) Interval() time.Duration {
	return g.interval
}

// Pace blocks for the interval or until ctx is done.
func (g *Governor) Pace(ctx context.Context) error {
	if g.interval <= 0 {
		return ctx.Err()
	}
	select {
	case <-g.after(g.interval):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
