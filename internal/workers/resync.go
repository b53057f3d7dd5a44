package workers

import (
	"context"
	"time"

	"infinite-experiment/poolroster/internal/logging"
)

// Resync re-lists every collection on a fixed interval so a missed
// notification never leaves a console on an old snapshot for long.
type Resync struct {
	collections []Refresher
}

func NewResync(collections ...Refresher) *Resync {
	return &Resync{collections: collections}
}

// Start begins periodic refreshes
func (r *Resync) Start(ctx context.Context, interval time.Duration) {
	logging.Info("[Resync] Starting periodic refresh", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info("[Resync] Shutting down")
			return
		case <-ticker.C:
			for _, c := range r.collections {
				c.Refresh()
			}
		}
	}
}
