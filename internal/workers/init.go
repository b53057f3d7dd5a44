package workers

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	listenerRetryDelay = 2 * time.Second
	resyncInterval     = time.Minute
)

type WorkersContainer struct {
	Listener *ChangeListener
	Resync   *Resync
}

// InitWorkers starts the background refreshers on g. source may be nil when
// the service runs as a single instance; only the periodic resync runs then.
func InitWorkers(ctx context.Context, g *errgroup.Group, source ChangeSource, collections ...Refresher) *WorkersContainer {
	container := &WorkersContainer{
		Resync: NewResync(collections...),
	}

	g.Go(func() error {
		container.Resync.Start(ctx, resyncInterval)
		return nil
	})

	if source != nil {
		container.Listener = NewChangeListener(source, listenerRetryDelay, collections...)
		g.Go(func() error {
			container.Listener.Start(ctx)
			return nil
		})
	}

	return container
}
