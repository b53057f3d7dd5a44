package workers

import (
	"context"
	"time"

	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/store"
)

// Refresher is a collection whose subscribers can be re-fed on demand.
type Refresher interface {
	Name() store.Collection
	Refresh()
}

// ChangeSource delivers change notifications published by other instances.
type ChangeSource interface {
	Listen(ctx context.Context, onChange func(store.Collection)) error
}

// ChangeListener re-lists a collection whenever another instance reports a
// write to it. If the source drops, it reconnects after a fixed delay.
type ChangeListener struct {
	source     ChangeSource
	collection map[store.Collection]Refresher
	retryDelay time.Duration
}

func NewChangeListener(source ChangeSource, retryDelay time.Duration, collections ...Refresher) *ChangeListener {
	byName := make(map[store.Collection]Refresher, len(collections))
	for _, c := range collections {
		byName[c.Name()] = c
	}
	return &ChangeListener{
		source:     source,
		collection: byName,
		retryDelay: retryDelay,
	}
}

// Start blocks until ctx is cancelled.
func (l *ChangeListener) Start(ctx context.Context) {
	logging.Info("[ChangeListener] Starting", "collections", len(l.collection))

	for {
		err := l.source.Listen(ctx, l.dispatch)
		if ctx.Err() != nil {
			logging.Info("[ChangeListener] Shutting down")
			return
		}
		if err != nil {
			logging.Warn("[ChangeListener] Listener dropped, retrying", "error", err.Error(), "retry_in", l.retryDelay.String())
		}

		// Writes made elsewhere while disconnected were missed.
		l.refreshAll()

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *ChangeListener) dispatch(name store.Collection) {
	c, ok := l.collection[name]
	if !ok {
		logging.Debug("[ChangeListener] Ignoring change for unknown collection", "collection", name)
		return
	}
	c.Refresh()
}

func (l *ChangeListener) refreshAll() {
	for _, c := range l.collection {
		c.Refresh()
	}
}
