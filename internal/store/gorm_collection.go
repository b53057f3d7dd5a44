package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"

	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/metrics"
)

// Notifier tells other service instances that a collection changed.
type Notifier interface {
	Publish(ctx context.Context, collection Collection) error
}

type noopNotifier struct{}

func (noopNotifier) Publish(context.Context, Collection) error { return nil }

// rowMapper converts between the document type handed to callers and the
// GORM row persisted in the collection's table.
type rowMapper[T any, M any] struct {
	toRow   func(id string, now time.Time, doc T) M
	fromRow func(row M) T
}

// GormCollection is a DocumentStore backed by one GORM table.
//
// Snapshots are produced by Run: every committed write (local or signalled
// through Refresh by another instance) schedules one re-listing, and bursts
// of writes coalesce into a single snapshot.
type GormCollection[T any, M any] struct {
	db       *gormlib.DB
	name     Collection
	order    string
	mapper   rowMapper[T, M]
	hub      *hub[T]
	notifier Notifier
	metrics  *metrics.MetricsRegistry
	changed  chan struct{}
	newID    func() string
	now      func() time.Time
}

type CollectionOption func(*collectionOptions)

type collectionOptions struct {
	notifier Notifier
	metrics  *metrics.MetricsRegistry
	now      func() time.Time
}

// WithNotifier publishes every committed write to other instances.
func WithNotifier(n Notifier) CollectionOption {
	return func(o *collectionOptions) { o.notifier = n }
}

func WithMetrics(m *metrics.MetricsRegistry) CollectionOption {
	return func(o *collectionOptions) { o.metrics = m }
}

// WithClock overrides the server timestamp source.
func WithClock(now func() time.Time) CollectionOption {
	return func(o *collectionOptions) { o.now = now }
}

func newGormCollection[T any, M any](db *gormlib.DB, name Collection, order string, mapper rowMapper[T, M], opts ...CollectionOption) *GormCollection[T, M] {
	o := collectionOptions{notifier: noopNotifier{}, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &GormCollection[T, M]{
		db:       db,
		name:     name,
		order:    order,
		mapper:   mapper,
		hub:      newHub[T](),
		notifier: o.notifier,
		metrics:  o.metrics,
		changed:  make(chan struct{}, 1),
		newID:    newDocumentID,
		now:      o.now,
	}
}

// newDocumentID returns a time-ordered id so rows created in one batch list
// back in insertion order.
func newDocumentID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (c *GormCollection[T, M]) Name() Collection {
	return c.name
}

func (c *GormCollection[T, M]) Create(ctx context.Context, doc T) (T, error) {
	row := c.mapper.toRow(c.newID(), c.now().UTC(), doc)
	if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
		var zero T
		return zero, fmt.Errorf("failed to create %s document: %w", c.name, err)
	}
	c.committed(ctx)
	return c.mapper.fromRow(row), nil
}

func (c *GormCollection[T, M]) Update(ctx context.Context, id string, fields Fields) error {
	if len(fields) == 0 {
		return nil
	}

	res := c.db.WithContext(ctx).Model(new(M)).Where("id = ?", id).Updates(map[string]any(fields))
	if res.Error != nil {
		return fmt.Errorf("failed to update %s document %s: %w", c.name, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	c.committed(ctx)
	return nil
}

// Delete removes one document. Deleting a missing id is not an error.
func (c *GormCollection[T, M]) Delete(ctx context.Context, id string) error {
	if err := c.db.WithContext(ctx).Where("id = ?", id).Delete(new(M)).Error; err != nil {
		return fmt.Errorf("failed to delete %s document %s: %w", c.name, id, err)
	}
	c.committed(ctx)
	return nil
}

// BatchWrite commits up to MaxBatchOps creates and deletes atomically.
func (c *GormCollection[T, M]) BatchWrite(ctx context.Context, ops []Op[T]) error {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > MaxBatchOps {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(ops), MaxBatchOps)
	}

	now := c.now().UTC()
	var (
		deletes []string
		creates []M
	)
	for _, op := range ops {
		switch op.Kind {
		case OpDelete:
			deletes = append(deletes, op.ID)
		case OpCreate:
			creates = append(creates, c.mapper.toRow(c.newID(), now, op.Doc))
		}
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gormlib.DB) error {
		if len(deletes) > 0 {
			if err := tx.Where("id IN ?", deletes).Delete(new(M)).Error; err != nil {
				return err
			}
		}
		if len(creates) > 0 {
			if err := tx.Create(&creates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.metrics.BatchFailed(string(c.name))
		return fmt.Errorf("failed to commit %s batch: %w", c.name, err)
	}

	c.metrics.BatchCommitted(string(c.name))
	logging.Debug("Batch committed",
		"collection", c.name,
		"creates", len(creates),
		"deletes", len(deletes),
	)
	c.committed(ctx)
	return nil
}

func (c *GormCollection[T, M]) ListOnce(ctx context.Context) ([]T, error) {
	var rows []M
	if err := c.db.WithContext(ctx).Order(c.order).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}

	docs := make([]T, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, c.mapper.fromRow(row))
	}
	return docs, nil
}

func (c *GormCollection[T, M]) Subscribe(onSnapshot func([]T), onError func(error)) Unsubscribe {
	unsubscribe := c.hub.subscribe(onSnapshot, onError)
	c.Refresh()
	return unsubscribe
}

// Refresh schedules a re-listing. It never blocks.
func (c *GormCollection[T, M]) Refresh() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

// Run delivers snapshots until ctx is cancelled, then detaches every
// subscriber.
func (c *GormCollection[T, M]) Run(ctx context.Context) {
	defer c.hub.closeAll()

	c.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.changed:
			c.refresh(ctx)
		}
	}
}

func (c *GormCollection[T, M]) refresh(ctx context.Context) {
	snapshot, err := c.ListOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Subscribers keep their last good snapshot.
		c.metrics.SubscriptionFailed(string(c.name))
		logging.Warn("Snapshot refresh failed", "collection", c.name, "error", err.Error())
		c.hub.fail(err)
		return
	}

	delivered := c.hub.publish(snapshot)
	c.metrics.SnapshotDelivered(string(c.name), delivered)
}

func (c *GormCollection[T, M]) committed(ctx context.Context) {
	c.Refresh()
	if err := c.notifier.Publish(ctx, c.name); err != nil {
		logging.Warn("Failed to publish change notification", "collection", c.name, "error", err.Error())
	}
}
