package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"infinite-experiment/poolroster/internal/logging"
)

// ChangesChannel is the Redis pub/sub channel carrying collection changes.
const ChangesChannel = "poolroster:changes"

// RedisNotifier fans collection changes out to every service instance so
// their subscribers see writes made elsewhere.
type RedisNotifier struct {
	client     *redis.Client
	instanceID string
}

var _ Notifier = (*RedisNotifier)(nil)

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{
		client:     client,
		instanceID: uuid.NewString(),
	}
}

// Publish announces that collection changed on this instance.
func (n *RedisNotifier) Publish(ctx context.Context, collection Collection) error {
	payload := n.instanceID + "|" + string(collection)
	if err := n.client.Publish(ctx, ChangesChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Listen blocks until ctx is cancelled, calling onChange for every change
// published by another instance.
func (n *RedisNotifier) Listen(ctx context.Context, onChange func(Collection)) error {
	sub := n.client.Subscribe(ctx, ChangesChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", ChangesChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			origin, collection, found := strings.Cut(msg.Payload, "|")
			if !found {
				logging.Warn("Ignoring malformed change notification", "payload", msg.Payload)
				continue
			}
			if origin == n.instanceID {
				continue
			}
			onChange(Collection(collection))
		}
	}
}
