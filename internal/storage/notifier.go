package storage

import (
	"context"
	"fmt"
	"sync"

	go_json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const changesChannel = "resilio:series:changed"

var _ Notifier = (*RedisNotifier)(nil)

// RedisNotifier publishes series changes on one pub/sub channel for
// downstream planners.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Publish(ctx context.Context, c Change) error {
	data, err := go_json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	if err := n.client.Publish(ctx, changesChannel, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Subscribe returns a channel of changes. The returned function unsubscribes
// and closes the channel.
func (n *RedisNotifier) Subscribe(ctx context.Context) (<-chan Change, func(), error) {
	pubsub := n.client.Subscribe(ctx, changesChannel)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var c Change
			if err := go_json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				continue
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { _ = pubsub.Close() }, nil
}

var _ Notifier = (*MemoryNotifier)(nil)

// MemoryNotifier records every change, for the CLI and tests.
type MemoryNotifier struct {
	mu      sync.Mutex
	changes []Change
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) Publish(_ context.Context, c Change) error {
	n.mu.Lock()
	n.changes = append(n.changes, c)
	n.mu.Unlock()
	return nil
}

func (n *MemoryNotifier) Changes() []Change {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Change, len(n.changes))
	copy(out, n.changes)
	return out
}
