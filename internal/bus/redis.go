package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "campus:events:"

// Redis is a Bus backed by Redis pub/sub, for multi-instance deployments.
// Each Subscribe opens its own PubSub connection; the relay goroutine copies
// messages into a buffered channel with the same drop-on-full policy as the
// in-memory bus.
type Redis struct {
	client *redis.Client
	buffer int
	logger *zap.Logger

	mu     sync.Mutex
	cancel []context.CancelFunc
	closed bool
}

// NewRedis builds a Redis-backed bus.
func NewRedis(client *redis.Client, buffer int, logger *zap.Logger) *Redis {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, buffer: buffer, logger: logger}
}

// Publish broadcasts the event to all instances subscribed to its topic.
func (r *Redis) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.client.Publish(ctx, channelPrefix+event.Topic, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event.Topic, err)
	}
	return nil
}

// Subscribe opens a pub/sub stream for the topic.
func (r *Redis) Subscribe(topic string) (<-chan Event, func()) {
	out := make(chan Event, r.buffer)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(out)
		return out, func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = append(r.cancel, cancel)
	r.mu.Unlock()

	ps := r.client.Subscribe(ctx, channelPrefix+topic)

	go func() {
		defer close(out)
		defer ps.Close() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ps.Channel():
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					r.logger.Warn("malformed event payload", zap.String("topic", topic), zap.Error(err))
					continue
				}
				select {
				case out <- event:
				default:
					r.logger.Debug("event dropped, slow subscriber", zap.String("topic", topic))
				}
			}
		}
	}()

	return out, cancel
}

// Close cancels all subscriptions. The shared Redis client is owned by the
// caller and stays open.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	for _, cancel := range r.cancel {
		cancel()
	}
	r.cancel = nil
	return nil
}
