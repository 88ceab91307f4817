package bus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Memory is an in-process Bus. Publishing never blocks: a subscriber whose
// buffer is full loses the event, which is acceptable because events are
// invalidation hints and a later event forces the same re-fetch.
type Memory struct {
	mu      sync.Mutex
	subs    map[string]map[int]chan Event
	nextID  int
	buffer  int
	closed  bool
	logger  *zap.Logger
	dropped uint64
}

// NewMemory builds an in-memory bus with the given per-subscriber buffer.
func NewMemory(buffer int, logger *zap.Logger) *Memory {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{
		subs:   make(map[string]map[int]chan Event),
		buffer: buffer,
		logger: logger,
	}
}

// Publish fans the event out to current subscribers of its topic.
func (m *Memory) Publish(_ context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	for _, ch := range m.subs[event.Topic] {
		select {
		case ch <- event:
		default:
			m.dropped++
			m.logger.Debug("event dropped, slow subscriber", zap.String("topic", event.Topic))
		}
	}
	return nil
}

// Subscribe registers a listener for the topic.
func (m *Memory) Subscribe(topic string) (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Event, m.buffer)
	if m.closed {
		close(ch)
		return ch, func() {}
	}

	id := m.nextID
	m.nextID++
	if m.subs[topic] == nil {
		m.subs[topic] = make(map[int]chan Event)
	}
	m.subs[topic][id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if listeners, ok := m.subs[topic]; ok {
			if c, ok := listeners[id]; ok {
				delete(listeners, id)
				close(c)
			}
			if len(listeners) == 0 {
				delete(m.subs, topic)
			}
		}
	}
	return ch, cancel
}

// Close drops all subscriptions and closes their channels.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for topic, listeners := range m.subs {
		for id, ch := range listeners {
			delete(listeners, id)
			close(ch)
		}
		delete(m.subs, topic)
	}
	return nil
}
