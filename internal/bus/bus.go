package bus

import (
	"context"
	"time"
)

// Well-known topics. Consumers treat an event as a coarse invalidation
// signal for the named collection and re-fetch through the API; payloads
// carry no row data.
const (
	TopicClassrooms       = "classrooms"
	TopicClassroomHistory = "classroom_history"
	TopicLostItems        = "lost_items"
	TopicProjects         = "projects"
	TopicFeedback         = "feedback"
)

// Event signals that something under Topic changed. Delivery is
// at-least-once and carries no ordering guarantee relative to the write
// that produced it.
type Event struct {
	Topic string    `json:"topic"`
	At    time.Time `json:"at"`
}

// Publisher emits change events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus is the change-notification contract: publish on a topic, subscribe to
// a stream of events for it. The returned cancel function releases the
// subscription; the channel is closed afterwards.
type Bus interface {
	Publisher
	Subscribe(topic string) (<-chan Event, func())
	Close() error
}
