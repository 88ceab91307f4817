package bus

import "context"

// Metrics counts published events.
type Metrics interface {
	RecordEventPublished(topic string)
}

// Instrumented decorates a Bus with publish counters.
type Instrumented struct {
	Bus
	metrics Metrics
}

// NewInstrumented wraps the inner bus. A nil recorder returns the bus as is.
func NewInstrumented(inner Bus, metrics Metrics) Bus {
	if metrics == nil {
		return inner
	}
	return &Instrumented{Bus: inner, metrics: metrics}
}

// Publish forwards to the inner bus and counts successful publishes.
func (i *Instrumented) Publish(ctx context.Context, event Event) error {
	if err := i.Bus.Publish(ctx, event); err != nil {
		return err
	}
	i.metrics.RecordEventPublished(event.Topic)
	return nil
}
