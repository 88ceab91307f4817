package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/bus"
)

type sseMetrics interface {
	SSEClientConnected(delta int)
}

// EventsHandler streams change events to browsers over server-sent events.
// Clients treat every event as an invalidation signal and re-fetch the
// affected collection; the stream carries no row data.
type EventsHandler struct {
	bus       bus.Bus
	heartbeat time.Duration
	metrics   sseMetrics
	logger    *zap.Logger
}

// NewEventsHandler builds a new handler. The metrics recorder is optional.
func NewEventsHandler(b bus.Bus, heartbeat time.Duration, metrics sseMetrics, logger *zap.Logger) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{bus: b, heartbeat: heartbeat, metrics: metrics, logger: logger}
}

func allTopics() []string {
	return []string{
		bus.TopicClassrooms,
		bus.TopicClassroomHistory,
		bus.TopicLostItems,
		bus.TopicProjects,
		bus.TopicFeedback,
	}
}

// Stream godoc
// @Summary Live change events
// @Description Server-sent event stream of collection invalidation signals
// @Tags Events
// @Produce text/event-stream
// @Param topics query string false "Comma separated topic list (defaults to all)"
// @Success 200 {string} string "event stream"
// @Router /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	topics := allTopics()
	if raw := c.Query("topics"); raw != "" {
		topics = topics[:0]
		for _, topic := range strings.Split(raw, ",") {
			if topic = strings.TrimSpace(topic); topic != "" {
				topics = append(topics, topic)
			}
		}
	}

	merged := make(chan bus.Event, 16)
	cancels := make([]func(), 0, len(topics))
	done := make(chan struct{})
	for _, topic := range topics {
		events, cancel := h.bus.Subscribe(topic)
		cancels = append(cancels, cancel)
		go func() {
			for event := range events {
				select {
				case merged <- event:
				case <-done:
					return
				}
			}
		}()
	}
	defer func() {
		close(done)
		for _, cancel := range cancels {
			cancel()
		}
	}()

	if h.metrics != nil {
		h.metrics.SSEClientConnected(1)
		defer h.metrics.SSEClientConnected(-1)
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event, ok := <-merged:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Warn("failed to encode change event", zap.Error(err))
				return true
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Topic, payload)
			return true
		case <-ticker.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			return true
		}
	})
}
