package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/campus-api/internal/models"
	"github.com/campushub/campus-api/pkg/jobs"
)

type subscriptionStore interface {
	ListByClassroom(ctx context.Context, classroomID string) ([]models.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
}

// Sender delivers a single web push message.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender sends through the webpush library.
type WebPushSender struct{}

// Send implements Sender.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

type pushMetrics interface {
	RecordPushResult(ok bool)
}

// Config holds VAPID material and pool sizing for the dispatcher.
type Config struct {
	Enabled    bool
	PublicKey  string
	PrivateKey string
	Subject    string
	TTL        int
	Workers    int
}

// pushMessage is the payload delivered to service workers.
type pushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Room  string `json:"room_id"`
}

type transitionJob struct {
	Room   models.Classroom
	Action models.HistoryAction
}

// Dispatcher fans occupancy transitions out to subscribed browsers through
// a retrying worker queue. Enqueueing never blocks the caller; when the
// queue is saturated the notification is dropped.
type Dispatcher struct {
	enabled bool
	subs    subscriptionStore
	sender  Sender
	metrics pushMetrics
	options *webpush.Options
	queue   *jobs.Queue
	logger  *zap.Logger
}

// NewDispatcher builds a Dispatcher. The metrics recorder is optional.
func NewDispatcher(subs subscriptionStore, cfg Config, metrics pushMetrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		enabled: cfg.Enabled,
		subs:    subs,
		sender:  &WebPushSender{},
		metrics: metrics,
		options: &webpush.Options{
			Subscriber:      cfg.Subject,
			VAPIDPublicKey:  cfg.PublicKey,
			VAPIDPrivateKey: cfg.PrivateKey,
			TTL:             cfg.TTL,
		},
		logger: logger,
	}
	d.queue = jobs.NewQueue("push-notifications", d.handle, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return d
}

// Start launches the delivery workers. A disabled dispatcher never starts
// and silently drops notifications.
func (d *Dispatcher) Start(ctx context.Context) {
	if !d.enabled {
		return
	}
	d.queue.Start(ctx)
}

// Stop drains the workers.
func (d *Dispatcher) Stop() {
	if !d.enabled {
		return
	}
	d.queue.Stop()
}

// NotifyOccupancyChange queues one delivery job for the transition.
func (d *Dispatcher) NotifyOccupancyChange(room models.Classroom, action models.HistoryAction) {
	if !d.enabled {
		return
	}
	if err := d.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "occupancy-transition",
		Payload: transitionJob{Room: room, Action: action},
	}); err != nil {
		d.logger.Warn("push notification dropped", zap.String("classroom_id", room.ID), zap.Error(err))
	}
}

func (d *Dispatcher) handle(ctx context.Context, job jobs.Job) error {
	transition, ok := job.Payload.(transitionJob)
	if !ok {
		d.logger.Error("unexpected push job payload", zap.String("job_id", job.ID))
		return nil
	}

	subs, err := d.subs.ListByClassroom(ctx, transition.Room.ID)
	if err != nil {
		return fmt.Errorf("load subscriptions for %s: %w", transition.Room.ID, err)
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(pushMessage{
		Title: "Classroom update",
		Body:  messageBody(transition),
		Room:  transition.Room.ID,
	})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	for _, sub := range subs {
		d.send(ctx, sub, payload)
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, sub models.PushSubscription, payload []byte) {
	resp, err := d.sender.Send(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}, d.options)
	if err != nil {
		d.logger.Warn("push delivery failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		if d.metrics != nil {
			d.metrics.RecordPushResult(false)
		}
		return
	}
	defer resp.Body.Close()

	// 404/410 mean the browser dropped the subscription.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		if err := d.subs.Delete(ctx, sub.Endpoint); err != nil {
			d.logger.Warn("failed to prune expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}

	if d.metrics != nil {
		d.metrics.RecordPushResult(resp.StatusCode < http.StatusBadRequest)
	}
}

func messageBody(transition transitionJob) string {
	name := transition.Room.Name
	if transition.Room.Building != "" {
		name = fmt.Sprintf("%s (%s)", name, transition.Room.Building)
	}
	if transition.Action == models.HistoryVacated {
		return fmt.Sprintf("Room %s is now free", name)
	}
	if transition.Room.OccupiedByName != nil {
		return fmt.Sprintf("Room %s is now occupied by %s", name, *transition.Room.OccupiedByName)
	}
	return fmt.Sprintf("Room %s is now occupied", name)
}
