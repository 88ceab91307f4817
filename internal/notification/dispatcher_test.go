package notification

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campus-api/internal/models"
	"github.com/campushub/campus-api/pkg/jobs"
)

type subsStub struct {
	subs    []models.PushSubscription
	deleted []string
}

func (s *subsStub) ListByClassroom(ctx context.Context, classroomID string) ([]models.PushSubscription, error) {
	return s.subs, nil
}

func (s *subsStub) Delete(ctx context.Context, endpoint string) error {
	s.deleted = append(s.deleted, endpoint)
	return nil
}

type senderStub struct {
	status   int
	err      error
	payloads []string
}

func (s *senderStub) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.payloads = append(s.payloads, string(payload))
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func newDispatcherForTest(subs *subsStub, sender *senderStub) *Dispatcher {
	d := NewDispatcher(subs, Config{Subject: "mailto:ops@example.com", Workers: 1}, nil, nil)
	d.sender = sender
	return d
}

func occupiedRoom() models.Classroom {
	name := "Ms. Rahma"
	return models.Classroom{ID: "room-1", Name: "101", Building: "Gedung A", Status: models.ClassroomOccupied, OccupiedByName: &name}
}

func TestDispatcherSendsToEverySubscriber(t *testing.T) {
	subs := &subsStub{subs: []models.PushSubscription{
		{Endpoint: "https://push.example/a"},
		{Endpoint: "https://push.example/b"},
	}}
	sender := &senderStub{status: http.StatusCreated}
	d := newDispatcherForTest(subs, sender)

	err := d.handle(context.Background(), jobs.Job{Payload: transitionJob{Room: occupiedRoom(), Action: models.HistoryOccupied}})
	require.NoError(t, err)
	require.Len(t, sender.payloads, 2)
	assert.Contains(t, sender.payloads[0], "occupied by Ms. Rahma")
	assert.Empty(t, subs.deleted)
}

func TestDispatcherPrunesExpiredSubscriptions(t *testing.T) {
	subs := &subsStub{subs: []models.PushSubscription{{Endpoint: "https://push.example/stale"}}}
	sender := &senderStub{status: http.StatusGone}
	d := newDispatcherForTest(subs, sender)

	err := d.handle(context.Background(), jobs.Job{Payload: transitionJob{Room: occupiedRoom(), Action: models.HistoryVacated}})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://push.example/stale"}, subs.deleted)
}

func TestDispatcherNoSubscribersIsQuiet(t *testing.T) {
	subs := &subsStub{}
	sender := &senderStub{status: http.StatusCreated}
	d := newDispatcherForTest(subs, sender)

	err := d.handle(context.Background(), jobs.Job{Payload: transitionJob{Room: occupiedRoom(), Action: models.HistoryOccupied}})
	require.NoError(t, err)
	assert.Empty(t, sender.payloads)
}
