package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorbook/internal/events"
	"mentorbook/internal/metrics"
)

type recordingSender struct {
	mu    sync.Mutex
	jobs  []Job
	fails int
}

func (s *recordingSender) Send(ctx context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	if s.fails > 0 {
		s.fails--
		return errors.New("delivery failed")
	}
	return nil
}

func (s *recordingSender) sent() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Job(nil), s.jobs...)
}

func newTestService(sender Sender) (*Service, *MemoryQueue) {
	q := NewMemoryQueue(16)
	return New(q, sender, 3, WithRetryDelay(0), WithPopTimeout(10*time.Millisecond)), q
}

func acceptedEvent() events.Event {
	return events.Event{
		Type:          events.BookingAccepted,
		BookingID:     "b1",
		ActorID:       "p1",
		CounterpartID: "m1",
		MeetingLink:   "https://meet.google.com/abc-defg-hij",
		ScheduledAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNotify_QueuesForCounterpart(t *testing.T) {
	svc, q := newTestService(&recordingSender{})

	require.NoError(t, svc.Notify(context.Background(), acceptedEvent()))
	assert.Equal(t, int64(1), svc.QueueLength(context.Background()))

	job, ok, err := q.Pop(context.Background(), time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "m1", job.RecipientID)
	assert.Equal(t, "Booking confirmed", job.Subject)
	assert.Contains(t, job.Body, "https://meet.google.com/abc-defg-hij")
}

func TestNotify_SkipsEventsWithoutRecipient(t *testing.T) {
	svc, _ := newTestService(&recordingSender{})

	e := acceptedEvent()
	e.CounterpartID = ""
	require.NoError(t, svc.Notify(context.Background(), e))
	assert.Equal(t, int64(0), svc.QueueLength(context.Background()))
}

func TestNotify_RedisQueue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush("notifications", `.*booking_accepted.*`).SetVal(1)

	svc := New(NewRedisQueue(db), LogSender{}, 3)
	assert.NoError(t, svc.Notify(context.Background(), acceptedEvent()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotify_QueueFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush("notifications", `.*`).SetErr(errors.New("connection refused"))

	svc := New(NewRedisQueue(db), LogSender{}, 3)
	before := testutil.ToFloat64(metrics.NotificationsTotal.WithLabelValues("booking_accepted", "enqueue_failed"))

	assert.Error(t, svc.Notify(context.Background(), acceptedEvent()))
	after := testutil.ToFloat64(metrics.NotificationsTotal.WithLabelValues("booking_accepted", "enqueue_failed"))
	assert.Equal(t, before+1, after)
}

func TestProcessNext_Sends(t *testing.T) {
	sender := &recordingSender{}
	svc, _ := newTestService(sender)
	require.NoError(t, svc.Notify(context.Background(), acceptedEvent()))

	svc.processNext(context.Background())

	sent := sender.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, 1, sent[0].Tries)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.NotificationQueueLength))
}

func TestProcessNext_RetriesThenSucceeds(t *testing.T) {
	sender := &recordingSender{fails: 1}
	svc, q := newTestService(sender)
	require.NoError(t, svc.Notify(context.Background(), acceptedEvent()))

	svc.processNext(context.Background())
	assert.Equal(t, int64(1), q.Len(context.Background()))

	svc.processNext(context.Background())
	sent := sender.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, 2, sent[1].Tries)
	assert.Empty(t, q.Failed())
}

func TestProcessNext_GivesUpAfterMaxTries(t *testing.T) {
	sender := &recordingSender{fails: 10}
	svc, q := newTestService(sender)
	require.NoError(t, svc.Notify(context.Background(), acceptedEvent()))

	for i := 0; i < 3; i++ {
		svc.processNext(context.Background())
	}

	assert.Len(t, sender.sent(), 3)
	assert.Equal(t, int64(0), q.Len(context.Background()))
	failed := q.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 3, failed[0].Tries)
}

func TestProcessNext_EmptyQueue(t *testing.T) {
	sender := &recordingSender{}
	svc, _ := newTestService(sender)

	svc.processNext(context.Background())
	assert.Empty(t, sender.sent())
}

func TestStart_StopsOnCancel(t *testing.T) {
	sender := &recordingSender{}
	svc, _ := newTestService(sender)
	require.NoError(t, svc.Notify(context.Background(), acceptedEvent()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(sender.sent()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSubscribe_DeliversBusEvents(t *testing.T) {
	svc, q := newTestService(&recordingSender{})
	bus := events.NewBus()
	svc.Subscribe(bus)

	bus.Publish(context.Background(), acceptedEvent())
	e := acceptedEvent()
	e.Type = events.BookingCancelled
	bus.Publish(context.Background(), e)

	assert.Equal(t, int64(2), q.Len(context.Background()))
}

func TestCompose(t *testing.T) {
	proposed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		event   events.Event
		subject string
		body    string
	}{
		{"requested", events.Event{Type: events.BookingRequested}, "New booking request", "new session request"},
		{"declined", events.Event{Type: events.BookingDeclined, Reason: "Unavailable"}, "Booking declined", "Unavailable"},
		{"reschedule", events.Event{Type: events.BookingRescheduleRequested, ProposedAt: &proposed, Reason: "Travel that week"}, "Reschedule requested", "Mar 2, 2026"},
		{"cancelled", events.Event{Type: events.BookingCancelled}, "Booking cancelled", "refunded"},
		{"reminder", events.Event{Type: events.BookingReminder, MeetingLink: "https://zoom.us/j/1"}, "Upcoming session", "https://zoom.us/j/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.event.CounterpartID = "x"
			job := Compose(tt.event)
			assert.Equal(t, "x", job.RecipientID)
			assert.Equal(t, tt.subject, job.Subject)
			assert.Contains(t, job.Body, tt.body)
		})
	}
}
