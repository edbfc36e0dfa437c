package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mentorbook/internal/booking"
	"mentorbook/internal/events"
	"mentorbook/internal/logger"
	"mentorbook/internal/metrics"
)

// Lister returns accepted bookings scheduled in [from, to).
type Lister interface {
	Upcoming(ctx context.Context, from, to time.Time) ([]booking.Request, error)
}

// Job reminds both participants once about each accepted session starting
// within the lead time.
type Job struct {
	bookings  Lister
	publisher events.Publisher
	lead      time.Duration
	now       func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time
}

func New(bookings Lister, publisher events.Publisher, lead time.Duration) *Job {
	return &Job{
		bookings:  bookings,
		publisher: publisher,
		lead:      lead,
		now:       time.Now,
		sent:      make(map[string]time.Time),
	}
}

// Run sends reminders for sessions in [now, now+lead) and returns how many
// bookings were reminded.
func (j *Job) Run(ctx context.Context) (int, error) {
	now := j.now().UTC()
	upcoming, err := j.bookings.Upcoming(ctx, now, now.Add(j.lead))
	if err != nil {
		return 0, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.prune(now)

	count := 0
	for i := range upcoming {
		req := &upcoming[i]
		// A rescheduled session gets a fresh reminder for its new time.
		key := req.ID + "@" + req.ScheduledAt.UTC().Format(time.RFC3339)
		if _, done := j.sent[key]; done {
			continue
		}

		for _, recipient := range []string{req.MenteeID, req.ProviderID} {
			j.publisher.Publish(ctx, events.Event{
				Type:          events.BookingReminder,
				BookingID:     req.ID,
				ActorID:       req.Counterpart(recipient),
				CounterpartID: recipient,
				MeetingLink:   req.MeetingLink,
				ScheduledAt:   req.ScheduledAt,
			})
		}
		j.sent[key] = req.ScheduledAt
		metrics.RecordReminder()
		count++
	}
	return count, nil
}

func (j *Job) prune(now time.Time) {
	for key, at := range j.sent {
		if at.Before(now) {
			delete(j.sent, key)
		}
	}
}

// Schedule registers the job on a new cron scheduler and starts it. The
// returned function stops the scheduler and waits for a running job.
func (j *Job) Schedule(ctx context.Context, spec string) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := j.Run(ctx)
		if err != nil {
			logger.WithError(err).Error("reminder run failed")
			return
		}
		if n > 0 {
			logger.Info("session reminders sent", "count", n)
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.Info("reminder job scheduled", "schedule", spec, "lead", j.lead.String())

	return func() {
		<-c.Stop().Done()
	}, nil
}
