package events

import (
	"context"
	"sync"
	"time"

	"mentorbook/internal/logger"
)

type Type string

const (
	BookingRequested           Type = "booking_requested"
	BookingAccepted            Type = "booking_accepted"
	BookingDeclined            Type = "booking_declined"
	BookingRescheduleRequested Type = "booking_reschedule_requested"
	BookingCancelled           Type = "booking_cancelled"
	BookingReminder            Type = "booking_reminder"
)

// Event describes a booking transition for whoever must be told about it.
// CounterpartID is the party that did not act.
type Event struct {
	Type          Type       `json:"type"`
	BookingID     string     `json:"booking_id"`
	ActorID       string     `json:"actor_id,omitempty"`
	CounterpartID string     `json:"counterpart_id"`
	MeetingLink   string     `json:"meeting_link,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	ProposedAt    *time.Time `json:"proposed_at,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

type Handler func(ctx context.Context, e Event) error

// Publisher is what the booking engine depends on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Bus fans events out to subscribers synchronously, in subscription order.
// A failing subscriber is logged and does not stop the others.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			logger.WithError(err).Error("event handler failed", "type", string(e.Type), "booking_id", e.BookingID)
		}
	}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ctx context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
