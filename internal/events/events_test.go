package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishInOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe(func(ctx context.Context, e Event) error {
		got = append(got, "first:"+e.BookingID)
		return nil
	})
	bus.Subscribe(func(ctx context.Context, e Event) error {
		got = append(got, "second:"+e.BookingID)
		return nil
	})

	bus.Publish(context.Background(), Event{Type: BookingAccepted, BookingID: "b1"})
	assert.Equal(t, []string{"first:b1", "second:b1"}, got)
}

func TestBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewBus()
	delivered := 0

	bus.Subscribe(func(ctx context.Context, e Event) error {
		return errors.New("queue down")
	})
	bus.Subscribe(func(ctx context.Context, e Event) error {
		delivered++
		return nil
	})

	bus.Publish(context.Background(), Event{Type: BookingDeclined, BookingID: "b1"})
	assert.Equal(t, 1, delivered)
}

func TestBus_StampsOccurredAt(t *testing.T) {
	bus := NewBus()
	var seen Event
	bus.Subscribe(func(ctx context.Context, e Event) error {
		seen = e
		return nil
	})

	bus.Publish(context.Background(), Event{Type: BookingCancelled})
	assert.False(t, seen.OccurredAt.IsZero())
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Publish(context.Background(), Event{Type: BookingAccepted, BookingID: "b1"})
	r.Publish(context.Background(), Event{Type: BookingDeclined, BookingID: "b2"})

	require.Len(t, r.Events(), 2)
	accepted := r.OfType(BookingAccepted)
	require.Len(t, accepted, 1)
	assert.Equal(t, "b1", accepted[0].BookingID)
}
