package booking

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r *Request) error
	Get(ctx context.Context, id string) (*Request, error)
	Update(ctx context.Context, r *Request) error
	ListByMentee(ctx context.Context, menteeID string) ([]Request, error)
	ListByProvider(ctx context.Context, providerID string) ([]Request, error)
	// ListAcceptedBetween returns accepted bookings scheduled in [from, to).
	ListAcceptedBetween(ctx context.Context, from, to time.Time) ([]Request, error)
}
