package catalog

import "context"

type Repository interface {
	SaveProvider(ctx context.Context, p *Provider) error
	GetProvider(ctx context.Context, id string) (*Provider, error)
	ListProviders(ctx context.Context, f Filter) ([]Provider, error)
	SetActive(ctx context.Context, id string, active bool) error
	// RecordReview stores r and folds its rating into the provider's
	// aggregates atomically. A second review of the same booking fails with
	// ErrAlreadyReviewed.
	RecordReview(ctx context.Context, r *Review) (*Provider, error)

	SaveService(ctx context.Context, s *Service) error
	GetService(ctx context.Context, id string) (*Service, error)
	// ListServices omits superseded services.
	ListServices(ctx context.Context, providerID string) ([]Service, error)
	LockService(ctx context.Context, id string) error
	RetireService(ctx context.Context, id, successorID string) error
}
