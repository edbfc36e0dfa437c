package meeting

import "context"

type Repository interface {
	Upsert(ctx context.Context, link *Link) error
	Get(ctx context.Context, providerID, platform string) (*Link, error)
	ListByProvider(ctx context.Context, providerID string) ([]Link, error)
	Disconnect(ctx context.Context, providerID, platform string) error
}
