package meeting

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, link *Link) error {
	query := `
		INSERT INTO meeting_links (provider_id, platform, url, connected, connected_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider_id, platform) DO UPDATE SET
			url = EXCLUDED.url, connected = EXCLUDED.connected, connected_at = EXCLUDED.connected_at
	`

	_, err := r.db.ExecContext(ctx, query, link.ProviderID, link.Platform, link.URL, link.Connected, link.ConnectedAt)
	return err
}

func (r *repository) Get(ctx context.Context, providerID, platform string) (*Link, error) {
	query := `
		SELECT provider_id, platform, url, connected, connected_at
		FROM meeting_links
		WHERE provider_id = $1 AND platform = $2
	`

	var link Link
	err := r.db.GetContext(ctx, &link, query, providerID, platform)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) ListByProvider(ctx context.Context, providerID string) ([]Link, error) {
	query := `
		SELECT provider_id, platform, url, connected, connected_at
		FROM meeting_links
		WHERE provider_id = $1
		ORDER BY platform ASC
	`

	links := []Link{}
	if err := r.db.SelectContext(ctx, &links, query, providerID); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) Disconnect(ctx context.Context, providerID, platform string) error {
	query := `
		UPDATE meeting_links
		SET url = '', connected = FALSE, connected_at = NULL
		WHERE provider_id = $1 AND platform = $2
	`

	result, err := r.db.ExecContext(ctx, query, providerID, platform)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}
