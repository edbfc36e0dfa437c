package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const serviceColumns = `id, provider_id, kind, title, duration_minutes, price, description, locked,
	superseded_by, created_at`

const providerColumns = `id, name, role, company, title, location, institution, batch_year,
	languages, expertise, rating, review_count, sessions, base_rate, active, created_at`

func (r *repository) SaveProvider(ctx context.Context, p *Provider) error {
	query := `
		INSERT INTO providers (id, name, role, company, title, location, institution, batch_year,
			languages, expertise, rating, review_count, sessions, base_rate, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, role = EXCLUDED.role, company = EXCLUDED.company,
			title = EXCLUDED.title, location = EXCLUDED.location,
			institution = EXCLUDED.institution, batch_year = EXCLUDED.batch_year,
			languages = EXCLUDED.languages, expertise = EXCLUDED.expertise,
			rating = EXCLUDED.rating, review_count = EXCLUDED.review_count,
			sessions = EXCLUDED.sessions, base_rate = EXCLUDED.base_rate, active = EXCLUDED.active
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Role, p.Company, p.Title, p.Location, p.Institution, p.BatchYear,
		p.Languages, p.Expertise,
		p.Rating, p.ReviewCount, p.Sessions, p.BaseRate, p.Active, p.CreatedAt,
	)
	return err
}

func (r *repository) GetProvider(ctx context.Context, id string) (*Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = $1`

	var p Provider
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListProviders(ctx context.Context, f Filter) ([]Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers
		WHERE ($1 = FALSE OR active = TRUE)
		  AND (COALESCE(cardinality($2::text[]), 0) = 0 OR id = ANY($2))
		ORDER BY created_at, id`

	providers := []Provider{}
	err := r.db.SelectContext(ctx, &providers, query, f.ActiveOnly, pq.Array(f.IDs))
	if err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *repository) SetActive(ctx context.Context, id string, active bool) error {
	return r.execOne(ctx, ErrProviderNotFound,
		`UPDATE providers SET active = $1 WHERE id = $2`, active, id)
}

func (r *repository) RecordReview(ctx context.Context, rv *Review) (*Provider, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO reviews (booking_id, provider_id, mentee_id, rating, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (booking_id) DO NOTHING
	`, rv.BookingID, rv.ProviderID, rv.MenteeID, rv.Rating, rv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if inserted == 0 {
		return nil, ErrAlreadyReviewed
	}

	var p Provider
	err = tx.GetContext(ctx, &p, `
		UPDATE providers SET
			rating = ROUND(((rating * review_count + $1) / (review_count + 1))::numeric, 1)::double precision,
			review_count = review_count + 1,
			sessions = sessions + 1
		WHERE id = $2
		RETURNING `+providerColumns, rv.Rating, rv.ProviderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) SaveService(ctx context.Context, s *Service) error {
	query := `
		INSERT INTO services (id, provider_id, kind, title, duration_minutes, price, description, locked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind, title = EXCLUDED.title,
			duration_minutes = EXCLUDED.duration_minutes, price = EXCLUDED.price,
			description = EXCLUDED.description
		WHERE services.locked = FALSE
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.ProviderID, s.Kind, s.Title, s.DurationMinutes, s.Price, s.Description, s.Locked, s.CreatedAt)
	return err
}

func (r *repository) GetService(ctx context.Context, id string) (*Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE id = $1
	`

	var s Service
	err := r.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListServices(ctx context.Context, providerID string) ([]Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		WHERE provider_id = $1 AND superseded_by = ''
		ORDER BY created_at ASC, seq ASC
	`

	services := []Service{}
	if err := r.db.SelectContext(ctx, &services, query, providerID); err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repository) LockService(ctx context.Context, id string) error {
	return r.execOne(ctx, ErrServiceNotFound,
		`UPDATE services SET locked = TRUE WHERE id = $1`, id)
}

func (r *repository) RetireService(ctx context.Context, id, successorID string) error {
	return r.execOne(ctx, ErrServiceNotFound,
		`UPDATE services SET superseded_by = $1 WHERE id = $2`, successorID, id)
}

func (r *repository) execOne(ctx context.Context, notFound error, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
