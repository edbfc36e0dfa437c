package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const requestColumns = `id, provider_id, mentee_id, service_id, scheduled_at, duration_minutes, message,
	status, price, meeting_link, paid, captured, decline_reason, reschedule_reason,
	proposed_at, rescheduled_by, cancelled_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO bookings (` + requestColumns + `)
		VALUES (:id, :provider_id, :mentee_id, :service_id, :scheduled_at, :duration_minutes, :message,
			:status, :price, :meeting_link, :paid, :captured, :decline_reason, :reschedule_reason,
			:proposed_at, :rescheduled_by, :cancelled_by, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, req)
	return err
}

func (r *repository) Get(ctx context.Context, id string) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM bookings WHERE id = $1`

	var req Request
	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) Update(ctx context.Context, req *Request) error {
	query := `
		UPDATE bookings SET
			scheduled_at = :scheduled_at, status = :status, meeting_link = :meeting_link,
			paid = :paid, captured = :captured, decline_reason = :decline_reason,
			reschedule_reason = :reschedule_reason, proposed_at = :proposed_at,
			rescheduled_by = :rescheduled_by, cancelled_by = :cancelled_by, updated_at = :updated_at
		WHERE id = :id
	`

	result, err := r.db.NamedExecContext(ctx, query, req)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *repository) ListByMentee(ctx context.Context, menteeID string) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM bookings
		WHERE mentee_id = $1
		ORDER BY created_at DESC`

	requests := []Request{}
	if err := r.db.SelectContext(ctx, &requests, query, menteeID); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) ListByProvider(ctx context.Context, providerID string) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM bookings
		WHERE provider_id = $1
		ORDER BY created_at DESC`

	requests := []Request{}
	if err := r.db.SelectContext(ctx, &requests, query, providerID); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) ListAcceptedBetween(ctx context.Context, from, to time.Time) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM bookings
		WHERE status = 'accepted' AND scheduled_at >= $1 AND scheduled_at < $2
		ORDER BY scheduled_at ASC`

	requests := []Request{}
	if err := r.db.SelectContext(ctx, &requests, query, from, to); err != nil {
		return nil, err
	}
	return requests, nil
}
