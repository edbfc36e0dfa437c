package wallet

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

// NewRepository returns a postgres-backed Journal.
func NewRepository(db *sqlx.DB) Journal {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, txs []Transaction) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range txs {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO wallet_transactions
				(id, account_id, reference, type, amount, balance_after, held_after, status, created_at)
			VALUES
				(:id, :account_id, :reference, :type, :amount, :balance_after, :held_after, :status, :created_at)
		`, t)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) History(ctx context.Context, accountID string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, account_id, reference, type, amount, balance_after, held_after, status, created_at
		FROM wallet_transactions
		WHERE account_id = $1
		ORDER BY seq DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *repository) All(ctx context.Context) ([]Transaction, error) {
	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, account_id, reference, type, amount, balance_after, held_after, status, created_at
		FROM wallet_transactions
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}

	return txs, nil
}
