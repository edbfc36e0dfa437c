package wallet

import "context"

// Journal is the durable record of ledger movements. Append must store a
// batch atomically: all lines or none.
type Journal interface {
	Append(ctx context.Context, txs []Transaction) error
	History(ctx context.Context, accountID string, limit, offset int) ([]Transaction, error)
	// All returns every line oldest first.
	All(ctx context.Context) ([]Transaction, error)
}
