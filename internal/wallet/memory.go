package wallet

import (
	"context"
	"sync"
)

// MemoryJournal keeps the journal in process.
type MemoryJournal struct {
	mu  sync.RWMutex
	txs []Transaction
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Append(ctx context.Context, txs []Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.txs = append(j.txs, txs...)
	return nil
}

func (j *MemoryJournal) History(ctx context.Context, accountID string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	out := []Transaction{}
	skipped := 0
	for i := len(j.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if j.txs[i].AccountID != accountID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, j.txs[i])
	}
	return out, nil
}

func (j *MemoryJournal) All(ctx context.Context) ([]Transaction, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]Transaction, len(j.txs))
	copy(out, j.txs)
	return out, nil
}
