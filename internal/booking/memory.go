package booking

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	requests map[string]*Request
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{requests: make(map[string]*Request)}
}

func (m *MemoryRepository) Create(ctx context.Context, r *Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = clone(r)
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (*Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.requests[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return clone(r), nil
}

func (m *MemoryRepository) Update(ctx context.Context, r *Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[r.ID]; !ok {
		return ErrBookingNotFound
	}
	m.requests[r.ID] = clone(r)
	return nil
}

func (m *MemoryRepository) ListByMentee(ctx context.Context, menteeID string) ([]Request, error) {
	return m.list(func(r *Request) bool { return r.MenteeID == menteeID }, newestFirst), nil
}

func (m *MemoryRepository) ListByProvider(ctx context.Context, providerID string) ([]Request, error) {
	return m.list(func(r *Request) bool { return r.ProviderID == providerID }, newestFirst), nil
}

func (m *MemoryRepository) ListAcceptedBetween(ctx context.Context, from, to time.Time) ([]Request, error) {
	return m.list(func(r *Request) bool {
		return r.Status == StatusAccepted && !r.ScheduledAt.Before(from) && r.ScheduledAt.Before(to)
	}, func(a, b *Request) bool { return a.ScheduledAt.Before(b.ScheduledAt) }), nil
}

func (m *MemoryRepository) list(match func(*Request) bool, less func(a, b *Request) bool) []Request {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Request{}
	for _, r := range m.requests {
		if match(r) {
			out = append(out, *clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if less(&out[i], &out[j]) {
			return true
		}
		if less(&out[j], &out[i]) {
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func newestFirst(a, b *Request) bool {
	return a.CreatedAt.After(b.CreatedAt)
}

func clone(r *Request) *Request {
	c := *r
	if r.ProposedAt != nil {
		t := *r.ProposedAt
		c.ProposedAt = &t
	}
	return &c
}
