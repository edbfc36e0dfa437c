package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps the catalog in process. Reads return copies.
type MemoryRepository struct {
	mu            sync.RWMutex
	providers     map[string]*Provider
	providerOrder []string
	services      map[string]*Service
	serviceSeq    map[string]int
	seq           int
	reviews       map[string]Review
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		providers:  make(map[string]*Provider),
		services:   make(map[string]*Service),
		serviceSeq: make(map[string]int),
		reviews:    make(map[string]Review),
	}
}

func (r *MemoryRepository) SaveProvider(ctx context.Context, p *Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.ID]; !exists {
		r.providerOrder = append(r.providerOrder, p.ID)
	}
	r.providers[p.ID] = cloneProvider(p)
	return nil
}

func (r *MemoryRepository) GetProvider(ctx context.Context, id string) (*Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return cloneProvider(p), nil
}

func (r *MemoryRepository) ListProviders(ctx context.Context, f Filter) ([]Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providerOrder))
	for _, id := range r.providerOrder {
		p := r.providers[id]
		if f.match(p) {
			out = append(out, *cloneProvider(p))
		}
	}
	return out, nil
}

func (r *MemoryRepository) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[id]
	if !ok {
		return ErrProviderNotFound
	}
	p.Active = active
	return nil
}

func (r *MemoryRepository) RecordReview(ctx context.Context, rv *Review) (*Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[rv.ProviderID]
	if !ok {
		return nil, ErrProviderNotFound
	}
	if _, done := r.reviews[rv.BookingID]; done {
		return nil, ErrAlreadyReviewed
	}
	r.reviews[rv.BookingID] = *rv

	p.Rating = foldRating(p.Rating, p.ReviewCount, rv.Rating)
	p.ReviewCount++
	p.Sessions++
	return cloneProvider(p), nil
}

func (r *MemoryRepository) SaveService(ctx context.Context, s *Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[s.ID]; !exists {
		r.seq++
		r.serviceSeq[s.ID] = r.seq
	}
	copied := *s
	r.services[s.ID] = &copied
	return nil
}

func (r *MemoryRepository) GetService(ctx context.Context, id string) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *MemoryRepository) ListServices(ctx context.Context, providerID string) ([]Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Service{}
	for _, s := range r.services {
		if s.ProviderID == providerID && !s.Retired() {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return r.serviceSeq[out[i].ID] < r.serviceSeq[out[j].ID]
	})
	return out, nil
}

func (r *MemoryRepository) LockService(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.services[id]
	if !ok {
		return ErrServiceNotFound
	}
	s.Locked = true
	return nil
}

func (r *MemoryRepository) RetireService(ctx context.Context, id, successorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.services[id]
	if !ok {
		return ErrServiceNotFound
	}
	s.SupersededBy = successorID
	return nil
}

func cloneProvider(p *Provider) *Provider {
	c := *p
	c.Languages = append([]string(nil), p.Languages...)
	c.Expertise = append([]string(nil), p.Expertise...)
	return &c
}
