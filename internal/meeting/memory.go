package meeting

import (
	"context"
	"sort"
	"sync"
)

type linkKey struct {
	providerID string
	platform   string
}

type MemoryRepository struct {
	mu    sync.RWMutex
	links map[linkKey]Link
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{links: make(map[linkKey]Link)}
}

func (r *MemoryRepository) Upsert(ctx context.Context, link *Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.links[linkKey{link.ProviderID, link.Platform}] = *link
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, providerID, platform string) (*Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[linkKey{providerID, platform}]
	if !ok {
		return nil, ErrLinkNotFound
	}
	return &link, nil
}

func (r *MemoryRepository) ListByProvider(ctx context.Context, providerID string) ([]Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := []Link{}
	for k, link := range r.links {
		if k.providerID == providerID {
			links = append(links, link)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Platform < links[j].Platform })
	return links, nil
}

func (r *MemoryRepository) Disconnect(ctx context.Context, providerID, platform string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := linkKey{providerID, platform}
	if _, ok := r.links[k]; !ok {
		return ErrLinkNotFound
	}
	r.links[k] = Link{ProviderID: providerID, Platform: platform}
	return nil
}
