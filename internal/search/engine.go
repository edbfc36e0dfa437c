package search

import (
	"context"
	"errors"

	"mentorbook/internal/catalog"
	"mentorbook/internal/logger"
	"mentorbook/internal/metrics"
)

// Reader is the catalog snapshot the engine ranks.
type Reader interface {
	ListProviders(ctx context.Context, f catalog.Filter) ([]catalog.Provider, error)
	Version() uint64
}

type Engine struct {
	catalog Reader
	cache   Cache
}

// NewEngine builds an engine. cache may be nil.
func NewEngine(catalog Reader, cache Cache) *Engine {
	return &Engine{catalog: catalog, cache: cache}
}

// Search returns the full ranked sequence of active providers matching q.
func (e *Engine) Search(ctx context.Context, q Query) ([]catalog.Provider, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	version := e.catalog.Version()
	if e.cache != nil {
		if result, ok := e.fromCache(ctx, version, q); ok {
			metrics.RecordSearch("hit")
			return result, nil
		}
		metrics.RecordSearch("miss")
	} else {
		metrics.RecordSearch("disabled")
	}

	providers, err := e.catalog.ListProviders(ctx, catalog.Filter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	result := Search(providers, q)

	if e.cache != nil {
		if err := e.cache.Set(ctx, version, q, ids(result)); err != nil {
			logger.WithError(err).Warn("search cache write failed", "query", q.Key())
		}
	}
	return result, nil
}

func (e *Engine) fromCache(ctx context.Context, version uint64, q Query) ([]catalog.Provider, bool) {
	cached, err := e.cache.Get(ctx, version, q)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.WithError(err).Warn("search cache read failed", "query", q.Key())
		}
		return nil, false
	}
	if len(cached) == 0 {
		return []catalog.Provider{}, true
	}

	providers, err := e.catalog.ListProviders(ctx, catalog.Filter{ActiveOnly: true, IDs: cached})
	if err != nil || len(providers) != len(cached) {
		return nil, false
	}

	byID := make(map[string]catalog.Provider, len(providers))
	for _, p := range providers {
		byID[p.ID] = p
	}
	out := make([]catalog.Provider, 0, len(cached))
	for _, id := range cached {
		p, ok := byID[id]
		if !ok {
			return nil, false
		}
		out = append(out, p)
	}
	return out, true
}

func ids(providers []catalog.Provider) []string {
	out := make([]string, len(providers))
	for i, p := range providers {
		out[i] = p.ID
	}
	return out
}
