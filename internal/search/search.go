package search

import (
	"sort"
	"strings"

	"mentorbook/internal/catalog"
)

// Search filters and ranks providers. It never mutates its input and ties
// keep their input order. q is expected to be normalized.
func Search(providers []catalog.Provider, q Query) []catalog.Provider {
	out := make([]catalog.Provider, 0, len(providers))
	for _, p := range providers {
		if matches(&p, q) {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, less(out, q.SortBy))
	return out
}

func matches(p *catalog.Provider, q Query) bool {
	if q.Text != "" && !matchText(p, q.Text) {
		return false
	}
	if q.ExpertiseTag != "" && !anyContains(p.Expertise, q.ExpertiseTag) {
		return false
	}
	if q.Institution != "" && p.Institution != q.Institution {
		return false
	}
	if q.BatchYear != "" && p.BatchYear != q.BatchYear {
		return false
	}
	if q.Language != "" && !anyContains(p.Languages, q.Language) {
		return false
	}
	return true
}

func matchText(p *catalog.Provider, text string) bool {
	needle := strings.ToLower(text)
	for _, field := range []string{p.Name, p.Company, p.Title} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// anyContains matches case-insensitively; an exact match is a special case
// of containment.
func anyContains(values []string, needle string) bool {
	needle = strings.ToLower(needle)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func less(ps []catalog.Provider, key SortKey) func(i, j int) bool {
	switch key {
	case SortPriceLow:
		return func(i, j int) bool { return ps[i].BaseRate.LessThan(ps[j].BaseRate) }
	case SortPriceHigh:
		return func(i, j int) bool { return ps[i].BaseRate.GreaterThan(ps[j].BaseRate) }
	case SortSessions:
		return func(i, j int) bool { return ps[i].Sessions > ps[j].Sessions }
	default:
		return func(i, j int) bool {
			if ps[i].Rating != ps[j].Rating {
				return ps[i].Rating > ps[j].Rating
			}
			return ps[i].ReviewCount > ps[j].ReviewCount
		}
	}
}
