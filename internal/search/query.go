package search

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"mentorbook/internal/apperr"
)

type SortKey string

const (
	SortRating    SortKey = "rating"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortSessions  SortKey = "sessions"
)

// All disables a filter.
const All = "all"

// Query is the browse configuration. Empty or "all" filter values are
// ignored; filters combine with AND.
type Query struct {
	Text         string  `form:"q" json:"text,omitempty"`
	ExpertiseTag string  `form:"expertise" json:"expertise,omitempty"`
	Institution  string  `form:"institution" json:"institution,omitempty"`
	BatchYear    string  `form:"batch_year" json:"batch_year,omitempty"`
	Language     string  `form:"language" json:"language,omitempty"`
	SortBy       SortKey `form:"sort" json:"sort,omitempty"`
}

var ErrUnknownSort = apperr.New(apperr.KindValidation, "unknown sort key")

// Normalize trims every field, collapses "all" to empty and defaults the
// sort key to rating.
func (q Query) Normalize() (Query, error) {
	q.Text = strings.TrimSpace(q.Text)
	q.ExpertiseTag = disabled(q.ExpertiseTag)
	q.Institution = disabled(q.Institution)
	q.BatchYear = disabled(q.BatchYear)
	q.Language = disabled(q.Language)

	switch SortKey(strings.TrimSpace(string(q.SortBy))) {
	case "":
		q.SortBy = SortRating
	case SortRating, SortPriceLow, SortPriceHigh, SortSessions:
		q.SortBy = SortKey(strings.TrimSpace(string(q.SortBy)))
	default:
		return Query{}, apperr.Wrapf(ErrUnknownSort, "unknown sort key %q", q.SortBy).
			WithDetail("field", "sort")
	}
	return q, nil
}

// Key identifies a normalized query for caching.
func (q Query) Key() string {
	raw := fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%s\x00%s",
		strings.ToLower(q.Text), q.ExpertiseTag, q.Institution, q.BatchYear, q.Language, q.SortBy)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func disabled(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, All) {
		return ""
	}
	return v
}
