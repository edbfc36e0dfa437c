package search

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

// Page slices a ranked result for display. Out of range offsets yield an
// empty page.
func Page[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
