package directory

import "strings"

// DefaultPageSize is applied when a search request carries no page size.
const DefaultPageSize = 10

// MaxPageSize caps the page size a single request may ask for.
const MaxPageSize = 100

// Filter holds the optional criteria of a project search. String criteria
// are case-insensitive substring matches; empty strings match everything.
// Star bounds are inclusive and independently optional: a nil bound means
// unbounded on that side. Seed, when set, keys a reproducible pseudo-random
// ordering instead of the default newest-first ordering.
type Filter struct {
	Group        string
	Contribution string
	Query        string
	Language     string
	MinStars     *int64
	MaxStars     *int64
	Seed         string
	Page         int
	PageSize     int
}

// Normalize coerces a filter into its canonical form: page numbers are
// 1-based, page sizes are defaulted and capped, criteria are trimmed, and
// negative star bounds (the legacy unbounded sentinel) become nil.
func (f Filter) Normalize(defaultSize, maxSize int) Filter {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	f.Group = strings.TrimSpace(f.Group)
	f.Contribution = strings.TrimSpace(f.Contribution)
	f.Query = strings.TrimSpace(f.Query)
	f.Language = strings.TrimSpace(f.Language)
	f.Seed = strings.TrimSpace(f.Seed)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultSize
	}
	if f.PageSize > maxSize {
		f.PageSize = maxSize
	}
	if f.MinStars != nil && *f.MinStars < 0 {
		f.MinStars = nil
	}
	if f.MaxStars != nil && *f.MaxStars < 0 {
		f.MaxStars = nil
	}
	return f
}

// Offset returns the half-open range start for the filter's page.
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
