package domain

// Default and maximum page sizes for list endpoints.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PaginationParams is a 1-indexed page request.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams builds a PaginationParams from optional query values.
// Missing or non-positive values fall back to page 1 and DefaultPageLimit;
// the limit is capped at MaxPageLimit.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: DefaultPageLimit}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, MaxPageLimit)
	}
	return p
}

// Paginate returns the slice of items on page p. A page past the end, however
// large its number, is empty and never nil.
func Paginate[T any](items []T, p PaginationParams) []T {
	n := len(items)
	if p.Page < 1 || p.Limit < 1 || p.Page-1 > n/p.Limit {
		return items[n:n:n]
	}
	// (Page-1)*Limit <= n here, so the product cannot overflow.
	start := (p.Page - 1) * p.Limit
	end := start + min(p.Limit, n-start)
	return items[start:end:end]
}
