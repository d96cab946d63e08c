package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 12
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds page pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page describes the resolved window of a paginated result.
type Page struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalCount  int64 `json:"total_count"`
	Limit       int   `json:"limit"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage clamps the 1-based page number to its minimum.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Resolve computes the final page window for a total row count. Total pages
// is never below one, and a page past the end is adjusted down to the last
// valid page rather than reported as an error.
func Resolve(params Params, totalCount int64) Page {
	limit := NormalizeLimit(params.Limit)
	page := NormalizePage(params.Page)

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return Page{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		Limit:       limit,
	}
}

// Offset returns the row offset for the resolved page.
func (p Page) Offset() int {
	return (p.CurrentPage - 1) * p.Limit
}
