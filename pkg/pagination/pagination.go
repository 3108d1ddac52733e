package pagination

// Offset pagination for the order list and report endpoints. The upstream
// intake UI pages with page/page_size query params rather than cursors.

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 20
	// MaxPageSize caps how many rows any listing can request.
	MaxPageSize = 100
)

// Params holds pagination inputs from controllers.
type Params struct {
	Page     int
	PageSize int
}

// Normalize clamps the page number and size into their allowed ranges.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Limit returns the row limit for the normalized params.
func (p Params) Limit() int {
	return p.Normalize().PageSize
}

// Page describes one page of results.
type Page struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// NewPage builds the page descriptor returned alongside listing rows.
func NewPage(params Params, total int64) Page {
	n := params.Normalize()
	return Page{Page: n.Page, PageSize: n.PageSize, Total: total}
}
