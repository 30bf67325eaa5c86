package types

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageQuery is embedded in list filters bound from the query string.
type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize clamps page to >= 1 and limit to [1, MaxPageSize].
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	return q
}

// Offset is the number of rows to skip for the page.
func (q PageQuery) Offset() int {
	n := q.Normalize()
	return (n.Page - 1) * n.Limit
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(q PageQuery, total int64) Pagination {
	q = q.Normalize()
	pages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return Pagination{Page: q.Page, Limit: q.Limit, Total: total, Pages: pages}
}

// Page is the data payload of every paginated list.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// NewPage never returns nil Items so empty pages serialize as [].
func NewPage[T any](items []T, q PageQuery, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Pagination: NewPagination(q, total)}
}
