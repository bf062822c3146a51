package common

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PaginationQuery is embedded in list query DTOs and bound from
// ?page=&page_size=. Out-of-range values are clamped, not rejected.
type PaginationQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

func (pq *PaginationQuery) normalize() {
	if pq.Page <= 0 {
		pq.Page = DefaultPage
	}
	switch {
	case pq.PageSize <= 0:
		pq.PageSize = DefaultPageSize
	case pq.PageSize > MaxPageSize:
		pq.PageSize = MaxPageSize
	}
}

// Limit normalizes the query and returns the page size.
func (pq *PaginationQuery) Limit() int {
	pq.normalize()
	return pq.PageSize
}

// Offset normalizes the query and returns the row offset.
func (pq *PaginationQuery) Offset() int {
	pq.normalize()
	return (pq.Page - 1) * pq.PageSize
}

// Pagination describes the page returned alongside list data.
type Pagination struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// NewPagination derives the page block from a total count, applying the
// same defaults and limits as PaginationQuery.
func NewPagination(totalItems int64, page, pageSize int) *Pagination {
	pq := PaginationQuery{Page: page, PageSize: pageSize}
	pq.normalize()
	pages := int((totalItems + int64(pq.PageSize) - 1) / int64(pq.PageSize))
	return &Pagination{
		TotalItems:  totalItems,
		TotalPages:  pages,
		CurrentPage: pq.Page,
		PageSize:    pq.PageSize,
		HasNext:     pq.Page < pages,
		HasPrev:     pq.Page > 1,
	}
}
