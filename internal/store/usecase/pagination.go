package usecase

import "fmt"

// DefaultPageSize is the listing page window used by ListStores.
const DefaultPageSize = 4

// Pagination is one computed page window over a known total.
type Pagination struct {
	Page       int64
	PageSize   int64
	TotalCount int64
	TotalPages int64
}

// PageOutOfRangeError signals that a page beyond the data was requested. It
// is a caller-visible correction, not a hard failure: the caller should
// redirect to TotalPages.
type PageOutOfRangeError struct {
	RequestedPage int64
	TotalPages    int64
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page %d is out of range, last page is %d", e.RequestedPage, e.TotalPages)
}

// NewPagination computes the window for a page request. Pages below 1 are
// treated as page 1.
func NewPagination(page, pageSize, totalCount int64) Pagination {
	if page < 1 {
		page = 1
	}
	totalPages := totalCount / pageSize
	if totalCount%pageSize != 0 {
		totalPages++
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// Skip is the number of records preceding this window.
func (p Pagination) Skip() int64 {
	return (p.Page - 1) * p.PageSize
}

// Validate returns a PageOutOfRangeError when the window starts past the
// data. An empty first page is valid: there is simply nothing to show.
func (p Pagination) Validate() error {
	if p.Skip() > 0 && p.Skip() >= p.TotalCount {
		return &PageOutOfRangeError{RequestedPage: p.Page, TotalPages: p.TotalPages}
	}
	return nil
}
