package pagination

import (
	"math"

	"gorm.io/gorm"
)

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Defaults fills in default values when page or limit are not provided.
func (p *PageRequest) Defaults() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = 20
	}
}

// Offset returns the number of records to skip for the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes the position of a page within the full filtered result set.
// Total counts every matching record, not just the returned page.
type Meta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// PageResponse wraps a page of items with its pagination metadata.
type PageResponse[T any] struct {
	Data       []T  `json:"data"`
	Pagination Meta `json:"pagination"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, page, limit int, total int64) PageResponse[T] {
	pages := int(math.Ceil(float64(total) / float64(limit)))
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Data: data,
		Pagination: Meta{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: pages,
		},
	}
}

// Paginate returns a GORM scope applying OFFSET and LIMIT for the request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.Limit)
	}
}
