// Package orm holds query helpers shared by the gorm repositories.
package orm

import (
	"math"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination is returned alongside paged listings.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination clamps page and limit to sane values.
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset is the row offset for the current page.
func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }

// Paginate counts the rows matched by query, then loads the requested page
// into dest sorted by order. The ordering is applied after the count so
// the COUNT(*) stays valid on every dialect.
func Paginate(query *gorm.DB, p Pagination, order string, dest interface{}) (Pagination, error) {
	if err := query.Session(&gorm.Session{}).Count(&p.Total).Error; err != nil {
		return p, err
	}
	p.TotalPages = int(math.Ceil(float64(p.Total) / float64(p.Limit)))

	page := query.Session(&gorm.Session{})
	if order != "" {
		page = page.Order(order)
	}
	if err := page.Offset(p.Offset()).Limit(p.Limit).Find(dest).Error; err != nil {
		return p, err
	}
	return p, nil
}
