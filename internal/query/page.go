package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is used when the client omits limit.
	DefaultLimit = 10
	// MaxLimit caps limit so listing queries stay bounded.
	MaxLimit = 100
)

var (
	ErrInvalidPage  = errors.New("query: invalid page")
	ErrInvalidLimit = errors.New("query: invalid limit")
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Pagination is the paging block returned next to a listing.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// ParsePage reads page and limit query values. Empty values fall back to defaults and
// limits above MaxLimit are clamped.
func ParsePage(rawPage, rawLimit string) (Page, error) {
	page := Page{Number: 1, Limit: DefaultLimit}

	if raw := strings.TrimSpace(rawPage); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, fmt.Errorf("%w: must be an integer", ErrInvalidPage)
		}
		if n < 1 {
			return Page{}, fmt.Errorf("%w: must be at least 1", ErrInvalidPage)
		}
		page.Number = n
	}

	if raw := strings.TrimSpace(rawLimit); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, fmt.Errorf("%w: must be an integer", ErrInvalidLimit)
		}
		if n < 1 {
			return Page{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidLimit)
		}
		page.Limit = n
	}

	return page.normalize(), nil
}

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	p = p.normalize()
	return (p.Number - 1) * p.Limit
}

// Clause renders LIMIT/OFFSET. Both are integers computed here, never client text.
func (p Page) Clause() string {
	p = p.normalize()
	return fmt.Sprintf("LIMIT %d OFFSET %d", p.Limit, p.Offset())
}

// NewPagination derives the paging block for total matching rows.
func NewPagination(p Page, total int) Pagination {
	p = p.normalize()
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{
		Total: total,
		Page:  p.Number,
		Limit: p.Limit,
		Pages: pages,
	}
}
