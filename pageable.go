package searchspec

import "math"

// DefaultPageSize is used when a request has no size or a size of 0.
const DefaultPageSize = 10

// Pageable is a zero-based page.
type Pageable struct {
	Page int
	Size int
}

// PageableOf normalizes a 1-based page and a size. Negative values are taken by
// absolute value, a missing or zero size is DefaultPageSize, and a missing page or
// page 0 is the first page.
func PageableOf(page, size *int) Pageable {
	s := DefaultPageSize
	if size != nil && *size != 0 {
		s = Abs(*size)
	}
	p := 1
	if page != nil && *page != 0 {
		p = Abs(*page)
	}
	return Pageable{Page: p - 1, Size: s}
}

// Offset is the number of rows before the page. It saturates at math.MaxInt, so a
// page beyond any table is empty rather than wrapping to a negative offset.
func (p Pageable) Offset() int {
	if p.Size > 0 && p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

func (p Pageable) Limit() int {
	return p.Size
}

// TotalPages is the number of pages of size needed to hold total elements.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
