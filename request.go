package searchspec

import (
	"bytes"

	"github.com/samber/lo"

	"github.com/theplant/searchspec/filter"
)

// SearchRequest is the wire form of a search: filters, sorts and a 1-based page.
type SearchRequest struct {
	Filters []*filter.FilterRequest `json:"filters"`
	Sorts   []*filter.SortRequest   `json:"sorts"`
	Page    *int                    `json:"page,omitempty"`
	Size    *int                    `json:"size,omitempty"`
}

// GetFilters never returns nil.
func (r *SearchRequest) GetFilters() []*filter.FilterRequest {
	if r == nil || r.Filters == nil {
		return []*filter.FilterRequest{}
	}
	return r.Filters
}

// GetSorts never returns nil.
func (r *SearchRequest) GetSorts() []*filter.SortRequest {
	if r == nil || r.Sorts == nil {
		return []*filter.SortRequest{}
	}
	return r.Sorts
}

// Normalize replaces missing filters and sorts with empty slices and returns r.
func (r *SearchRequest) Normalize() *SearchRequest {
	if r == nil {
		return &SearchRequest{Filters: []*filter.FilterRequest{}, Sorts: []*filter.SortRequest{}}
	}
	r.Filters = r.GetFilters()
	r.Sorts = r.GetSorts()
	return r
}

// Clone returns a deep copy, so hooks can adjust a request without touching the caller's.
// A nil request clones into an empty one.
func (r *SearchRequest) Clone() *SearchRequest {
	c := &SearchRequest{
		Filters: lo.Map(r.GetFilters(), func(f *filter.FilterRequest, _ int) *filter.FilterRequest { return f.Clone() }),
		Sorts:   lo.Map(r.GetSorts(), func(s *filter.SortRequest, _ int) *filter.SortRequest { return s.Clone() }),
	}
	if r != nil {
		if r.Page != nil {
			c.Page = lo.ToPtr(*r.Page)
		}
		if r.Size != nil {
			c.Size = lo.ToPtr(*r.Size)
		}
	}
	return c
}

// Pageable returns the zero-based page the request asks for.
func (r *SearchRequest) Pageable() Pageable {
	if r == nil {
		return PageableOf(nil, nil)
	}
	return PageableOf(r.Page, r.Size)
}

// ParseSearchRequest decodes the wire JSON of a search. An empty body is an empty request.
// Numbers are kept as json.Number so that coercion sees their literal text.
func ParseSearchRequest(data []byte) (*SearchRequest, error) {
	req := &SearchRequest{}
	if len(bytes.TrimSpace(data)) == 0 {
		return req.Normalize(), nil
	}
	if err := filter.Unmarshal(data, req); err != nil {
		return nil, err
	}
	return req.Normalize(), nil
}
