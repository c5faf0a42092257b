package gormfilter

import (
	"gorm.io/gorm/clause"

	"github.com/theplant/searchspec/filter"
)

// resolveSort resolves s through the same join set as the filters so that a relation
// referenced by both is joined once.
func (r *Resolver) resolveSort(joins JoinSet, s *filter.SortRequest) (JoinSet, clause.OrderByColumn, error) {
	var desc bool
	switch s.Direction.Normalize() {
	case filter.SortDirectionAsc:
	case filter.SortDirectionDesc:
		desc = true
	default:
		return joins, clause.OrderByColumn{}, filter.Errorf(filter.ErrInvalidRequest, s.Key, "unknown sort direction %q", string(s.Direction))
	}

	joins, path, err := r.Resolve(joins, s.Key)
	if err != nil {
		return joins, clause.OrderByColumn{}, err
	}
	return joins, clause.OrderByColumn{Column: path.Column, Desc: desc}, nil
}
