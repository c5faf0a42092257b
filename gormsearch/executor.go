package gormsearch

import (
	"context"
	"reflect"

	"gorm.io/gorm"

	"github.com/theplant/searchspec"
	"github.com/theplant/searchspec/filter/gormfilter"
)

// NewExecutor runs search requests against the model of db, or T when db has none.
// Filter errors are returned as is; database errors are DataAccessErrors.
func NewExecutor[T any](db *gorm.DB, opts ...Option[T]) searchspec.ExecuteFunc[T] {
	o := newOptions(opts...)
	builder := gormfilter.NewBuilder(o.BuilderOptions...)

	return func(ctx context.Context, req *searchspec.ExecuteRequest) (*searchspec.ExecuteResponse[T], error) {
		basedOnModel, err := shouldBasedOnModel[T](db)
		if err != nil {
			return nil, err
		}

		tx := db
		if !basedOnModel {
			tx = applyModel[T](tx)
		}
		// a fresh session so that the count and the find do not share conditions
		tx = tx.WithContext(ctx)

		s, err := parseSchema(tx, tx.Statement.Model)
		if err != nil {
			return nil, err
		}

		spec, err := builder.Build(s, req.Filters, req.Sorts)
		if err != nil {
			return nil, err
		}

		rsp := &searchspec.ExecuteResponse[T]{}

		if !req.SkipCount {
			if err := spec.ApplyFilter(tx).Count(&rsp.TotalElements).Error; err != nil {
				return nil, searchspec.WrapDataAccess(err, "count")
			}
		}

		if req.SkipContent || req.Limit <= 0 {
			return rsp, nil
		}

		q := spec.Apply(tx).Limit(req.Limit)
		if req.Offset > 0 {
			q = q.Offset(req.Offset)
		}

		if basedOnModel {
			modelType := reflect.TypeOf(tx.Statement.Model)
			sliceType := reflect.SliceOf(modelType)
			nodesVal := reflect.New(sliceType).Elem()

			if err := q.Find(nodesVal.Addr().Interface()).Error; err != nil {
				return nil, searchspec.WrapDataAccess(err, "find")
			}

			nodes := make([]T, nodesVal.Len())
			for i := 0; i < nodesVal.Len(); i++ {
				nodes[i] = nodesVal.Index(i).Interface().(T)
			}
			rsp.Content = nodes
			return rsp, nil
		}

		var nodes []T
		if err := q.Find(&nodes).Error; err != nil {
			return nil, searchspec.WrapDataAccess(err, "find")
		}
		rsp.Content = nodes
		return rsp, nil
	}
}

// NewSearcher is a Searcher over NewExecutor with the search hooks of opts.
func NewSearcher[T any](db *gorm.DB, opts ...Option[T]) searchspec.Searcher[T] {
	o := newOptions(opts...)
	return searchspec.New(NewExecutor[T](db, opts...), o.SearchHooks...)
}
