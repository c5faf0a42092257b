package searchspec

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/theplant/searchspec/filter"
	"github.com/theplant/searchspec/internal/hook"
)

// EnsurePageSize uses defaultSize if size is not set or is 0, and caps it at maxSize.
// Negative sizes are taken by absolute value before capping.
func EnsurePageSize[T any](defaultSize, maxSize int) func(next Searcher[T]) Searcher[T] {
	if defaultSize <= 0 {
		panic("defaultSize must be positive")
	}
	if maxSize < defaultSize {
		panic("maxSize must be greater than or equal to defaultSize")
	}
	return func(next Searcher[T]) Searcher[T] {
		return SearcherFunc[T](func(ctx context.Context, req *SearchRequest) (*Page[T], error) {
			req = req.Clone()
			size := defaultSize
			if req.Size != nil && *req.Size != 0 {
				size = min(Abs(*req.Size), maxSize)
			}
			req.Size = &size
			return next.Search(ctx, req)
		})
	}
}

// EnsurePrimarySort appends the primary sorts whose keys the request does not sort by yet,
// so that paging over equal sort values is deterministic.
func EnsurePrimarySort[T any](primarySorts ...*filter.SortRequest) func(next Searcher[T]) Searcher[T] {
	return func(next Searcher[T]) Searcher[T] {
		return SearcherFunc[T](func(ctx context.Context, req *SearchRequest) (*Page[T], error) {
			req = req.Clone()
			req.Sorts = AppendPrimarySort(req.Sorts, primarySorts...)
			return next.Search(ctx, req)
		})
	}
}

func AppendPrimarySort(sorts []*filter.SortRequest, primarySorts ...*filter.SortRequest) []*filter.SortRequest {
	if len(primarySorts) == 0 {
		return sorts
	}
	sortKeys := lo.SliceToMap(lo.Compact(sorts), func(s *filter.SortRequest) (string, bool) {
		return strings.ToLower(s.Key), true
	})
	// If there are keys in primarySorts that are not in sorts, add them to sorts
	for _, primarySort := range lo.Compact(primarySorts) {
		if _, ok := sortKeys[strings.ToLower(primarySort.Key)]; !ok {
			sorts = append(sorts, primarySort.Clone())
		}
	}
	return sorts
}

// EnsureComplexity rejects requests exceeding limits with a ComplexityExceeded error.
func EnsureComplexity[T any](limits *filter.ComplexityLimits) func(next Searcher[T]) Searcher[T] {
	return func(next Searcher[T]) Searcher[T] {
		return SearcherFunc[T](func(ctx context.Context, req *SearchRequest) (*Page[T], error) {
			if err := filter.CheckComplexity(req.GetFilters(), req.GetSorts(), limits); err != nil {
				return nil, err
			}
			return next.Search(ctx, req)
		})
	}
}

// EnsureTransform rewrites filter and sort keys with transform before the search runs.
func EnsureTransform[T any](transform filter.TransformFunc) func(next Searcher[T]) Searcher[T] {
	return func(next Searcher[T]) Searcher[T] {
		return SearcherFunc[T](func(ctx context.Context, req *SearchRequest) (*Page[T], error) {
			filters, sorts, err := filter.Transform(req.GetFilters(), req.GetSorts(), transform)
			if err != nil {
				return nil, err
			}
			req = req.Clone()
			req.Filters = filters
			req.Sorts = sorts
			return next.Search(ctx, req)
		})
	}
}

// WithLogging logs every search with its outcome and duration.
func WithLogging[T any](logger logrus.FieldLogger) func(next Searcher[T]) Searcher[T] {
	return func(next Searcher[T]) Searcher[T] {
		return SearcherFunc[T](func(ctx context.Context, req *SearchRequest) (*Page[T], error) {
			start := time.Now()
			page, err := next.Search(ctx, req)
			entry := logger.WithFields(logrus.Fields{
				"filters":  len(req.GetFilters()),
				"sorts":    len(req.GetSorts()),
				"duration": time.Since(start),
			})
			switch {
			case err == nil:
				entry.WithField("total_elements", page.TotalElements).Debug("search")
			case filter.IsFilterError(err):
				entry.WithError(err).Info("search rejected")
			default:
				entry.WithError(err).Error("search failed")
			}
			return page, err
		})
	}
}

type ctxExecuteHook struct{}

func ExecuteHookFromContext[T any](ctx context.Context) func(next ExecuteFunc[T]) ExecuteFunc[T] {
	hook, _ := ctx.Value(ctxExecuteHook{}).(func(next ExecuteFunc[T]) ExecuteFunc[T])
	return hook
}

// PrependExecuteHook wraps the ExecuteFunc of the searcher with hooks for the current call.
func PrependExecuteHook[T any](hooks ...func(next ExecuteFunc[T]) ExecuteFunc[T]) func(next Searcher[T]) Searcher[T] {
	return func(next Searcher[T]) Searcher[T] {
		return SearcherFunc[T](func(ctx context.Context, req *SearchRequest) (*Page[T], error) {
			if len(hooks) > 0 {
				executeHook := ExecuteHookFromContext[T](ctx)
				executeHook = hook.Prepend(executeHook, hooks...)
				ctx = context.WithValue(ctx, ctxExecuteHook{}, executeHook)
			}
			return next.Search(ctx, req)
		})
	}
}
