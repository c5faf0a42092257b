package searchspec

import (
	"context"

	"github.com/pkg/errors"

	"github.com/theplant/searchspec/filter"
	"github.com/theplant/searchspec/internal/hook"
)

// ExecuteRequest is what the data source needs to run a normalized search.
type ExecuteRequest struct {
	Filters []*filter.FilterRequest
	Sorts   []*filter.SortRequest
	Offset  int
	Limit   int
	// SkipCount asks the data source not to count matching rows.
	SkipCount bool
	// SkipContent asks the data source not to fetch rows.
	SkipContent bool
}

type ExecuteResponse[T any] struct {
	Content       []T
	TotalElements int64
}

// ExecuteFunc builds the specification of req against the entity T and runs it.
type ExecuteFunc[T any] func(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse[T], error)

type Searcher[T any] interface {
	Search(ctx context.Context, req *SearchRequest) (*Page[T], error)
}

type SearcherFunc[T any] func(ctx context.Context, req *SearchRequest) (*Page[T], error)

func (f SearcherFunc[T]) Search(ctx context.Context, req *SearchRequest) (*Page[T], error) {
	return f(ctx, req)
}

func search[T any](ctx context.Context, req *SearchRequest, execute ExecuteFunc[T]) (*Page[T], error) {
	pageable := req.Pageable()

	skip := GetSkip(ctx)
	if skip.All() {
		return NewPage[T](nil, 0, pageable.Size), nil
	}

	rsp, err := execute(ctx, &ExecuteRequest{
		Filters:     req.GetFilters(),
		Sorts:       req.GetSorts(),
		Offset:      pageable.Offset(),
		Limit:       pageable.Limit(),
		SkipCount:   skip.TotalCount,
		SkipContent: skip.Content,
	})
	if err != nil {
		return nil, err
	}
	if rsp == nil {
		return nil, errors.New("execute returned no response")
	}

	content := rsp.Content
	if processor := GetNodeProcessor[T](ctx); processor != nil {
		content = make([]T, len(rsp.Content))
		for i, node := range rsp.Content {
			processed, err := processor(ctx, node)
			if err != nil {
				return nil, err
			}
			content[i] = processed
		}
	}

	return NewPage(content, rsp.TotalElements, pageable.Size), nil
}

// New returns a Searcher running execute, wrapped by hooks with the first hook outermost.
func New[T any](execute ExecuteFunc[T], hooks ...func(next Searcher[T]) Searcher[T]) Searcher[T] {
	if execute == nil {
		panic("execute must be set")
	}

	var s Searcher[T] = SearcherFunc[T](func(ctx context.Context, req *SearchRequest) (*Page[T], error) {
		exec := execute
		if executeHook := ExecuteHookFromContext[T](ctx); executeHook != nil {
			exec = executeHook(exec)
		}
		return search(ctx, req, exec)
	})

	hook := hook.Chain(hooks...)
	if hook != nil {
		s = hook(s)
	}
	return s
}
