package searchspec

import "context"

type Skip struct {
	Content, TotalCount bool
}

func (s Skip) All() bool {
	return s.Content && s.TotalCount
}

type ctxKeySkip struct{}

func WithSkip(ctx context.Context, skip Skip) context.Context {
	return context.WithValue(ctx, ctxKeySkip{}, skip)
}

func GetSkip(ctx context.Context) Skip {
	skip, _ := ctx.Value(ctxKeySkip{}).(Skip)
	return skip
}

type ctxKeyNodeProcessor struct{}

// WithNodeProcessor installs a function applied to every entity of a page before it is returned.
func WithNodeProcessor[T any](ctx context.Context, processor func(ctx context.Context, node T) (T, error)) context.Context {
	return context.WithValue(ctx, ctxKeyNodeProcessor{}, processor)
}

func GetNodeProcessor[T any](ctx context.Context) func(ctx context.Context, node T) (T, error) {
	processor, _ := ctx.Value(ctxKeyNodeProcessor{}).(func(ctx context.Context, node T) (T, error))
	return processor
}
