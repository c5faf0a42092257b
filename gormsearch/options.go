package gormsearch

import (
	"github.com/sirupsen/logrus"

	"github.com/theplant/searchspec"
	"github.com/theplant/searchspec/filter/gormfilter"
)

type Option[T any] func(*Options[T])

type Options[T any] struct {
	BuilderOptions []gormfilter.Option
	SearchHooks    []func(next searchspec.Searcher[T]) searchspec.Searcher[T]
	Logger         logrus.FieldLogger
}

// WithBuilderOptions configures how search requests become specifications.
func WithBuilderOptions[T any](opts ...gormfilter.Option) Option[T] {
	return func(o *Options[T]) {
		o.BuilderOptions = append(o.BuilderOptions, opts...)
	}
}

// WithSearchHooks wraps the searcher of a repository, the first hook being the outermost.
func WithSearchHooks[T any](hooks ...func(next searchspec.Searcher[T]) searchspec.Searcher[T]) Option[T] {
	return func(o *Options[T]) {
		o.SearchHooks = append(o.SearchHooks, hooks...)
	}
}

func WithLogger[T any](logger logrus.FieldLogger) Option[T] {
	return func(o *Options[T]) {
		o.Logger = logger
	}
}

func newOptions[T any](opts ...Option[T]) *Options[T] {
	o := &Options[T]{Logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(o)
	}
	// the builder logs with the same logger unless told otherwise
	o.BuilderOptions = append([]gormfilter.Option{gormfilter.WithLogger(o.Logger)}, o.BuilderOptions...)
	return o
}
