package hook

// Chain composes hooks so that the first one is the outermost.
// It returns nil when there is nothing to compose.
func Chain[T any](hooks ...func(next T) T) func(next T) T {
	hooks = compact(hooks)
	if len(hooks) == 0 {
		return nil
	}
	return func(next T) T {
		for i := len(hooks) - 1; i >= 0; i-- {
			next = hooks[i](next)
		}
		return next
	}
}

// Prepend places hooks in front of h, which may be nil.
func Prepend[T any](h func(next T) T, hooks ...func(next T) T) func(next T) T {
	return Chain(append(hooks[:len(hooks):len(hooks)], h)...)
}

// Append places hooks behind h, which may be nil.
func Append[T any](h func(next T) T, hooks ...func(next T) T) func(next T) T {
	return Chain(append([]func(next T) T{h}, hooks...)...)
}

func compact[T any](hooks []func(next T) T) []func(next T) T {
	out := make([]func(next T) T, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
