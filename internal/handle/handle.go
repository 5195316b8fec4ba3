// Package handle implements the polymorphic handler contract and its
// sequential-composition Chain. T is instantiated
// as bind.Item or bind.Bind throughout the rest of the module.
package handle

import "context"

// Handle is a single-operation polymorphic unit of work over *T.
type Handle[T any] interface {
	Handle(ctx context.Context, target *T) error
}

// Func adapts a plain function to Handle[T], the same way http.HandlerFunc
// adapts a function to http.Handler.
type Func[T any] func(ctx context.Context, target *T) error

// Handle calls f.
func (f Func[T]) Handle(ctx context.Context, target *T) error { return f(ctx, target) }

// Chain owns an ordered sequence of handlers; Handle invokes each in
// order, short-circuiting (fail-fast) on the first error.
type Chain[T any] struct {
	handlers []Handle[T]
}

// NewChain returns a Chain running handlers in the given order.
func NewChain[T any](handlers ...Handle[T]) *Chain[T] {
	return &Chain[T]{handlers: handlers}
}

// Handle runs every handler in declared order, stopping at the first
// error.
func (c *Chain[T]) Handle(ctx context.Context, target *T) error {
	for _, h := range c.handlers {
		if err := h.Handle(ctx, target); err != nil {
			return err
		}
	}
	return nil
}

// Append returns a new Chain with additional handlers appended.
func (c *Chain[T]) Append(handlers ...Handle[T]) *Chain[T] {
	return NewChain(append(append([]Handle[T]{}, c.handlers...), handlers...)...)
}
