package correlation

import (
	"context"
	"sync"
)

// Future is a write-once result cell.
//
// Complete stores the value and closes Done exactly once; later calls are
// ignored. Readers never block unless they choose to via Wait.
//
// Callbacks registered with OnComplete run synchronously on the goroutine
// that completes the future (or immediately if it is already complete), in
// registration order.
type Future[T any] struct {
	once      sync.Once
	done      chan struct{}
	mu        sync.Mutex
	value     T
	completed bool
	callbacks []func(T)
}

// NewFuture returns an incomplete future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed returns a future already holding v.
func Completed[T any](v T) *Future[T] {
	f := NewFuture[T]()
	f.Complete(v)
	return f
}

// Complete sets the value. It reports whether this call won; a future
// completes at most once.
func (f *Future[T]) Complete(v T) bool {
	won := false
	f.once.Do(func() {
		won = true

		f.mu.Lock()
		f.value = v
		f.completed = true
		callbacks := f.callbacks
		f.callbacks = nil
		f.mu.Unlock()

		close(f.done)

		for _, cb := range callbacks {
			cb(v)
		}
	})
	return won
}

// Done is closed once the future is complete.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Peek returns the value without blocking.
func (f *Future[T]) Peek() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.completed
}

// Wait blocks until the future completes or ctx ends. Abandoning a wait
// does not cancel the underlying exchange.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		v, _ := f.Peek()
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete registers fn to run with the value once available.
func (f *Future[T]) OnComplete(fn func(T)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v := f.value
	f.mu.Unlock()
	fn(v)
}
