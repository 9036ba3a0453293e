package assets

import (
	"context"
	"sync"
)

// Result is the outcome of a resolved Future.
type Result[T any] struct {
	Value T
	Err   error
}

// Future is a single-assignment result filled in by a loader goroutine.
// It resolves exactly once, with either a value or an error.
type Future[T any] struct {
	done chan struct{}
	once sync.Once

	mu        sync.Mutex
	result    Result[T]
	callbacks []func(T, error)
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(v T, err error) {
	f.once.Do(func() {
		f.mu.Lock()
		f.result = Result[T]{Value: v, Err: err}
		cbs := f.callbacks
		f.callbacks = nil
		close(f.done)
		f.mu.Unlock()

		for _, cb := range cbs {
			cb(v, err)
		}
	})
}

// Done returns a channel closed when the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Poll returns the result without blocking. ok is false while the load is pending.
func (f *Future[T]) Poll() (res Result[T], ok bool) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.result, true
	default:
		return Result[T]{}, false
	}
}

// Wait blocks until the future resolves or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.result.Value, f.result.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then registers fn to run once the future resolves. If it already has,
// fn runs immediately on the caller's goroutine; otherwise it runs on the
// goroutine that resolves the future.
func (f *Future[T]) Then(fn func(T, error)) {
	f.mu.Lock()
	select {
	case <-f.done:
		res := f.result
		f.mu.Unlock()
		fn(res.Value, res.Err)
		return
	default:
	}
	f.callbacks = append(f.callbacks, fn)
	f.mu.Unlock()
}
