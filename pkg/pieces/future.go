package pieces

import (
	"context"
	"fmt"
)

// Future is a single-resolution completion shared by every waiter on one
// index.
type Future struct {
	done chan struct{}
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolvedFuture is handed out for indices that are already present.
var resolvedFuture = func() *Future {
	f := newFuture()
	close(f.done)

	return f
}()

// Done returns a channel closed once the index is present.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Resolved reports whether the index has become present.
func (f *Future) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the index is present or ctx ends. Resolution wins over a
// simultaneous cancellation. A cancelled wait does not unregister the future;
// other waiters keep sharing it.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		if f.Resolved() {
			return nil
		}

		return fmt.Errorf("wait for piece: %w", ctx.Err())
	}
}

// registry holds one pending Future per absent index that somebody waits on.
type registry struct {
	pending  map[int]*Future
	recorder Recorder
}

func newRegistry(recorder Recorder) registry {
	return registry{pending: map[int]*Future{}, recorder: recorder}
}

// Pending returns the number of indices with registered waits.
func (r *registry) Pending() int {
	return len(r.pending)
}

func (r *registry) acquire(index int, present bool) *Future {
	if present {
		return resolvedFuture
	}

	future, ok := r.pending[index]
	if !ok {
		future = newFuture()
		r.pending[index] = future
	}

	return future
}

// notify resolves and forgets the wait registered for index, if any.
func (r *registry) notify(index int) {
	future, ok := r.pending[index]
	if !ok {
		return
	}

	delete(r.pending, index)
	close(future.done)
	r.recorder.Resolved(index)
}

// notifyPresent resolves every pending wait whose index satisfies has.
func (r *registry) notifyPresent(has func(int) bool) {
	var ready []int

	for index := range r.pending {
		if has(index) {
			ready = append(ready, index)
		}
	}

	for _, index := range ready {
		r.notify(index)
	}
}
