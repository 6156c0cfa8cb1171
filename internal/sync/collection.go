// Package sync keeps client-facing snapshots of entity collections in
// step with the authoritative store. The strategy is deliberate: every
// successful mutation discards the snapshot and refetches the full
// collection, so the cache never drifts from server-side defaulting.
// Consistency is bought with latency; do not replace the refetch with
// optimistic patching without re-deriving the conflict semantics.
package sync

import (
	"context"
	"sync"
)

// Ops binds a Collection to one store facet.
type Ops[T any, U any] struct {
	List   func(ctx context.Context) ([]T, error)
	Create func(ctx context.Context, item T) (T, error)
	Update func(ctx context.Context, id string, upd U) (T, error)
	Delete func(ctx context.Context, id string) error
}

// Collection is a cached snapshot of one entity collection. The snapshot
// is owned exclusively by the Collection and only changes through its
// methods; concurrent refreshes are full-snapshot overwrites, so the
// last response to land wins without merging.
type Collection[T any, U any] struct {
	ops Ops[T, U]

	mu    sync.RWMutex
	items []T
	err   error
}

// NewCollection wires a Collection to its store operations.
func NewCollection[T any, U any](ops Ops[T, U]) *Collection[T, U] {
	return &Collection[T, U]{ops: ops}
}

// Refresh refetches the full collection. On failure the previous
// snapshot is retained and the error is recorded; it is also returned
// so callers that care can surface it.
func (c *Collection[T, U]) Refresh(ctx context.Context) error {
	items, err := c.ops.List(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.err = err
		return err
	}
	c.items = items
	c.err = nil
	return nil
}

// List refreshes and returns the snapshot. A fetch failure yields the
// previous (possibly empty) snapshot rather than an error; the sticky
// error is available through Err.
func (c *Collection[T, U]) List(ctx context.Context) []T {
	_ = c.Refresh(ctx)
	return c.Items()
}

// Items returns a copy of the current snapshot without fetching.
func (c *Collection[T, U]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Err returns the sticky fetch error, nil after the last successful
// refresh.
func (c *Collection[T, U]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Create inserts the item and refetches. Unlike List, failures are
// returned to the caller so the submitting form can show them.
func (c *Collection[T, U]) Create(ctx context.Context, item T) (T, error) {
	created, err := c.ops.Create(ctx, item)
	if err != nil {
		var zero T
		return zero, err
	}
	_ = c.Refresh(ctx)
	return created, nil
}

// Update applies a partial update and refetches.
func (c *Collection[T, U]) Update(ctx context.Context, id string, upd U) error {
	if _, err := c.ops.Update(ctx, id, upd); err != nil {
		return err
	}
	_ = c.Refresh(ctx)
	return nil
}

// Delete removes the row and refetches.
func (c *Collection[T, U]) Delete(ctx context.Context, id string) error {
	if err := c.ops.Delete(ctx, id); err != nil {
		return err
	}
	_ = c.Refresh(ctx)
	return nil
}
