package state

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Phase is a page collection's lifecycle stage. There is no error phase:
// failures keep the collection in its prior state.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
)

// Mutation describes one local change and the write that backs it. Apply
// runs against the local collection immediately; if Send then fails, the
// collection is restored to its pre-mutation snapshot. Every mutating path
// goes through this one abstraction, so drag-and-drop and form edits can
// no longer diverge on failure.
type Mutation[T any] struct {
	Apply func(items []T) []T
	Send  func(ctx context.Context) error
}

// Collection holds a page's in-memory view of one entity collection.
type Collection[T any] struct {
	mu    sync.Mutex
	phase Phase
	items []T
	log   *log.Logger
}

// NewCollection creates an empty collection in the Loading phase.
func NewCollection[T any](logger *log.Logger) *Collection[T] {
	return &Collection[T]{log: logger}
}

// Phase returns the collection's lifecycle stage.
func (c *Collection[T]) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Items returns a copy of the current collection.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Load replaces the collection with a fresh fetch and moves it to Ready.
// On failure the prior items are retained and the error is logged and
// returned.
func (c *Collection[T]) Load(ctx context.Context, fetch func(ctx context.Context) ([]T, error)) error {
	items, err := fetch(ctx)
	if err != nil {
		c.log.WithError(err).Warn("state: load failed, keeping prior items")
		return err
	}
	c.mu.Lock()
	c.items = items
	c.phase = PhaseReady
	c.mu.Unlock()
	return nil
}

// Mutate applies m locally, sends the backing write, and rolls the local
// change back when the write fails.
func (c *Collection[T]) Mutate(ctx context.Context, m Mutation[T]) error {
	c.mu.Lock()
	snapshot := append([]T(nil), c.items...)
	c.items = m.Apply(c.items)
	c.mu.Unlock()

	if err := m.Send(ctx); err != nil {
		c.mu.Lock()
		c.items = snapshot
		c.mu.Unlock()
		c.log.WithError(err).Warn("state: write failed, rolled back local change")
		return err
	}
	return nil
}

// Insert waits for the backing create to return the entity with its
// generated identifier, then appends it. Creates are not applied
// optimistically: there is nothing to render before the identifier exists.
func (c *Collection[T]) Insert(ctx context.Context, create func(ctx context.Context) (T, error)) (T, error) {
	item, err := create(ctx)
	if err != nil {
		var zero T
		c.log.WithError(err).Warn("state: create failed")
		return zero, err
	}
	c.mu.Lock()
	c.items = append(c.items, item)
	c.mu.Unlock()
	return item, nil
}

// replace swaps in an already-confirmed local change without a write.
func (c *Collection[T]) replace(fn func(items []T) []T) {
	c.mu.Lock()
	c.items = fn(c.items)
	c.mu.Unlock()
}
