// Package geostream turns streamed voie, numero and toponyme cursors into a
// lazy GeoJSON feature sequence without materializing the corpus.
package geostream

// Cursor is a single-pass pull iterator over records from a data source.
// Next returns the next item and true, or the zero value and false once the
// source is exhausted. A Cursor is not restartable.
type Cursor[T any] interface {
	Next() (T, bool, error)
	Close() error
}

// sliceCursor adapts an in-memory slice to the Cursor contract, mainly for
// tests and already-materialized inputs.
type sliceCursor[T any] struct {
	items []T
	pos   int
}

// NewSliceCursor returns a Cursor over items.
func NewSliceCursor[T any](items []T) Cursor[T] {
	return &sliceCursor[T]{items: items}
}

func (c *sliceCursor[T]) Next() (T, bool, error) {
	if c.pos >= len(c.items) {
		var zero T
		return zero, false, nil
	}
	item := c.items[c.pos]
	c.pos++
	return item, true, nil
}

func (c *sliceCursor[T]) Close() error { return nil }
