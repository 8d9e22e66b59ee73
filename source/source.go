// Package source provides the columnar data sources consumed by
// rasterization.
//
// Data flows through the library as a stream of column chunks rather than
// one giant table, so sources backed by files or databases never need the
// full dataset in memory. The in-memory Table is the simplest source;
// CSVFile streams from disk and PostgresQuery streams from a database pool.
package source

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/arloliu/dshade/errs"
)

// DefaultChunkSize is the number of rows per chunk emitted by the sources
// in this package unless configured otherwise.
const DefaultChunkSize = 65536

// CatColumn is a dictionary-encoded category column within one chunk.
//
// Codes holds one entry per row; a negative code marks a missing category.
// Dict is the cumulative dictionary snapshot as of the end of the chunk:
// snapshots from consecutive chunks of one source only ever grow, and an
// earlier snapshot is always a prefix of a later one.
type CatColumn struct {
	Codes []int32
	Dict  []string
}

// Chunk is a run of consecutive rows as parallel column slices.
//
// All columns in a chunk have the same length. Chunks are read-only once
// yielded; consumers must not retain the slices past the iteration step,
// since sources may reuse buffers between chunks.
type Chunk struct {
	length int
	floats map[string][]float64
	cats   map[string]CatColumn
}

// NewChunk creates an empty chunk expecting columns of the given length.
func NewChunk(length int) *Chunk {
	return &Chunk{
		length: length,
		floats: make(map[string][]float64),
		cats:   make(map[string]CatColumn),
	}
}

// Len returns the number of rows in the chunk.
func (c *Chunk) Len() int {
	return c.length
}

// SetFloat adds a float column to the chunk.
func (c *Chunk) SetFloat(name string, values []float64) error {
	if len(values) != c.length {
		return fmt.Errorf("column %q has %d rows, chunk has %d: %w", name, len(values), c.length, errs.ErrColumnLengthMismatch)
	}
	if _, exists := c.floats[name]; exists {
		return fmt.Errorf("column %q: %w", name, errs.ErrDuplicateColumn)
	}
	if _, exists := c.cats[name]; exists {
		return fmt.Errorf("column %q: %w", name, errs.ErrDuplicateColumn)
	}
	c.floats[name] = values

	return nil
}

// SetCat adds a category column to the chunk.
func (c *Chunk) SetCat(name string, col CatColumn) error {
	if len(col.Codes) != c.length {
		return fmt.Errorf("column %q has %d rows, chunk has %d: %w", name, len(col.Codes), c.length, errs.ErrColumnLengthMismatch)
	}
	if _, exists := c.floats[name]; exists {
		return fmt.Errorf("column %q: %w", name, errs.ErrDuplicateColumn)
	}
	if _, exists := c.cats[name]; exists {
		return fmt.Errorf("column %q: %w", name, errs.ErrDuplicateColumn)
	}
	c.cats[name] = col

	return nil
}

// Float returns the named float column.
func (c *Chunk) Float(name string) ([]float64, bool) {
	values, ok := c.floats[name]
	return values, ok
}

// Cat returns the named category column.
func (c *Chunk) Cat(name string) (CatColumn, bool) {
	col, ok := c.cats[name]
	return col, ok
}

// FloatNames returns the float column names in sorted order.
func (c *Chunk) FloatNames() []string {
	names := make([]string, 0, len(c.floats))
	for name := range c.floats {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// CatNames returns the category column names in sorted order.
func (c *Chunk) CatNames() []string {
	names := make([]string, 0, len(c.cats))
	for name := range c.cats {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// HasColumn reports whether the chunk carries a column with the given name,
// of either kind.
func (c *Chunk) HasColumn(name string) bool {
	if _, ok := c.floats[name]; ok {
		return true
	}
	_, ok := c.cats[name]

	return ok
}

// Source is a stream of row chunks in a stable row order.
//
// The iterator yields chunks until the source is exhausted or an error
// occurs; after a non-nil error the iteration ends. Implementations should
// honor ctx cancellation between chunks.
type Source interface {
	Chunks(ctx context.Context) iter.Seq2[*Chunk, error]
}

// Sized is a Source that knows its total row count up front. Decimation
// uses this to thin deterministically instead of reservoir sampling.
type Sized interface {
	Source
	NumRows() int
}
