package source

import (
	"context"
	"fmt"
	"iter"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/internal/catmap"
)

// Table is an in-memory columnar source.
//
// Columns are added once, up front; the first column added fixes the row
// count. A Table is safe for concurrent reads after all columns are added.
type Table struct {
	numRows   int
	chunkSize int
	order     []string
	floats    map[string][]float64
	catCodes  map[string][]int32
	catDicts  map[string]*catmap.Dict
}

// NewTable creates an empty table that chunks rows in DefaultChunkSize runs.
func NewTable() *Table {
	return &Table{
		numRows:   -1,
		chunkSize: DefaultChunkSize,
		floats:    make(map[string][]float64),
		catCodes:  make(map[string][]int32),
		catDicts:  make(map[string]*catmap.Dict),
	}
}

// SetChunkSize overrides the number of rows per emitted chunk. Values
// below 1 are ignored.
func (t *Table) SetChunkSize(n int) *Table {
	if n >= 1 {
		t.chunkSize = n
	}

	return t
}

// AddFloats adds a float column. The slice is retained, not copied.
func (t *Table) AddFloats(name string, values []float64) error {
	if err := t.checkNewColumn(name, len(values)); err != nil {
		return err
	}
	t.floats[name] = values
	t.order = append(t.order, name)

	return nil
}

// AddCats adds a category column, dictionary-encoding the values in
// first-seen order.
func (t *Table) AddCats(name string, values []string) error {
	if err := t.checkNewColumn(name, len(values)); err != nil {
		return err
	}

	dict := catmap.New()
	codes := make([]int32, len(values))
	for i, v := range values {
		code, err := dict.Add(v)
		if err != nil {
			return fmt.Errorf("encode column %q: %w", name, err)
		}
		codes[i] = code
	}

	t.catCodes[name] = codes
	t.catDicts[name] = dict
	t.order = append(t.order, name)

	return nil
}

// Categories returns the dictionary of a category column in code order.
func (t *Table) Categories(name string) ([]string, bool) {
	dict, ok := t.catDicts[name]
	if !ok {
		return nil, false
	}

	return dict.Snapshot(), true
}

// Columns returns the column names in the order they were added.
func (t *Table) Columns() []string {
	return append([]string(nil), t.order...)
}

// NumRows returns the row count, or 0 for a table with no columns.
func (t *Table) NumRows() int {
	if t.numRows < 0 {
		return 0
	}

	return t.numRows
}

func (t *Table) checkNewColumn(name string, length int) error {
	if _, exists := t.floats[name]; exists {
		return fmt.Errorf("column %q: %w", name, errs.ErrDuplicateColumn)
	}
	if _, exists := t.catCodes[name]; exists {
		return fmt.Errorf("column %q: %w", name, errs.ErrDuplicateColumn)
	}
	if t.numRows >= 0 && length != t.numRows {
		return fmt.Errorf("column %q has %d rows, table has %d: %w", name, length, t.numRows, errs.ErrColumnLengthMismatch)
	}
	if t.numRows < 0 {
		t.numRows = length
	}

	return nil
}

// Chunks yields the table rows as column sub-slices, chunkSize rows at a
// time. The table dictionary is complete before iteration starts, so every
// chunk carries the full snapshot.
func (t *Table) Chunks(ctx context.Context) iter.Seq2[*Chunk, error] {
	return func(yield func(*Chunk, error) bool) {
		for start := 0; start < t.NumRows(); start += t.chunkSize {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			end := min(start+t.chunkSize, t.numRows)
			chunk := NewChunk(end - start)
			for name, values := range t.floats {
				// Errors are impossible here, lengths were validated on Add.
				_ = chunk.SetFloat(name, values[start:end])
			}
			for name, codes := range t.catCodes {
				_ = chunk.SetCat(name, CatColumn{
					Codes: codes[start:end],
					Dict:  t.catDicts[name].Snapshot(),
				})
			}

			if !yield(chunk, nil) {
				return
			}
		}
	}
}
