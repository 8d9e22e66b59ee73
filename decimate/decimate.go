// Package decimate bounds the number of points a source yields while keeping
// the selection stable under viewport changes.
//
// Each row gets a priority from a seeded hash of its column values, and the
// rows with the smallest priorities win. Because the priority depends only on
// the values, a point keeps its priority when the viewport pans or zooms:
// overlapping views select overlapping points instead of resampling from
// scratch, so decimated plots do not flicker between frames.
package decimate

import (
	"cmp"
	"container/heap"
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/internal/hash"
	"github.com/arloliu/dshade/internal/options"
	"github.com/arloliu/dshade/source"
)

// Decimator wraps a source and yields at most a fixed number of its rows.
//
// It implements source.Source, so it drops into any pipeline stage that
// consumes one. Every iteration re-streams the underlying source.
type Decimator struct {
	src       source.Source
	maxPoints int
	seed      uint64
	cols      []string
}

// Option configures a Decimator.
type Option = options.Option[*Decimator]

// WithSeed changes the sampling seed, selecting a different stable subset.
func WithSeed(seed uint64) Option {
	return options.NoError(func(d *Decimator) {
		d.seed = seed
	})
}

// WithColumns names the float columns that identify a point for sampling.
// By default every float column participates; pinning the identity to the
// position columns keeps the selection stable when value columns change.
func WithColumns(cols ...string) Option {
	return options.New(func(d *Decimator) error {
		if len(cols) == 0 {
			return errors.New("no identity columns given")
		}
		d.cols = slices.Clone(cols)

		return nil
	})
}

// New creates a Decimator that yields at most maxPoints rows of src, in the
// source's row order.
func New(src source.Source, maxPoints int, opts ...Option) (*Decimator, error) {
	if src == nil {
		return nil, errors.New("decimate nil source")
	}
	if maxPoints <= 0 {
		return nil, fmt.Errorf("max points must be positive, got %d", maxPoints)
	}

	d := &Decimator{
		src:       src,
		maxPoints: maxPoints,
	}
	if err := options.Apply(d, opts...); err != nil {
		return nil, err
	}

	return d, nil
}

// Chunks streams the selected rows. Sources that know their size and already
// fit the budget pass through without hashing or copying.
func (d *Decimator) Chunks(ctx context.Context) iter.Seq2[*source.Chunk, error] {
	return func(yield func(*source.Chunk, error) bool) {
		if sized, ok := d.src.(source.Sized); ok && sized.NumRows() <= d.maxPoints {
			for chunk, err := range d.src.Chunks(ctx) {
				if !yield(chunk, err) || err != nil {
					return
				}
			}

			return
		}

		kept, schema, err := d.collect(ctx)
		if err != nil {
			yield(nil, err)
			return
		}

		for start := 0; start < len(kept); start += source.DefaultChunkSize {
			end := min(start+source.DefaultChunkSize, len(kept))
			chunk, err := buildChunk(kept[start:end], schema)
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

// chunkSchema captures the column layout of the stream, fixed by the first
// chunk.
type chunkSchema struct {
	floatCols []string
	catCols   []string
	// dicts holds the latest dictionary snapshot per category column.
	// Snapshots only grow, so the last one covers every kept code.
	dicts [][]string
}

// keptRow is one selected row with its sampling priority and original
// position.
type keptRow struct {
	pri    uint64
	seq    int64
	floats []float64
	cats   []int32
}

// rowHeap is a max-heap on (priority, sequence), keeping the worst selected
// row at the root for cheap eviction.
type rowHeap []keptRow

func (h rowHeap) Len() int { return len(h) }

func (h rowHeap) Less(i, j int) bool {
	if h[i].pri != h[j].pri {
		return h[i].pri > h[j].pri
	}

	return h[i].seq > h[j].seq
}

func (h rowHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rowHeap) Push(x any) { *h = append(*h, x.(keptRow)) }

func (h *rowHeap) Pop() any {
	old := *h
	n := len(old)
	row := old[n-1]
	*h = old[:n-1]

	return row
}

func (d *Decimator) collect(ctx context.Context) ([]keptRow, *chunkSchema, error) {
	var (
		schema *chunkSchema
		idCols []string
		rows   rowHeap
		parts  []uint64
		rowSeq int64
		floats [][]float64
		cats   []source.CatColumn
		idVals [][]float64
	)

	for chunk, err := range d.src.Chunks(ctx) {
		if err != nil {
			return nil, nil, err
		}

		if schema == nil {
			schema, idCols, err = d.newSchema(chunk)
			if err != nil {
				return nil, nil, err
			}
			parts = make([]uint64, 1+len(idCols))
			floats = make([][]float64, len(schema.floatCols))
			cats = make([]source.CatColumn, len(schema.catCols))
			idVals = make([][]float64, len(idCols))
		}

		for i, name := range schema.floatCols {
			col, ok := chunk.Float(name)
			if !ok {
				return nil, nil, fmt.Errorf("column %q: %w", name, errs.ErrMissingColumn)
			}
			floats[i] = col
		}
		for i, name := range schema.catCols {
			col, ok := chunk.Cat(name)
			if !ok {
				return nil, nil, fmt.Errorf("column %q: %w", name, errs.ErrMissingColumn)
			}
			cats[i] = col
			schema.dicts[i] = snapshotDict(schema.dicts[i], col.Dict)
		}
		for i, name := range idCols {
			col, ok := chunk.Float(name)
			if !ok {
				return nil, nil, fmt.Errorf("identity column %q: %w", name, errs.ErrMissingColumn)
			}
			idVals[i] = col
		}

		parts[0] = d.seed
		for row := range chunk.Len() {
			for i, col := range idVals {
				parts[1+i] = math.Float64bits(col[row])
			}
			pri := hash.Combine(parts...)

			switch {
			case rows.Len() < d.maxPoints:
				kept := keptRow{
					pri:    pri,
					seq:    rowSeq,
					floats: make([]float64, len(floats)),
					cats:   make([]int32, len(cats)),
				}
				for i, col := range floats {
					kept.floats[i] = col[row]
				}
				for i, col := range cats {
					kept.cats[i] = col.Codes[row]
				}
				heap.Push(&rows, kept)
			case pri < rows[0].pri || (pri == rows[0].pri && rowSeq < rows[0].seq):
				// Evict the worst row, reusing its slices.
				evicted := rows[0]
				evicted.pri = pri
				evicted.seq = rowSeq
				for i, col := range floats {
					evicted.floats[i] = col[row]
				}
				for i, col := range cats {
					evicted.cats[i] = col.Codes[row]
				}
				rows[0] = evicted
				heap.Fix(&rows, 0)
			}
			rowSeq++
		}
	}

	if schema == nil {
		return nil, nil, nil
	}

	// Restore the source's row order.
	slices.SortFunc(rows, func(a, b keptRow) int {
		return cmp.Compare(a.seq, b.seq)
	})

	return rows, schema, nil
}

// newSchema fixes the column layout from the first chunk and resolves the
// identity columns.
func (d *Decimator) newSchema(chunk *source.Chunk) (*chunkSchema, []string, error) {
	schema := &chunkSchema{
		floatCols: chunk.FloatNames(),
		catCols:   chunk.CatNames(),
	}
	schema.dicts = make([][]string, len(schema.catCols))

	idCols := d.cols
	if idCols == nil {
		idCols = schema.floatCols
	}
	if len(idCols) == 0 {
		return nil, nil, errors.New("source has no float columns to sample on")
	}

	return schema, idCols, nil
}

// snapshotDict keeps the larger of two dictionary snapshots.
func snapshotDict(have, next []string) []string {
	if len(next) > len(have) {
		return next
	}

	return have
}

func buildChunk(kept []keptRow, schema *chunkSchema) (*source.Chunk, error) {
	chunk := source.NewChunk(len(kept))

	for i, name := range schema.floatCols {
		values := make([]float64, len(kept))
		for r, row := range kept {
			values[r] = row.floats[i]
		}
		if err := chunk.SetFloat(name, values); err != nil {
			return nil, err
		}
	}
	for i, name := range schema.catCols {
		codes := make([]int32, len(kept))
		for r, row := range kept {
			codes[r] = row.cats[i]
		}
		col := source.CatColumn{Codes: codes, Dict: schema.dicts[i]}
		if err := chunk.SetCat(name, col); err != nil {
			return nil, err
		}
	}

	return chunk, nil
}
