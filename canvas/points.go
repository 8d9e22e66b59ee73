package canvas

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/source"
)

// Points rasterizes one point per row onto the canvas and aggregates the
// rows landing in each cell with the given reduction.
//
// Rows whose coordinates are NaN or fall outside the canvas ranges are
// dropped. When the reduction reads a value column, rows with a NaN value
// are dropped as well. A nil reduction defaults to agg.Count().
//
// Chunks are aggregated in parallel, one partial state per chunk, and the
// partial states are merged in chunk order so order sensitive reductions
// (agg.First, agg.Last) see rows in source order.
//
// Parameters:
//   - ctx: cancels the aggregation between chunks
//   - src: the data source to rasterize
//   - xcol, ycol: float columns holding point coordinates
//   - red: per-cell reduction, nil for agg.Count()
//
// Returns:
//   - *agg.Grid: the finalized aggregate grid
//   - error: source, column or merge failure
func (c *Canvas) Points(ctx context.Context, src source.Source, xcol, ycol string, red agg.Reduction) (*agg.Grid, error) {
	if red == nil {
		red = agg.Count()
	}

	workers := max(c.workers, 1)

	type result struct {
		idx   int
		state agg.State
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)
	results := make(chan result, workers)

	// The collector merges partial states strictly in chunk index order,
	// buffering the ones that arrive early.
	merged := red.NewState(c.width, c.height)
	var mergeErr error
	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		pending := make(map[int]agg.State, workers)
		next := 0
		for r := range results {
			if mergeErr != nil {
				continue // drain so workers never block
			}
			pending[r.idx] = r.state
			for {
				st, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := merged.Merge(st); err != nil {
					mergeErr = err
					break
				}
				next++
			}
		}
	}()

	var srcErr error
	idx := 0
	for chunk, err := range src.Chunks(gctx) {
		if err != nil {
			srcErr = err
			break
		}

		i := idx
		idx++
		grp.Go(func() error {
			st := red.NewState(c.width, c.height)
			if err := c.accumulatePoints(st, chunk, xcol, ycol, red); err != nil {
				return err
			}

			select {
			case results <- result{idx: i, state: st}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	workerErr := grp.Wait()
	close(results)
	<-collectDone

	// A worker failure cancels gctx and surfaces as a source error too, so
	// the worker error takes precedence.
	switch {
	case workerErr != nil:
		return nil, workerErr
	case srcErr != nil:
		return nil, fmt.Errorf("read source: %w", srcErr)
	case mergeErr != nil:
		return nil, mergeErr
	}

	return merged.Finalize(c.xRange, c.yRange), nil
}

// glyphColumns holds the resolved column slices a glyph needs from one
// chunk. values and codes are nil when the reduction does not use them.
type glyphColumns struct {
	xs     []float64
	ys     []float64
	values []float64
	codes  []int32
}

// resolveColumns pulls the coordinate, value and category columns out of a
// chunk and announces the chunk's category snapshot to the state.
func resolveColumns(st agg.State, chunk *source.Chunk, xcol, ycol string, red agg.Reduction) (glyphColumns, error) {
	var cols glyphColumns
	var ok bool

	if cols.xs, ok = chunk.Float(xcol); !ok {
		return cols, fmt.Errorf("x column %q: %w", xcol, errs.ErrMissingColumn)
	}
	if cols.ys, ok = chunk.Float(ycol); !ok {
		return cols, fmt.Errorf("y column %q: %w", ycol, errs.ErrMissingColumn)
	}

	if vcol := red.ValueColumn(); vcol != "" {
		if cols.values, ok = chunk.Float(vcol); !ok {
			return cols, fmt.Errorf("value column %q: %w", vcol, errs.ErrMissingColumn)
		}
	}

	if ccol := red.CatColumn(); ccol != "" {
		cat, ok := chunk.Cat(ccol)
		if !ok {
			return cols, fmt.Errorf("category column %q: %w", ccol, errs.ErrMissingColumn)
		}
		if err := st.SetCategories(cat.Dict); err != nil {
			return cols, err
		}
		cols.codes = cat.Codes
	}

	return cols, nil
}

func (c *Canvas) accumulatePoints(st agg.State, chunk *source.Chunk, xcol, ycol string, red agg.Reduction) error {
	cols, err := resolveColumns(st, chunk, xcol, ycol, red)
	if err != nil {
		return err
	}

	for i := range chunk.Len() {
		ix := c.xAxis.bin(cols.xs[i])
		if ix < 0 {
			continue
		}
		iy := c.yAxis.bin(cols.ys[i])
		if iy < 0 {
			continue
		}

		value := 0.0
		if cols.values != nil {
			value = cols.values[i]
			if math.IsNaN(value) {
				continue
			}
		}

		cat := int32(-1)
		if cols.codes != nil {
			cat = cols.codes[i]
		}

		st.Accumulate(iy*c.width+ix, value, cat)
	}

	return nil
}
