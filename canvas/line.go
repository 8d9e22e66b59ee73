package canvas

import (
	"context"
	"fmt"
	"math"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/source"
)

// Line rasterizes the rows of a source as a connected polyline, cell by
// cell, aggregating every cell a segment crosses.
//
// Consecutive rows are joined by a segment; a NaN coordinate lifts the pen,
// breaking the polyline, and the next finite row starts a new run. Cells
// shared by adjacent segments are aggregated once, so a long connected line
// contributes one row per crossed cell, matching the point semantics of the
// reduction. Segment cells carry the value and category of the segment's
// ending row.
//
// Unlike Points, Line always processes chunks sequentially: the polyline
// continues across chunk boundaries.
func (c *Canvas) Line(ctx context.Context, src source.Source, xcol, ycol string, red agg.Reduction) (*agg.Grid, error) {
	if red == nil {
		red = agg.Count()
	}

	lr := lineRasterizer{
		canvas:   c,
		state:    red.NewState(c.width, c.height),
		red:      red,
		lastCell: -1,
		penDown:  false,
	}

	for chunk, err := range src.Chunks(ctx) {
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		if err := lr.addChunk(chunk, xcol, ycol); err != nil {
			return nil, err
		}
	}

	return lr.state.Finalize(c.xRange, c.yRange), nil
}

// lineRasterizer carries the pen state across chunks.
type lineRasterizer struct {
	canvas *Canvas
	state  agg.State
	red    agg.Reduction

	penDown  bool
	prevX    float64 // continuous cell coordinates of the previous vertex
	prevY    float64
	lastCell int // last aggregated cell, -1 when none
}

func (lr *lineRasterizer) addChunk(chunk *source.Chunk, xcol, ycol string) error {
	cols, err := resolveColumns(lr.state, chunk, xcol, ycol, lr.red)
	if err != nil {
		return err
	}

	for i := range chunk.Len() {
		px := lr.canvas.xAxis.pos(cols.xs[i])
		py := lr.canvas.yAxis.pos(cols.ys[i])
		if math.IsNaN(px) || math.IsNaN(py) {
			lr.penDown = false
			continue
		}

		if !lr.penDown {
			lr.penDown = true
			lr.prevX, lr.prevY = px, py
			continue
		}

		value := 0.0
		if cols.values != nil {
			value = cols.values[i]
			if math.IsNaN(value) {
				// A NaN value drops the segment but keeps the pen down.
				lr.prevX, lr.prevY = px, py
				continue
			}
		}

		cat := int32(-1)
		if cols.codes != nil {
			cat = cols.codes[i]
		}

		lr.drawSegment(lr.prevX, lr.prevY, px, py, value, cat)
		lr.prevX, lr.prevY = px, py
	}

	return nil
}

func (lr *lineRasterizer) drawSegment(x0, y0, x1, y1, value float64, cat int32) {
	w := float64(lr.canvas.width)
	h := float64(lr.canvas.height)

	cx0, cy0, cx1, cy1, visible := clipSegment(x0, y0, x1, y1, w, h)
	if !visible {
		return
	}

	lr.plotLine(
		cellIndex(cx0, lr.canvas.width), cellIndex(cy0, lr.canvas.height),
		cellIndex(cx1, lr.canvas.width), cellIndex(cy1, lr.canvas.height),
		value, cat,
	)
}

// plotLine walks the integer cells between two endpoints with Bresenham's
// algorithm, aggregating each cell. A cell equal to the last aggregated one
// is skipped, which deduplicates the joint shared by adjacent segments.
func (lr *lineRasterizer) plotLine(x0, y0, x1, y1 int, value float64, cat int32) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		cell := y0*lr.canvas.width + x0
		if cell != lr.lastCell {
			lr.state.Accumulate(cell, value, cat)
			lr.lastCell = cell
		}

		if x0 == x1 && y0 == y1 {
			return
		}

		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// clipSegment clips a segment to the rectangle [0, xmax] x [0, ymax] with
// the Liang-Barsky parametric test. It returns the clipped endpoints and
// whether any part of the segment is visible.
func clipSegment(x0, y0, x1, y1, xmax, ymax float64) (fx0, fy0, fx1, fy1 float64, visible bool) {
	t0, t1 := 0.0, 1.0
	dx := x1 - x0
	dy := y1 - y0

	// Edge order: left, right, bottom, top.
	edges := [4][2]float64{
		{-dx, x0},
		{dx, xmax - x0},
		{-dy, y0},
		{dy, ymax - y0},
	}

	for _, edge := range edges {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}

		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}

	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

// cellIndex converts a continuous cell coordinate in [0, bins] to an
// integer cell, folding the top edge into the last cell.
func cellIndex(pos float64, bins int) int {
	i := int(pos)
	if i >= bins {
		i = bins - 1
	}
	if i < 0 {
		i = 0
	}

	return i
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
