package render

import (
	"container/list"
	"context"
	"fmt"
	"image"
	"math"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/geom"
	"github.com/arloliu/dshade/internal/hash"
	"github.com/arloliu/dshade/internal/options"
)

const (
	// DefaultQuantSteps is the viewport snap resolution: pans smaller than
	// 1/DefaultQuantSteps of the visible span reuse the cached grid.
	DefaultQuantSteps = 128
	// DefaultCacheBytes is the default grid cache budget.
	DefaultCacheBytes = 256 << 20
)

// Dynamic wraps a Renderer with a viewport-keyed grid cache and request
// collapsing.
//
// Interactive pan and zoom produces bursts of near-identical viewports.
// Dynamic snaps each requested viewport onto a grid of 1/steps of its span,
// so consecutive events within one snap cell share a cache key; concurrent
// misses on the same key aggregate once (singleflight) and the results are
// kept in an LRU cache bounded by a byte budget. Shading is cheap relative
// to aggregation and runs per request, so callers can restyle a cached grid
// freely.
type Dynamic struct {
	renderer *Renderer
	steps    int
	maxBytes int64

	group singleflight.Group

	mu      sync.Mutex
	bytes   int64
	entries map[uint64]*list.Element
	order   *list.List
}

type dynEntry struct {
	key   uint64
	bytes int64
	grid  *agg.Grid
}

// DynamicOption configures a Dynamic.
type DynamicOption = options.Option[*Dynamic]

// WithQuantSteps overrides the viewport snap resolution. Higher values snap
// less aggressively: a pan must move at least 1/steps of the span to miss
// the cache.
func WithQuantSteps(steps int) DynamicOption {
	return options.New(func(d *Dynamic) error {
		if steps < 1 {
			return fmt.Errorf("quantization steps must be positive, got %d", steps)
		}
		d.steps = steps

		return nil
	})
}

// WithCacheBytes overrides the grid cache budget.
func WithCacheBytes(n int64) DynamicOption {
	return options.New(func(d *Dynamic) error {
		if n <= 0 {
			return fmt.Errorf("cache budget must be positive, got %d", n)
		}
		d.maxBytes = n

		return nil
	})
}

// NewDynamic wraps a renderer with caching and request collapsing.
func NewDynamic(r *Renderer, opts ...DynamicOption) (*Dynamic, error) {
	if r == nil {
		return nil, fmt.Errorf("nil renderer")
	}

	d := &Dynamic{
		renderer: r,
		steps:    DefaultQuantSteps,
		maxBytes: DefaultCacheBytes,
		entries:  make(map[uint64]*list.Element),
		order:    list.New(),
	}
	if err := options.Apply(d, opts...); err != nil {
		return nil, err
	}

	return d, nil
}

// Renderer returns the wrapped renderer.
func (d *Dynamic) Renderer() *Renderer { return d.renderer }

// Snap returns the viewport actually rendered for a requested one: each
// axis origin is aligned to a multiple of span/steps while the span is kept
// exact. Invalid ranges pass through unchanged and fail in the canvas with
// a range error.
func (d *Dynamic) Snap(vp geom.Viewport) geom.Viewport {
	return geom.Viewport{
		X: snapRange(vp.X, d.steps),
		Y: snapRange(vp.Y, d.steps),
	}
}

func snapRange(r geom.Range, steps int) geom.Range {
	span := r.Span()
	if !(span > 0) || math.IsInf(span, 0) {
		return r
	}
	q := span / float64(steps)
	lo := math.Floor(r.Min/q) * q

	return geom.Range{Min: lo, Max: lo + span}
}

// Render produces the shaded image for a viewport, aggregating through the
// cache and shading the grid per request.
func (d *Dynamic) Render(ctx context.Context, vp geom.Viewport, width, height int) (*image.NRGBA, error) {
	grid, err := d.aggregate(ctx, vp, width, height)
	if err != nil {
		return nil, err
	}

	return d.renderer.shadeGrid(grid)
}

// Aggregate returns the aggregate grid for a viewport through the cache.
// The returned grid is a copy the caller may modify.
func (d *Dynamic) Aggregate(ctx context.Context, vp geom.Viewport, width, height int) (*agg.Grid, error) {
	grid, err := d.aggregate(ctx, vp, width, height)
	if err != nil {
		return nil, err
	}

	return grid.Clone(), nil
}

// Purge drops every cached grid.
func (d *Dynamic) Purge() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.bytes = 0
	d.entries = make(map[uint64]*list.Element)
	d.order.Init()
}

// CachedBytes returns the current cache footprint.
func (d *Dynamic) CachedBytes() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.bytes
}

func (d *Dynamic) aggregate(ctx context.Context, vp geom.Viewport, width, height int) (*agg.Grid, error) {
	vp = d.Snap(vp)
	key := cacheKey(vp, width, height)

	if grid, ok := d.lookup(key); ok {
		return grid, nil
	}

	v, err, _ := d.group.Do(strconv.FormatUint(key, 16), func() (any, error) {
		// A previous flight may have filled the entry while we queued.
		if grid, ok := d.lookup(key); ok {
			return grid, nil
		}

		grid, err := d.renderer.Aggregate(ctx, vp, width, height)
		if err != nil {
			return nil, err
		}
		d.store(key, grid)

		return grid, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*agg.Grid), nil
}

func (d *Dynamic) lookup(key uint64) (*agg.Grid, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	elem, ok := d.entries[key]
	if !ok {
		return nil, false
	}
	d.order.MoveToFront(elem)

	return elem.Value.(*dynEntry).grid, true
}

func (d *Dynamic) store(key uint64, grid *agg.Grid) {
	size := int64(len(grid.Data)) * 8

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.entries[key]; exists {
		return
	}

	d.entries[key] = d.order.PushFront(&dynEntry{key: key, bytes: size, grid: grid})
	d.bytes += size

	// Evict oldest entries past the budget, always keeping the newest.
	for d.bytes > d.maxBytes && d.order.Len() > 1 {
		oldest := d.order.Back()
		entry := oldest.Value.(*dynEntry)
		d.order.Remove(oldest)
		delete(d.entries, entry.key)
		d.bytes -= entry.bytes
	}
}

func cacheKey(vp geom.Viewport, width, height int) uint64 {
	return hash.Combine(
		math.Float64bits(vp.X.Min), math.Float64bits(vp.X.Max),
		math.Float64bits(vp.Y.Min), math.Float64bits(vp.Y.Max),
		uint64(width), uint64(height),
	)
}
