package shade

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/aclements/go-moremath/stats"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
	"github.com/arloliu/dshade/internal/options"
	"github.com/arloliu/dshade/internal/pool"
)

// How selects the normalization applied to aggregate values before
// colormapping.
type How uint8

const (
	// HowEqHist equalizes the value histogram, spending the full color range
	// on the distribution actually present. This is the default; it reveals
	// structure across many orders of magnitude without tuning.
	HowEqHist How = iota
	// HowLinear maps the span linearly onto [0, 1].
	HowLinear
	// HowLog maps log1p of the span-shifted value onto [0, 1].
	HowLog
	// HowCbrt maps the cube root of the span-shifted value onto [0, 1].
	HowCbrt
)

var howNames = map[How]string{
	HowEqHist: "eq_hist",
	HowLinear: "linear",
	HowLog:    "log",
	HowCbrt:   "cbrt",
}

// String returns the normalization name.
func (h How) String() string {
	if name, ok := howNames[h]; ok {
		return name
	}

	return "unknown"
}

func (h How) valid() bool {
	_, ok := howNames[h]
	return ok
}

// ParseHow returns the normalization for a config name.
func ParseHow(s string) (How, error) {
	switch s {
	case "eq_hist", "eqhist":
		return HowEqHist, nil
	case "linear":
		return HowLinear, nil
	case "log":
		return HowLog, nil
	case "cbrt":
		return HowCbrt, nil
	default:
		return 0, fmt.Errorf("unknown normalization %q", s)
	}
}

const (
	// DefaultAlpha is the alpha assigned to the densest cells.
	DefaultAlpha = 255
	// DefaultMinAlpha is the alpha assigned to the sparsest non-empty cells,
	// keeping single points visible against the background.
	DefaultMinAlpha = 40

	// eqHistBins is the histogram resolution for HowEqHist.
	eqHistBins = 65536

	// lutSize is the quantization of the colormap lookup table. Aggregates
	// are mapped through a precomputed table instead of interpolating the
	// gradient per cell.
	lutSize = 256
)

type shadeConfig struct {
	cmap      Colormap
	how       How
	span      geom.Range
	hasSpan   bool
	clipLo    float64
	clipHi    float64
	hasClip   bool
	alpha     uint8
	minAlpha  uint8
	colorKey  ColorKey
	zeroEmpty bool
}

func defaultShadeConfig() shadeConfig {
	return shadeConfig{
		cmap:      builtinColormaps["fire"],
		how:       HowEqHist,
		alpha:     DefaultAlpha,
		minAlpha:  DefaultMinAlpha,
		zeroEmpty: true,
	}
}

// Option configures a Shade call.
type Option = options.Option[*shadeConfig]

// WithColormap sets the colormap for scalar grids.
func WithColormap(cm Colormap) Option {
	return options.New(func(cfg *shadeConfig) error {
		if cm == nil {
			return fmt.Errorf("nil colormap: %w", errs.ErrEmptyColormap)
		}
		cfg.cmap = cm

		return nil
	})
}

// WithHow sets the value normalization.
func WithHow(how How) Option {
	return options.New(func(cfg *shadeConfig) error {
		if !how.valid() {
			return fmt.Errorf("invalid normalization: %v", how)
		}
		cfg.how = how

		return nil
	})
}

// WithSpan fixes the value span mapped onto the colormap instead of deriving
// it from the data. Values outside the span clip to the ramp ends.
//
// HowEqHist derives its mapping from the value distribution and ignores the
// span.
func WithSpan(lo, hi float64) Option {
	return options.New(func(cfg *shadeConfig) error {
		r := geom.NewRange(lo, hi)
		if !r.IsValid() {
			return fmt.Errorf("span [%g, %g]: %w", lo, hi, errs.ErrInvalidSpan)
		}
		cfg.span = r
		cfg.hasSpan = true

		return nil
	})
}

// WithClipPercentiles derives the span from sample quantiles of the non-empty
// cells instead of the raw min and max, making the ramp robust to outliers.
// Both bounds are fractions in [0, 1].
//
// Ignored when a fixed span is set, and by HowEqHist.
func WithClipPercentiles(lo, hi float64) Option {
	return options.New(func(cfg *shadeConfig) error {
		if lo < 0 || hi > 1 || lo >= hi {
			return fmt.Errorf("clip percentiles [%g, %g]: %w", lo, hi, errs.ErrInvalidSpan)
		}
		cfg.clipLo = lo
		cfg.clipHi = hi
		cfg.hasClip = true

		return nil
	})
}

// WithAlpha sets the alpha assigned to the top of the ramp.
func WithAlpha(alpha uint8) Option {
	return options.NoError(func(cfg *shadeConfig) {
		cfg.alpha = alpha
	})
}

// WithMinAlpha sets the alpha assigned to the bottom of the ramp.
func WithMinAlpha(alpha uint8) Option {
	return options.NoError(func(cfg *shadeConfig) {
		cfg.minAlpha = alpha
	})
}

// WithColorKey sets the category colors for categorical grids, in category
// code order. The key must cover every category of the shaded grid.
func WithColorKey(key ColorKey) Option {
	return options.New(func(cfg *shadeConfig) error {
		if len(key) == 0 {
			return fmt.Errorf("empty color key: %w", errs.ErrInvalidColorKey)
		}
		cfg.colorKey = key

		return nil
	})
}

// WithZeroVisible renders zero-valued cells as data instead of treating them
// as empty. Count-like aggregates leave empty cells at zero, so zeros hide by
// default; value aggregates mark empty cells NaN and may hold real zeros.
func WithZeroVisible() Option {
	return options.NoError(func(cfg *shadeConfig) {
		cfg.zeroEmpty = false
	})
}

// Shade colormaps an aggregate grid into an RGBA image.
//
// Empty cells (NaN, and zero unless WithZeroVisible is set) are fully
// transparent. Non-empty cells are normalized to [0, 1] by the configured How
// and mapped through the colormap, with alpha ramping from the minimum alpha
// at the bottom of the range to the maximum at the top.
//
// Categorical grids are colored by mixing the color key weighted with the
// per-category cell values, with alpha driven by the cell total.
//
// Grid row 0 covers the minimum of the Y range, so rows are flipped into
// image space.
//
// Defaults: fire colormap, eq_hist normalization, alpha ramp 40..255.
//
// Example:
//
//	img, err := shade.Shade(grid,
//	    shade.WithColormap(cm),
//	    shade.WithHow(shade.HowLog),
//	)
func Shade(grid *agg.Grid, opts ...Option) (*image.NRGBA, error) {
	if grid == nil {
		return nil, fmt.Errorf("shade nil grid")
	}

	cfg := defaultShadeConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.minAlpha > cfg.alpha {
		return nil, fmt.Errorf("min alpha %d exceeds alpha %d", cfg.minAlpha, cfg.alpha)
	}

	if grid.IsCategorical() {
		return shadeCategorical(grid, &cfg)
	}

	return shadeScalar(grid, &cfg)
}

func shadeScalar(grid *agg.Grid, cfg *shadeConfig) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, grid.Width, grid.Height))

	scratch, release := pool.GetFloat64Slice(len(grid.Data))
	defer release()

	vals := collectFinite(scratch[:0], grid.Data, cfg.zeroEmpty)
	if len(vals) == 0 {
		return img, nil
	}

	norm, err := newNormalizer(vals, cfg)
	if err != nil {
		return nil, err
	}
	lut := buildColorLUT(cfg.cmap, cfg.minAlpha, cfg.alpha)

	for iy := range grid.Height {
		row := img.Pix[(grid.Height-1-iy)*img.Stride:]
		cells := grid.Data[iy*grid.Width : (iy+1)*grid.Width]
		for ix, v := range cells {
			if cellEmpty(v, cfg.zeroEmpty) {
				continue
			}
			c := lut[lutIndex(norm(v))]
			o := ix * 4
			row[o] = c.R
			row[o+1] = c.G
			row[o+2] = c.B
			row[o+3] = c.A
		}
	}

	return img, nil
}

func shadeCategorical(grid *agg.Grid, cfg *shadeConfig) (*image.NRGBA, error) {
	key := cfg.colorKey
	if key == nil {
		key = DefaultColorKey(grid.NumCats())
	}
	if len(key) < grid.NumCats() {
		return nil, fmt.Errorf("%d colors for %d categories: %w",
			len(key), grid.NumCats(), errs.ErrInvalidColorKey)
	}

	img := image.NewNRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	if grid.NumCats() == 0 {
		return img, nil
	}

	// NaN-skipping totals drive the alpha ramp.
	n := grid.NumCells()
	totals, releaseTotals := pool.GetFloat64Slice(n)
	defer releaseTotals()
	for i := range totals {
		totals[i] = math.NaN()
	}
	for c := range grid.NumCats() {
		for i, v := range grid.Plane(c) {
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(totals[i]) {
				totals[i] = v
			} else {
				totals[i] += v
			}
		}
	}

	scratch, release := pool.GetFloat64Slice(n)
	defer release()

	vals := collectFinite(scratch[:0], totals, cfg.zeroEmpty)
	if len(vals) == 0 {
		return img, nil
	}

	norm, err := newNormalizer(vals, cfg)
	if err != nil {
		return nil, err
	}

	for iy := range grid.Height {
		row := img.Pix[(grid.Height-1-iy)*img.Stride:]
		for ix := range grid.Width {
			i := iy*grid.Width + ix
			if cellEmpty(totals[i], cfg.zeroEmpty) {
				continue
			}

			// Mix category colors weighted by their cell values. Key alpha
			// is ignored; the ramp owns the alpha channel.
			var r, g, b, wsum float64
			for c := range grid.NumCats() {
				w := grid.Data[c*n+i]
				if math.IsNaN(w) || w <= 0 {
					continue
				}
				kc := key[c]
				r += w * float64(kc.R)
				g += w * float64(kc.G)
				b += w * float64(kc.B)
				wsum += w
			}
			if wsum <= 0 {
				continue
			}

			o := ix * 4
			row[o] = uint8(r/wsum + 0.5)
			row[o+1] = uint8(g/wsum + 0.5)
			row[o+2] = uint8(b/wsum + 0.5)
			row[o+3] = rampAlpha(norm(totals[i]), cfg.minAlpha, cfg.alpha)
		}
	}

	return img, nil
}

// cellEmpty reports whether a cell holds no data.
func cellEmpty(v float64, zeroEmpty bool) bool {
	return math.IsNaN(v) || (zeroEmpty && v == 0)
}

// collectFinite appends the finite non-empty values that define the
// normalization to dst. dst must have capacity for len(data) values so
// pooled scratch is not reallocated out from under its release func.
func collectFinite(dst, data []float64, zeroEmpty bool) []float64 {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if zeroEmpty && v == 0 {
			continue
		}
		dst = append(dst, v)
	}

	return dst
}

// newNormalizer builds the value-to-[0,1] mapping for the configured How.
// vals must be non-empty; it may be reordered in place.
func newNormalizer(vals []float64, cfg *shadeConfig) (func(float64) float64, error) {
	if cfg.how == HowEqHist {
		return eqHistNormalizer(vals), nil
	}

	var lo, hi float64
	switch {
	case cfg.hasSpan:
		lo, hi = cfg.span.Min, cfg.span.Max
	case cfg.hasClip:
		s := stats.Sample{Xs: vals}
		s.Sort()
		lo, hi = s.Quantile(cfg.clipLo), s.Quantile(cfg.clipHi)
	default:
		lo, hi = minMax(vals)
	}

	if !(hi > lo) {
		// Degenerate span: every non-empty cell shades to the top of the ramp.
		return topOfRamp, nil
	}

	switch cfg.how {
	case HowLinear:
		denom := hi - lo
		return func(v float64) float64 {
			return clip01((v - lo) / denom)
		}, nil
	case HowLog:
		denom := math.Log1p(hi - lo)
		return func(v float64) float64 {
			if v <= lo {
				return 0
			}
			return clip01(math.Log1p(v-lo) / denom)
		}, nil
	case HowCbrt:
		denom := math.Cbrt(hi - lo)
		return func(v float64) float64 {
			if v <= lo {
				return 0
			}
			return clip01(math.Cbrt(v-lo) / denom)
		}, nil
	default:
		return nil, fmt.Errorf("invalid normalization: %v", cfg.how)
	}
}

// eqHistNormalizer maps values through the cumulative histogram of the data,
// so equal pixel counts land in equal color ranges.
func eqHistNormalizer(vals []float64) func(float64) float64 {
	lo, hi := minMax(vals)
	if !(hi > lo) {
		return topOfRamp
	}

	scale := float64(eqHistBins) / (hi - lo)
	cdf := make([]float64, eqHistBins)
	for _, v := range vals {
		b := int((v - lo) * scale)
		if b >= eqHistBins {
			b = eqHistBins - 1
		}
		cdf[b]++
	}
	sum := 0.0
	for i, h := range cdf {
		sum += h
		cdf[i] = sum
	}
	total := sum

	return func(v float64) float64 {
		f := (v - lo) * scale
		if !(f > 0) {
			f = 0
		} else if f >= eqHistBins {
			f = eqHistBins - 1
		}

		return cdf[int(f)] / total
	}
}

func topOfRamp(float64) float64 { return 1 }

func minMax(vals []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	return lo, hi
}

func clip01(t float64) float64 {
	if !(t > 0) {
		return 0
	}
	if t > 1 {
		return 1
	}

	return t
}

// buildColorLUT quantizes the colormap and alpha ramp into a lookup table.
func buildColorLUT(cm Colormap, minAlpha, alpha uint8) []color.NRGBA {
	lut := make([]color.NRGBA, lutSize)
	for i := range lut {
		t := float64(i) / (lutSize - 1)
		c := color.NRGBAModel.Convert(cm.Map(t)).(color.NRGBA)
		c.A = rampAlpha(t, minAlpha, alpha)
		lut[i] = c
	}

	return lut
}

func lutIndex(t float64) int {
	i := int(t*(lutSize-1) + 0.5)
	if i < 0 {
		return 0
	}
	if i >= lutSize {
		return lutSize - 1
	}

	return i
}

func rampAlpha(t float64, minAlpha, alpha uint8) uint8 {
	return uint8(math.Round(float64(minAlpha) + t*float64(alpha-minAlpha)))
}
