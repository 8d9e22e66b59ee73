package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
	"github.com/arloliu/dshade/gridfile"
	"github.com/arloliu/dshade/internal/pool"
	"github.com/arloliu/dshade/shade"
)

// maxRenderDim caps requested output dimensions.
const maxRenderDim = 4096

// defaultMaxTicks bounds the number of major axis ticks reported by /meta.
const defaultMaxTicks = 8

type viewportJSON struct {
	X0 float64 `json:"x0"`
	X1 float64 `json:"x1"`
	Y0 float64 `json:"y0"`
	Y1 float64 `json:"y1"`
}

func newViewportJSON(vp geom.Viewport) viewportJSON {
	return viewportJSON{X0: vp.X.Min, X1: vp.X.Max, Y0: vp.Y.Min, Y1: vp.Y.Max}
}

type rangeJSON struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type metaResponse struct {
	Dataset    string       `json:"dataset"`
	XColumn    string       `json:"x_column"`
	YColumn    string       `json:"y_column"`
	Reduction  string       `json:"reduction"`
	Glyph      string       `json:"glyph"`
	Colormap   string       `json:"colormap"`
	How        string       `json:"how"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	DataBounds viewportJSON `json:"data_bounds"`
	Viewport   viewportJSON `json:"viewport"`
	XTicks     []float64    `json:"x_ticks"`
	YTicks     []float64    `json:"y_ticks"`
	ValueRange *rangeJSON   `json:"value_range,omitempty"`
	Categories []string     `json:"categories,omitempty"`
	ColorKey   []string     `json:"color_key,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.httpError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	q := r.URL.Query()
	vp, err := parseViewport(q, s.dataVP)
	if err != nil {
		s.httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	width, height, err := parseSize(q, s.cfg.Render.Width, s.cfg.Render.Height)
	if err != nil {
		s.httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	styleOpts, spreadPx, hasStyle, err := parseStyle(q)
	if err != nil {
		s.httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	var img *image.NRGBA
	if !hasStyle {
		img, err = s.dyn.Render(r.Context(), vp, width, height)
	} else {
		img, err = s.renderStyled(r, vp, width, height, styleOpts, spreadPx)
	}
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	buf := pool.GetImageBuffer()
	defer pool.PutImageBuffer(buf)
	if err := png.Encode(buf, img); err != nil {
		s.httpError(w, http.StatusInternalServerError, fmt.Sprintf("encode png: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// renderStyled re-shades the cached grid with per-request style overrides
// layered over the configured base.
func (s *Server) renderStyled(r *http.Request, vp geom.Viewport, width, height int, styleOpts []shade.Option, spreadPx int) (*image.NRGBA, error) {
	grid, err := s.dyn.Aggregate(r.Context(), vp, width, height)
	if err != nil {
		return nil, err
	}

	opts := make([]shade.Option, 0, len(s.baseShade)+len(styleOpts))
	opts = append(opts, s.baseShade...)
	opts = append(opts, styleOpts...)

	img, err := shade.Shade(grid, opts...)
	if err != nil {
		return nil, err
	}
	if spreadPx > 0 {
		return shade.Spread(img, spreadPx)
	}

	return img, nil
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.httpError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	q := r.URL.Query()
	vp, err := parseViewport(q, s.dataVP)
	if err != nil {
		s.httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	width, height, err := parseSize(q, s.cfg.Render.Width, s.cfg.Render.Height)
	if err != nil {
		s.httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	grid, err := s.dyn.Aggregate(r.Context(), vp, width, height)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	blob, err := gridfile.Encode(grid)
	if err != nil {
		s.httpError(w, http.StatusInternalServerError, fmt.Sprintf("encode grid: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	_, _ = w.Write(blob)
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.httpError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}

	q := r.URL.Query()
	vp, err := parseViewport(q, s.dataVP)
	if err != nil {
		s.httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	width, height, err := parseSize(q, s.cfg.Render.Width, s.cfg.Render.Height)
	if err != nil {
		s.httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	grid, err := s.dyn.Aggregate(r.Context(), vp, width, height)
	if err != nil {
		s.pipelineError(w, err)
		return
	}

	resp := metaResponse{
		Dataset:    s.datasetName(),
		XColumn:    s.cfg.Dataset.XColumn,
		YColumn:    s.cfg.Dataset.YColumn,
		Reduction:  s.dyn.Renderer().Reduction().Name(),
		Glyph:      s.cfg.Render.Glyph,
		Colormap:   s.cfg.Render.Colormap,
		How:        s.cfg.Render.How,
		Width:      s.cfg.Render.Width,
		Height:     s.cfg.Render.Height,
		DataBounds: newViewportJSON(s.dataVP),
		// The rendered ranges come from the grid, which carries the
		// snapped viewport.
		Viewport: newViewportJSON(geom.Viewport{X: grid.X, Y: grid.Y}),
		XTicks:   axisTicks(grid.X, defaultMaxTicks),
		YTicks:   axisTicks(grid.Y, defaultMaxTicks),
	}
	if lo, hi, ok := gridValueRange(grid); ok {
		resp.ValueRange = &rangeJSON{Min: lo, Max: hi}
	}
	if grid.IsCategorical() {
		resp.Categories = grid.Cats
		resp.ColorKey = s.colorKeyHex(grid.NumCats())
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"cached_bytes": s.dyn.CachedBytes(),
	})
}

func (s *Server) datasetName() string {
	if s.cfg.Dataset.Name != "" {
		return s.cfg.Dataset.Name
	}

	return s.cfg.Dataset.Kind
}

// colorKeyHex reports the categorical color key as #rrggbb strings.
func (s *Server) colorKeyHex(n int) []string {
	var key shade.ColorKey
	if len(s.cfg.Render.ColorKey) > 0 {
		key, _ = shade.NewColorKey(s.cfg.Render.ColorKey...)
	}
	if len(key) < n {
		key = shade.DefaultColorKey(n)
	}

	out := make([]string, n)
	for i := range n {
		out[i] = hexColor(key[i])
	}

	return out
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// gridValueRange returns the finite value range of a grid: cell values for
// scalar grids, per-cell totals for categorical ones.
func gridValueRange(grid *agg.Grid) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)

	update := func(v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		ok = true
	}

	if !grid.IsCategorical() {
		for _, v := range grid.Data {
			update(v)
		}

		return lo, hi, ok
	}

	cells := grid.NumCells()
	for i := range cells {
		total := math.NaN()
		for c := range grid.NumCats() {
			v := grid.Data[c*cells+i]
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(total) {
				total = v
			} else {
				total += v
			}
		}
		update(total)
	}

	return lo, hi, ok
}

func parseViewport(q url.Values, fallback geom.Viewport) (geom.Viewport, error) {
	keys := [4]string{"x0", "x1", "y0", "y1"}
	present := 0
	for _, k := range keys {
		if q.Has(k) {
			present++
		}
	}
	if present == 0 {
		return fallback, nil
	}
	if present < len(keys) {
		return geom.Viewport{}, errors.New("viewport needs all of x0, x1, y0, y1")
	}

	var vals [4]float64
	for i, k := range keys {
		v, err := strconv.ParseFloat(q.Get(k), 64)
		if err != nil {
			return geom.Viewport{}, fmt.Errorf("parse %s: %w", k, err)
		}
		vals[i] = v
	}

	return geom.NewViewport(vals[0], vals[1], vals[2], vals[3]), nil
}

func parseSize(q url.Values, defWidth, defHeight int) (width, height int, err error) {
	width, err = parseDim(q, "width", defWidth)
	if err != nil {
		return 0, 0, err
	}
	height, err = parseDim(q, "height", defHeight)
	if err != nil {
		return 0, 0, err
	}

	return width, height, nil
}

func parseDim(q url.Values, key string, def int) (int, error) {
	if !q.Has(key) {
		return def, nil
	}
	v, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if v < 1 || v > maxRenderDim {
		return 0, fmt.Errorf("%s %d out of range [1, %d]", key, v, maxRenderDim)
	}

	return v, nil
}

// parseStyle extracts per-request shading overrides. spreadPx is -1 when
// the request does not override spreading.
func parseStyle(q url.Values) (opts []shade.Option, spreadPx int, hasStyle bool, err error) {
	spreadPx = -1

	if name := q.Get("cmap"); name != "" {
		cmap, err := shade.ColormapByName(name)
		if err != nil {
			return nil, 0, false, err
		}
		opts = append(opts, shade.WithColormap(cmap))
	}
	if name := q.Get("how"); name != "" {
		how, err := shade.ParseHow(name)
		if err != nil {
			return nil, 0, false, err
		}
		opts = append(opts, shade.WithHow(how))
	}
	if q.Has("spread_px") {
		px, err := strconv.Atoi(q.Get("spread_px"))
		if err != nil {
			return nil, 0, false, fmt.Errorf("parse spread_px: %w", err)
		}
		if px < 0 {
			return nil, 0, false, fmt.Errorf("spread_px %d must be >= 0", px)
		}
		spreadPx = px
	}

	return opts, spreadPx, len(opts) > 0 || spreadPx >= 0, nil
}

// pipelineError maps render pipeline failures to status codes: viewport
// and size problems are the client's, everything else is ours.
func (s *Server) pipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidRange), errors.Is(err, errs.ErrInvalidCanvasSize):
		s.httpError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("render failed", "error", err)
		s.httpError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) httpError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "error", err)
	}
}
