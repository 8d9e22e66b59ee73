// Package server exposes a rendering pipeline over HTTP and websockets.
//
// The HTTP surface is small: /render returns a shaded PNG for a viewport,
// /aggregate returns the bare aggregate grid as gridfile bytes for clients
// that colormap on their own side, and /meta describes the dataset (data
// bounds, axis ticks, categories, color key, value range). The /live
// websocket carries the interactive loop: the client streams viewport
// events and the server answers each with a rendered frame, collapsing
// bursts so only the latest viewport is drawn.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/geom"
	"github.com/arloliu/dshade/render"
	"github.com/arloliu/dshade/shade"
	"github.com/arloliu/dshade/source"
)

// Server serves one dataset through one configured pipeline.
type Server struct {
	cfg       *Config
	logger    *slog.Logger
	dyn       *render.Dynamic
	dataVP    geom.Viewport
	baseShade []shade.Option
	closer    func()
}

// New builds the pipeline a config describes: source, renderer, cache. The
// context bounds startup work (connecting to the database, scanning data
// bounds). A nil logger falls back to slog.Default().
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if logger == nil {
		logger = slog.Default()
	}

	src, closer, err := buildSource(ctx, cfg.Dataset)
	if err != nil {
		return nil, fmt.Errorf("build source: %w", err)
	}

	shadeOpts, err := buildShadeOptions(cfg.Render)
	if err != nil {
		closer()
		return nil, err
	}

	rend, err := buildRenderer(src, cfg, shadeOpts)
	if err != nil {
		closer()
		return nil, fmt.Errorf("build renderer: %w", err)
	}

	dyn, err := render.NewDynamic(rend,
		render.WithCacheBytes(cfg.Cache.Bytes),
		render.WithQuantSteps(cfg.Cache.QuantSteps),
	)
	if err != nil {
		closer()
		return nil, fmt.Errorf("build cache: %w", err)
	}

	dataVP, err := source.Bounds(ctx, src, cfg.Dataset.XColumn, cfg.Dataset.YColumn)
	if err != nil {
		closer()
		return nil, fmt.Errorf("scan data bounds: %w", err)
	}
	dataVP = normalizeViewport(dataVP)

	logger.Info("dataset ready",
		"kind", cfg.Dataset.Kind,
		"x_column", cfg.Dataset.XColumn,
		"y_column", cfg.Dataset.YColumn,
		"bounds", dataVP,
	)

	return &Server{
		cfg:       cfg,
		logger:    logger,
		dyn:       dyn,
		dataVP:    dataVP,
		baseShade: shadeOpts,
		closer:    closer,
	}, nil
}

// Close releases the resources behind the data source.
func (s *Server) Close() {
	if s.closer != nil {
		s.closer()
	}
}

// DataViewport returns the viewport covering the whole dataset, used when a
// request carries no explicit viewport.
func (s *Server) DataViewport() geom.Viewport {
	return s.dataVP
}

// Handler returns the HTTP handler serving all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/render", s.handleRender)
	mux.HandleFunc("/aggregate", s.handleAggregate)
	mux.HandleFunc("/meta", s.handleMeta)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/healthz", s.handleHealthz)

	return mux
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Server.Listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// buildSource constructs the configured data source and a release func for
// whatever sits behind it.
func buildSource(ctx context.Context, cfg DatasetConfig) (source.Source, func(), error) {
	noop := func() {}

	switch cfg.Kind {
	case "synthetic":
		syn := cfg.Synthetic
		switch syn.Generator {
		case "blobs":
			return source.Blobs(syn.Seed, syn.Points, syn.Clusters), noop, nil
		case "walk":
			return source.RandomWalk(syn.Seed, syn.Points), noop, nil
		case "walks":
			steps := syn.Points / max(syn.Walks, 1)
			return source.RandomWalks(syn.Seed, syn.Walks, steps), noop, nil
		case "signal":
			// Columns are t and v; set x_column/y_column to match.
			return source.Signal(syn.Seed, syn.Points), noop, nil
		default:
			return nil, nil, fmt.Errorf("unknown synthetic generator %q", syn.Generator)
		}
	case "csv":
		return source.NewCSVFile(cfg.CSV.Path, cfg.CSV.FloatColumns, cfg.CSV.CatColumns), noop, nil
	case "postgres":
		pool, err := source.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		q := source.NewPostgresQuery(pool, cfg.Postgres.Query, cfg.Postgres.FloatColumns, cfg.Postgres.CatColumns)

		return q, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown dataset kind %q", cfg.Kind)
	}
}

// buildShadeOptions translates the render config into shade options. These
// are also the base a per-request style override starts from.
func buildShadeOptions(cfg RenderConfig) ([]shade.Option, error) {
	cmap, err := shade.ColormapByName(cfg.Colormap)
	if err != nil {
		return nil, err
	}
	how, err := shade.ParseHow(cfg.How)
	if err != nil {
		return nil, err
	}

	opts := []shade.Option{
		shade.WithColormap(cmap),
		shade.WithHow(how),
	}
	if len(cfg.ColorKey) > 0 {
		key, err := shade.NewColorKey(cfg.ColorKey...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, shade.WithColorKey(key))
	}

	return opts, nil
}

func buildRenderer(src source.Source, cfg *Config, shadeOpts []shade.Option) (*render.Renderer, error) {
	red, err := buildReduction(cfg.Render)
	if err != nil {
		return nil, err
	}
	glyph, err := render.ParseGlyph(cfg.Render.Glyph)
	if err != nil {
		return nil, err
	}

	opts := []render.Option{
		render.WithReduction(red),
		render.WithGlyph(glyph),
		render.WithShadeOptions(shadeOpts...),
	}
	switch {
	case cfg.Render.SpreadPx > 0:
		opts = append(opts, render.WithSpread(cfg.Render.SpreadPx))
	case cfg.Render.DynspreadThreshold > 0:
		opts = append(opts, render.WithDynspread(cfg.Render.DynspreadThreshold, cfg.Render.DynspreadMaxPx))
	}
	if cfg.Render.MaxPoints > 0 {
		opts = append(opts, render.WithMaxPoints(cfg.Render.MaxPoints))
	}
	if cfg.Render.XLog {
		opts = append(opts, render.WithXLog())
	}
	if cfg.Render.YLog {
		opts = append(opts, render.WithYLog())
	}

	return render.New(src, cfg.Dataset.XColumn, cfg.Dataset.YColumn, opts...)
}

func buildReduction(cfg RenderConfig) (agg.Reduction, error) {
	switch cfg.Reduction {
	case "count":
		return agg.Count(), nil
	case "any":
		return agg.Any(), nil
	case "sum":
		return agg.Sum(cfg.ValueColumn), nil
	case "mean":
		return agg.Mean(cfg.ValueColumn), nil
	case "min":
		return agg.Min(cfg.ValueColumn), nil
	case "max":
		return agg.Max(cfg.ValueColumn), nil
	case "std":
		return agg.Std(cfg.ValueColumn), nil
	case "var":
		return agg.Var(cfg.ValueColumn), nil
	case "first":
		return agg.First(cfg.ValueColumn), nil
	case "last":
		return agg.Last(cfg.ValueColumn), nil
	case "count_cat":
		return agg.CountCat(cfg.CatColumn), nil
	default:
		return nil, fmt.Errorf("unknown reduction %q", cfg.Reduction)
	}
}

// normalizeViewport turns degenerate data bounds into something a canvas
// accepts: constant columns get a unit pad, empty data a unit square.
func normalizeViewport(vp geom.Viewport) geom.Viewport {
	return geom.Viewport{
		X: normalizeRange(vp.X),
		Y: normalizeRange(vp.Y),
	}
}

func normalizeRange(r geom.Range) geom.Range {
	if r.IsValid() {
		return r
	}
	if r.Min == r.Max && !math.IsNaN(r.Min) && !math.IsInf(r.Min, 0) {
		return geom.NewRange(r.Min-0.5, r.Max+0.5)
	}

	return geom.NewRange(0, 1)
}
