package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/dshade/render"
	"github.com/arloliu/dshade/shade"
)

// Config is the root configuration for a dshade server instance.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Dataset DatasetConfig `yaml:"dataset"`
	Render  RenderConfig  `yaml:"render"`
	Cache   CacheConfig   `yaml:"cache"`
}

// ServerConfig holds the HTTP listener and websocket keepalive settings.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	PongTimeout     time.Duration `yaml:"pong_timeout"`
}

// DatasetConfig selects and describes the data source.
type DatasetConfig struct {
	// Kind is one of "synthetic", "csv" or "postgres".
	Kind    string `yaml:"kind"`
	Name    string `yaml:"name"`
	XColumn string `yaml:"x_column"`
	YColumn string `yaml:"y_column"`

	Synthetic SyntheticConfig `yaml:"synthetic"`
	CSV       CSVConfig       `yaml:"csv"`
	Postgres  PostgresConfig  `yaml:"postgres"`
}

// SyntheticConfig configures the built-in generators.
type SyntheticConfig struct {
	// Generator is one of "blobs", "walk", "walks" or "signal".
	Generator string `yaml:"generator"`
	Points    int    `yaml:"points"`
	Clusters  int    `yaml:"clusters"`
	Walks     int    `yaml:"walks"`
	Seed      int64  `yaml:"seed"`
}

// CSVConfig configures a CSV-backed dataset.
type CSVConfig struct {
	Path         string   `yaml:"path"`
	FloatColumns []string `yaml:"float_columns"`
	CatColumns   []string `yaml:"cat_columns"`
}

// PostgresConfig configures a PostgreSQL-backed dataset. URL accepts any
// pgx connection string and usually arrives via ${DATABASE_URL}.
type PostgresConfig struct {
	URL          string   `yaml:"url"`
	Query        string   `yaml:"query"`
	FloatColumns []string `yaml:"float_columns"`
	CatColumns   []string `yaml:"cat_columns"`
}

// RenderConfig holds the default rendering pipeline settings.
type RenderConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Reduction is one of "count", "any", "sum", "mean", "min", "max",
	// "std", "var", "first", "last" or "count_cat".
	Reduction   string `yaml:"reduction"`
	ValueColumn string `yaml:"value_column"`
	CatColumn   string `yaml:"cat_column"`

	// Glyph is "points" or "line".
	Glyph string `yaml:"glyph"`

	Colormap string   `yaml:"colormap"`
	How      string   `yaml:"how"`
	ColorKey []string `yaml:"color_key"`

	SpreadPx           int     `yaml:"spread_px"`
	DynspreadThreshold float64 `yaml:"dynspread_threshold"`
	DynspreadMaxPx     int     `yaml:"dynspread_max_px"`

	MaxPoints int  `yaml:"max_points"`
	XLog      bool `yaml:"x_log"`
	YLog      bool `yaml:"y_log"`
}

// CacheConfig bounds the grid cache wrapped around the renderer.
type CacheConfig struct {
	Bytes      int64 `yaml:"bytes"`
	QuantSteps int   `yaml:"quant_steps"`
}

// Default values for optional configuration fields.
const (
	DefaultListen          = ":8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPingInterval    = 30 * time.Second
	DefaultPongTimeout     = 75 * time.Second
	DefaultDatasetKind     = "synthetic"
	DefaultGenerator       = "blobs"
	DefaultPoints          = 1_000_000
	DefaultClusters        = 5
	DefaultWalks           = 10
	DefaultXColumn         = "x"
	DefaultYColumn         = "y"
	DefaultWidth           = 600
	DefaultHeight          = 600
	DefaultReduction       = "count"
	DefaultGlyph           = "points"
	DefaultColormap        = "fire"
	DefaultHow             = "eq_hist"
	DefaultDynspreadMaxPx  = 3
)

// Load reads a YAML config file and expands ${VAR} environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a config with every default applied, serving the
// built-in synthetic dataset.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()

	return cfg
}

// ApplyDefaults fills unset fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.PingInterval == 0 {
		c.Server.PingInterval = DefaultPingInterval
	}
	if c.Server.PongTimeout == 0 {
		c.Server.PongTimeout = DefaultPongTimeout
	}

	if c.Dataset.Kind == "" {
		c.Dataset.Kind = DefaultDatasetKind
	}
	if c.Dataset.XColumn == "" {
		c.Dataset.XColumn = DefaultXColumn
	}
	if c.Dataset.YColumn == "" {
		c.Dataset.YColumn = DefaultYColumn
	}
	if c.Dataset.Synthetic.Generator == "" {
		c.Dataset.Synthetic.Generator = DefaultGenerator
	}
	if c.Dataset.Synthetic.Points == 0 {
		c.Dataset.Synthetic.Points = DefaultPoints
	}
	if c.Dataset.Synthetic.Clusters == 0 {
		c.Dataset.Synthetic.Clusters = DefaultClusters
	}
	if c.Dataset.Synthetic.Walks == 0 {
		c.Dataset.Synthetic.Walks = DefaultWalks
	}

	if c.Render.Width == 0 {
		c.Render.Width = DefaultWidth
	}
	if c.Render.Height == 0 {
		c.Render.Height = DefaultHeight
	}
	if c.Render.Reduction == "" {
		c.Render.Reduction = DefaultReduction
	}
	if c.Render.Glyph == "" {
		c.Render.Glyph = DefaultGlyph
	}
	if c.Render.Colormap == "" {
		c.Render.Colormap = DefaultColormap
	}
	if c.Render.How == "" {
		c.Render.How = DefaultHow
	}
	if c.Render.DynspreadMaxPx == 0 {
		c.Render.DynspreadMaxPx = DefaultDynspreadMaxPx
	}

	if c.Cache.Bytes == 0 {
		c.Cache.Bytes = render.DefaultCacheBytes
	}
	if c.Cache.QuantSteps == 0 {
		c.Cache.QuantSteps = render.DefaultQuantSteps
	}
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return errors.New("server.listen is required")
	}

	if err := c.Dataset.validate(); err != nil {
		return err
	}

	if err := c.Render.validate(); err != nil {
		return err
	}

	if c.Cache.Bytes < 0 {
		return errors.New("cache.bytes must be positive")
	}
	if c.Cache.QuantSteps < 1 {
		return errors.New("cache.quant_steps must be >= 1")
	}

	return nil
}

func (d *DatasetConfig) validate() error {
	switch d.Kind {
	case "synthetic":
		switch d.Synthetic.Generator {
		case "blobs", "walk", "walks", "signal":
		default:
			return fmt.Errorf("dataset.synthetic.generator %q is not one of blobs, walk, walks, signal", d.Synthetic.Generator)
		}
		if d.Synthetic.Points < 1 {
			return errors.New("dataset.synthetic.points must be >= 1")
		}
	case "csv":
		if d.CSV.Path == "" {
			return errors.New("dataset.csv.path is required")
		}
		if len(d.CSV.FloatColumns) == 0 {
			return errors.New("dataset.csv.float_columns is required")
		}
	case "postgres":
		if d.Postgres.URL == "" {
			return errors.New("dataset.postgres.url is required")
		}
		if d.Postgres.Query == "" {
			return errors.New("dataset.postgres.query is required")
		}
		if len(d.Postgres.FloatColumns) == 0 {
			return errors.New("dataset.postgres.float_columns is required")
		}
	default:
		return fmt.Errorf("dataset.kind %q is not one of synthetic, csv, postgres", d.Kind)
	}

	if d.XColumn == "" || d.YColumn == "" {
		return errors.New("dataset.x_column and dataset.y_column are required")
	}

	return nil
}

func (r *RenderConfig) validate() error {
	if r.Width < 1 || r.Height < 1 {
		return fmt.Errorf("render size %dx%d must be positive", r.Width, r.Height)
	}

	switch r.Reduction {
	case "count", "any":
	case "sum", "mean", "min", "max", "std", "var", "first", "last":
		if r.ValueColumn == "" {
			return fmt.Errorf("render.reduction %q requires render.value_column", r.Reduction)
		}
	case "count_cat":
		if r.CatColumn == "" {
			return errors.New(`render.reduction "count_cat" requires render.cat_column`)
		}
	default:
		return fmt.Errorf("render.reduction %q is not one of count, any, sum, mean, min, max, std, var, first, last, count_cat", r.Reduction)
	}

	if _, err := render.ParseGlyph(r.Glyph); err != nil {
		return fmt.Errorf("render.glyph: %w", err)
	}
	if _, err := shade.ColormapByName(r.Colormap); err != nil {
		return fmt.Errorf("render.colormap: %w", err)
	}
	if _, err := shade.ParseHow(r.How); err != nil {
		return fmt.Errorf("render.how: %w", err)
	}
	for _, hex := range r.ColorKey {
		if _, err := shade.ParseHexColor(hex); err != nil {
			return fmt.Errorf("render.color_key: %w", err)
		}
	}

	if r.SpreadPx < 0 {
		return errors.New("render.spread_px must be >= 0")
	}
	if r.DynspreadThreshold < 0 || r.DynspreadThreshold > 1 {
		return errors.New("render.dynspread_threshold must be in [0, 1]")
	}
	if r.SpreadPx > 0 && r.DynspreadThreshold > 0 {
		return errors.New("render.spread_px and render.dynspread_threshold are mutually exclusive")
	}
	if r.MaxPoints < 0 {
		return errors.New("render.max_points must be >= 0")
	}

	return nil
}
