package sizing

import (
	"github.com/arloliu/dshade/format"
	"github.com/arloliu/dshade/internal/options"
)

// AnalyzeConfig holds the gridfile settings used when measuring grids.
//
// The fitted curve is only valid for the encoding and compression it was
// measured with; re-run the analysis after changing either.
type AnalyzeConfig struct {
	Encoding    format.EncodingType
	Compression format.CompressionType
}

// defaultAnalyzeConfig returns the default config, matching the gridfile
// encoder defaults (XOR cells, Zstd payload compression).
func defaultAnalyzeConfig() AnalyzeConfig {
	return AnalyzeConfig{
		Encoding:    format.TypeXOR,
		Compression: format.CompressionZstd,
	}
}

// AnalyzeOption is a functional option for AnalyzeConfig.
type AnalyzeOption = options.Option[*AnalyzeConfig]

// WithEncoding sets the cell encoding used for measurement.
func WithEncoding(enc format.EncodingType) AnalyzeOption {
	return options.NoError(func(cfg *AnalyzeConfig) {
		cfg.Encoding = enc
	})
}

// WithCompression sets the payload compression used for measurement.
func WithCompression(comp format.CompressionType) AnalyzeOption {
	return options.NoError(func(cfg *AnalyzeConfig) {
		cfg.Compression = comp
	})
}
