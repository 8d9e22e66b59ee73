package gridfile

import (
	"fmt"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/compress"
	"github.com/arloliu/dshade/encoding"
	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/format"
	"github.com/arloliu/dshade/internal/catmap"
	"github.com/arloliu/dshade/internal/hash"
	"github.com/arloliu/dshade/internal/options"
)

// encodeConfig holds the encoding settings collected from Options.
type encodeConfig struct {
	flag Flag
}

// setCellEncoding sets the cell encoding type.
func (c *encodeConfig) setCellEncoding(enc format.EncodingType) error {
	switch enc {
	case format.TypeRaw, format.TypeXOR:
		c.flag.SetCellEncoding(enc)
	default:
		return fmt.Errorf("invalid cell encoding: %v", enc)
	}

	return nil
}

// setPayloadCompression sets the cell payload compression type.
func (c *encodeConfig) setPayloadCompression(comp format.CompressionType) error {
	switch comp {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
		c.flag.SetPayloadCompression(comp)
	default:
		return fmt.Errorf("invalid payload compression: %v", comp)
	}

	return nil
}

// setNameCompression sets the category name section compression type.
func (c *encodeConfig) setNameCompression(comp format.CompressionType) error {
	switch comp {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
		c.flag.SetNameCompression(comp)
	default:
		return fmt.Errorf("invalid name compression: %v", comp)
	}

	return nil
}

// Option represents a functional option for configuring gridfile encoding.
// This is a type alias for the generic Option interface specialized for the
// encoder configuration.
type Option = options.Option[*encodeConfig]

// WithLittleEndian sets the encoder to use little-endian byte order.
// It is the default option.
func WithLittleEndian() Option {
	return options.NoError(func(c *encodeConfig) {
		c.flag.WithLittleEndian()
	})
}

// WithBigEndian sets the encoder to use big-endian byte order.
// It rarely needs to be used unless interoperability with big-endian systems
// is required.
func WithBigEndian() Option {
	return options.NoError(func(c *encodeConfig) {
		c.flag.WithBigEndian()
	})
}

// WithEncoding sets the cell encoding type. The default is format.TypeXOR,
// which is compact on the sparse and smooth grids aggregation produces.
func WithEncoding(enc format.EncodingType) Option {
	return options.New(func(c *encodeConfig) error {
		return c.setCellEncoding(enc)
	})
}

// WithCompression sets the cell payload compression type.
// The default is format.CompressionZstd.
func WithCompression(comp format.CompressionType) Option {
	return options.New(func(c *encodeConfig) error {
		return c.setPayloadCompression(comp)
	})
}

// WithNameCompression sets the compression for the category name section.
// The default is format.CompressionNone; name sections are usually a few
// hundred bytes, so compression rarely pays off.
func WithNameCompression(comp format.CompressionType) Option {
	return options.New(func(c *encodeConfig) error {
		return c.setNameCompression(comp)
	})
}

// Encode serializes a grid into a self-describing binary blob.
//
// The blob layout is a fixed 64-byte header, an optional category name
// section for categorical grids, and the encoded cell payload. Both the name
// section and the payload are size-prefixed and compressed according to the
// header flags, and a xxHash64 checksum over everything after the header lets
// Decode reject corruption before it touches the payload.
//
// Parameters:
//   - grid: Grid to serialize, scalar or categorical
//   - opts: Optional encoding configuration (encoding, compression, endianness)
//
// Returns:
//   - []byte: Complete gridfile blob
//   - error: Validation or compression error if any
func Encode(grid *agg.Grid, opts ...Option) ([]byte, error) {
	if grid == nil {
		return nil, fmt.Errorf("encode nil grid")
	}

	cfg := &encodeConfig{flag: NewFlag()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if err := validateGrid(grid); err != nil {
		return nil, err
	}

	cfg.flag.SetCategorical(grid.IsCategorical())
	cfg.flag.SetHasCategoryNames(grid.IsCategorical())

	header := NewHeader(grid.Width, grid.Height, grid.X, grid.Y)
	header.Flag = cfg.flag
	header.CategoryCount = uint16(grid.NumCats())

	var nameSection []byte
	if grid.IsCategorical() {
		section, err := encodeCategorySection(grid.Cats, cfg.flag.NameCompression())
		if err != nil {
			return nil, err
		}
		nameSection = section
	}

	payload, err := encodeCellPayload(grid, cfg.flag)
	if err != nil {
		return nil, err
	}

	header.PayloadOffset = uint32(HeaderSize + len(nameSection))
	header.PayloadLength = uint32(len(payload))

	blob := make([]byte, HeaderSize, HeaderSize+len(nameSection)+len(payload))
	blob = append(blob, nameSection...)
	blob = append(blob, payload...)

	header.Checksum = hash.Bytes(blob[HeaderSize:])
	copy(blob[:HeaderSize], header.Bytes())

	return blob, nil
}

// validateGrid rejects grids the format cannot represent before any encoding
// work happens.
func validateGrid(grid *agg.Grid) error {
	if grid.Width <= 0 || grid.Width > MaxDimension || grid.Height <= 0 || grid.Height > MaxDimension {
		return fmt.Errorf("%w: %dx%d cells", errs.ErrInvalidCanvasSize, grid.Width, grid.Height)
	}

	if !grid.X.IsValid() {
		return fmt.Errorf("%w: x range [%g, %g]", errs.ErrInvalidRange, grid.X.Min, grid.X.Max)
	}
	if !grid.Y.IsValid() {
		return fmt.Errorf("%w: y range [%g, %g]", errs.ErrInvalidRange, grid.Y.Min, grid.Y.Max)
	}

	if grid.NumCats() > catmap.MaxCategories {
		return fmt.Errorf("%w: %d categories", errs.ErrTooManyCategories, grid.NumCats())
	}

	want := grid.NumCells()
	if grid.IsCategorical() {
		want *= grid.NumCats()
	}
	if len(grid.Data) != want {
		return fmt.Errorf("%w: data holds %d values, dimensions need %d", errs.ErrGridSizeMismatch, len(grid.Data), want)
	}

	return nil
}

// encodeCategorySection encodes and frames the category names.
func encodeCategorySection(cats []string, comp format.CompressionType) ([]byte, error) {
	enc := encoding.NewVarStringEncoder()
	defer enc.Finish()

	if err := enc.WriteSlice(cats); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidCategorySection, err)
	}

	codec, err := compress.GetCodec(comp)
	if err != nil {
		return nil, err
	}

	section, err := compress.CompressWithSize(codec, enc.Bytes())
	if err != nil {
		return nil, fmt.Errorf("compress category section: %w", err)
	}

	return section, nil
}

// encodeCellPayload encodes all cell planes into one framed payload.
//
// Categorical planes share a single encoded stream in plane-major order; for
// the XOR encoding the predictor chain runs straight through plane
// boundaries, which costs nothing because the header locates the payload as
// one block.
func encodeCellPayload(grid *agg.Grid, flag Flag) ([]byte, error) {
	var cells encoding.ColumnarEncoder[float64]

	switch flag.CellEncoding() {
	case format.TypeRaw:
		cells = encoding.NewCellRawEncoder(flag.GetEndianEngine())
	case format.TypeXOR:
		cells = encoding.NewCellXOREncoder()
	default:
		return nil, fmt.Errorf("invalid cell encoding: %v", flag.CellEncoding())
	}
	defer cells.Finish()

	cells.WriteSlice(grid.Data)

	codec, err := compress.GetCodec(flag.PayloadCompression())
	if err != nil {
		return nil, err
	}

	payload, err := compress.CompressWithSize(codec, cells.Bytes())
	if err != nil {
		return nil, fmt.Errorf("compress cell payload: %w", err)
	}

	return payload, nil
}
