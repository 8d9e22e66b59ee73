package gridfile

import (
	"fmt"
	"math"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
	"github.com/arloliu/dshade/internal/catmap"
)

// Header represents the fixed 64-byte gridfile header.
//
// All multi-byte fields after the Options word honor the endianness bit in
// Options; the Options word itself is always little-endian so a parser can
// discover the byte order before decoding anything else.
type Header struct {
	// Flag holds the packed option fields, see Flag for the layout.
	Flag Flag // offset 0-3 (4 bytes)

	// Version is the gridfile format revision, currently FormatVersion.
	Version uint8 // offset 4 (1 byte)

	// offset 5 is reserved and must be zero.

	// CategoryCount is the number of category planes, 0 for scalar grids.
	CategoryCount uint16 // offset 6-7 (2 bytes)

	// Width is the grid width in cells.
	Width uint32 // offset 8-11 (4 bytes)

	// Height is the grid height in cells.
	Height uint32 // offset 12-15 (4 bytes)

	// XMin and XMax are the data-space x range the grid was aggregated over.
	XMin float64 // offset 16-23 (8 bytes)
	XMax float64 // offset 24-31 (8 bytes)

	// YMin and YMax are the data-space y range.
	YMin float64 // offset 32-39 (8 bytes)
	YMax float64 // offset 40-47 (8 bytes)

	// PayloadOffset is the byte offset of the framed cell payload,
	// measured from the start of the blob. The category name section,
	// when present, occupies [HeaderSize, PayloadOffset).
	PayloadOffset uint32 // offset 48-51 (4 bytes)

	// PayloadLength is the framed cell payload length in bytes.
	PayloadLength uint32 // offset 52-55 (4 bytes)

	// Checksum is the xxHash64 digest of every byte after the header,
	// data[HeaderSize : PayloadOffset+PayloadLength].
	Checksum uint64 // offset 56-63 (8 bytes)
}

// NewHeader creates a gridfile header with default flags for a grid of the
// given dimensions and ranges.
func NewHeader(width, height int, x, y geom.Range) *Header {
	return &Header{
		Flag:    NewFlag(),
		Version: FormatVersion,
		Width:   uint32(width),
		Height:  uint32(height),
		XMin:    x.Min,
		XMax:    x.Max,
		YMin:    y.Min,
		YMax:    y.Max,
	}
}

// ParseHeader parses a gridfile header from the start of data.
func ParseHeader(data []byte) (*Header, error) {
	h := &Header{}
	if err := h.Parse(data); err != nil {
		return nil, err
	}

	return h, nil
}

// Parse reads and validates the header from the start of data.
//
// The Options word is read as little-endian first so the endian engine for
// the remaining fields can be derived from its endianness bit.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: got %d bytes, need %d", errs.ErrInvalidHeaderSize, len(data), HeaderSize)
	}

	h.Flag.Options = uint16(data[0]) | uint16(data[1])<<8
	h.Flag.EncodingType = data[2]
	h.Flag.CompressionType = data[3]
	h.Version = data[4]

	if data[5] != 0 {
		return fmt.Errorf("%w: reserved byte not zero", errs.ErrInvalidHeaderFlags)
	}

	engine := h.Flag.GetEndianEngine()
	h.CategoryCount = engine.Uint16(data[6:8])
	h.Width = engine.Uint32(data[8:12])
	h.Height = engine.Uint32(data[12:16])
	h.XMin = math.Float64frombits(engine.Uint64(data[16:24]))
	h.XMax = math.Float64frombits(engine.Uint64(data[24:32]))
	h.YMin = math.Float64frombits(engine.Uint64(data[32:40]))
	h.YMax = math.Float64frombits(engine.Uint64(data[40:48]))
	h.PayloadOffset = engine.Uint32(data[48:52])
	h.PayloadLength = engine.Uint32(data[52:56])
	h.Checksum = engine.Uint64(data[56:64])

	return h.Validate()
}

// Bytes serializes the header into a fixed 64-byte array.
func (h *Header) Bytes() []byte {
	buf := make([]byte, HeaderSize)

	buf[0] = byte(h.Flag.Options)
	buf[1] = byte(h.Flag.Options >> 8)
	buf[2] = h.Flag.EncodingType
	buf[3] = h.Flag.CompressionType
	buf[4] = h.Version
	buf[5] = 0

	engine := h.Flag.GetEndianEngine()
	engine.PutUint16(buf[6:8], h.CategoryCount)
	engine.PutUint32(buf[8:12], h.Width)
	engine.PutUint32(buf[12:16], h.Height)
	engine.PutUint64(buf[16:24], math.Float64bits(h.XMin))
	engine.PutUint64(buf[24:32], math.Float64bits(h.XMax))
	engine.PutUint64(buf[32:40], math.Float64bits(h.YMin))
	engine.PutUint64(buf[40:48], math.Float64bits(h.YMax))
	engine.PutUint32(buf[48:52], h.PayloadOffset)
	engine.PutUint32(buf[52:56], h.PayloadLength)
	engine.PutUint64(buf[56:64], h.Checksum)

	return buf
}

// XRange returns the x axis range stored in the header.
func (h *Header) XRange() geom.Range {
	return geom.Range{Min: h.XMin, Max: h.XMax}
}

// YRange returns the y axis range stored in the header.
func (h *Header) YRange() geom.Range {
	return geom.Range{Min: h.YMin, Max: h.YMax}
}

// Validate checks magic, version, flags, dimensions and ranges.
//
// Everything here is checked before any payload-sized allocation happens, so
// a corrupt or hostile header cannot drive memory use.
func (h *Header) Validate() error {
	if !h.Flag.IsValidMagicNumber() {
		return fmt.Errorf("%w: got 0x%04X", errs.ErrInvalidMagicNumber, h.Flag.GetMagicNumber())
	}

	if h.Version != FormatVersion {
		return fmt.Errorf("%w: got version %d, support %d", errs.ErrUnsupportedVersion, h.Version, FormatVersion)
	}

	if err := h.Flag.Validate(); err != nil {
		return err
	}

	if h.Width == 0 || h.Width > MaxDimension || h.Height == 0 || h.Height > MaxDimension {
		return fmt.Errorf("%w: %dx%d cells", errs.ErrInvalidCanvasSize, h.Width, h.Height)
	}

	if h.Flag.IsCategorical() {
		if h.CategoryCount == 0 {
			return fmt.Errorf("%w: categorical grid with zero categories", errs.ErrInvalidHeaderFlags)
		}
		if int(h.CategoryCount) > catmap.MaxCategories {
			return fmt.Errorf("%w: %d categories", errs.ErrTooManyCategories, h.CategoryCount)
		}
		if !h.Flag.HasCategoryNames() {
			return fmt.Errorf("%w: categorical grid without name section", errs.ErrInvalidHeaderFlags)
		}
	} else if h.CategoryCount != 0 {
		return fmt.Errorf("%w: scalar grid with %d categories", errs.ErrInvalidHeaderFlags, h.CategoryCount)
	}

	if !h.XRange().IsValid() {
		return fmt.Errorf("%w: x range [%g, %g]", errs.ErrInvalidRange, h.XMin, h.XMax)
	}
	if !h.YRange().IsValid() {
		return fmt.Errorf("%w: y range [%g, %g]", errs.ErrInvalidRange, h.YMin, h.YMax)
	}

	if h.PayloadOffset < HeaderSize {
		return fmt.Errorf("%w: payload offset %d inside header", errs.ErrInvalidHeaderFlags, h.PayloadOffset)
	}

	if h.Flag.HasCategoryNames() {
		if h.PayloadOffset == HeaderSize {
			return fmt.Errorf("%w: name section flagged but empty", errs.ErrInvalidCategorySection)
		}
	} else if h.PayloadOffset != HeaderSize {
		return fmt.Errorf("%w: gap between header and payload", errs.ErrInvalidHeaderFlags)
	}

	return nil
}

// NumCells returns the number of cells in one plane.
func (h *Header) NumCells() int {
	return int(h.Width) * int(h.Height)
}

// NumValues returns the total number of encoded cell values across all
// planes: one plane for scalar grids, CategoryCount planes otherwise.
func (h *Header) NumValues() int {
	if h.Flag.IsCategorical() {
		return h.NumCells() * int(h.CategoryCount)
	}

	return h.NumCells()
}
