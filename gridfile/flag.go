package gridfile

import (
	"github.com/arloliu/dshade/endian"
	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/format"
)

const (
	// Bit masks for the packed Options word
	EndiannessMask    = 0x0001 // Mask for endianness bit (bit 0): 0=little, 1=big
	CategoricalMask   = 0x0002 // Mask for grid kind bit (bit 1): 0=scalar, 1=categorical
	CategoryNamesMask = 0x0004 // Mask for category name section bit (bit 2)
	ReservedBitsMask  = 0x0008 // Mask for reserved bit (bit 3), must be 0

	// MagicNumberMask selects the magic number (bits 4-15) of the Options word.
	MagicNumberMask = 0xFFF0
	// MagicGridV1Opt is the version 1 magic number for the grid blob format.
	MagicGridV1Opt = 0xD5A0

	// FormatVersion is the current gridfile format revision.
	FormatVersion = 1
)

const (
	// HeaderSize is the fixed header size in bytes.
	HeaderSize = 64

	// MaxDimension bounds grid width and height so a hostile header cannot
	// force a huge allocation before the payload is validated.
	MaxDimension = 65536
)

var (
	validCellEncodings = map[uint8]struct{}{
		uint8(format.TypeRaw): {},
		uint8(format.TypeXOR): {},
	}

	validCompressions = map[uint8]struct{}{
		uint8(format.CompressionNone): {},
		uint8(format.CompressionZstd): {},
		uint8(format.CompressionS2):   {},
		uint8(format.CompressionLZ4):  {},
	}
)

// Flag represents the packed flag fields in the gridfile header.
type Flag struct {
	// Options is a packed field for format options.
	// Bit 0 is the endianness flag, 0 means little-endian, 1 means big-endian.
	// Bit 1 is the grid kind flag, 0 means scalar, 1 means categorical.
	// Bit 2 indicates a category name section between header and payload.
	// Bit 3 is reserved for future use, must be set to 0.
	// Bits 4-15 are the magic number identifying the grid blob format:
	//   - 0xD5A0 (0b1101_0101_1010_0000): Grid blob format v1
	Options uint16

	// EncodingType holds the cell encoding in bits 0-3.
	// Bits 4-7 are reserved and must be 0.
	EncodingType uint8

	// CompressionType is a packed compression field.
	// Bits 0-3 hold the cell payload compression, bits 4-7 the category
	// name section compression.
	CompressionType uint8
}

// NewFlag creates a Flag with default settings: little-endian scalar grid,
// XOR cell encoding, Zstd payload compression, uncompressed category names.
func NewFlag() Flag {
	flag := Flag{Options: MagicGridV1Opt}
	flag.WithLittleEndian()
	flag.SetCellEncoding(format.TypeXOR)
	flag.SetPayloadCompression(format.CompressionZstd)
	flag.SetNameCompression(format.CompressionNone)

	return flag
}

// IsLittleEndian returns whether multi-byte header fields and raw cell
// payloads are little-endian.
func (f Flag) IsLittleEndian() bool {
	return (f.Options & EndiannessMask) == 0
}

// IsBigEndian returns whether the data is big-endian.
func (f Flag) IsBigEndian() bool {
	return (f.Options & EndiannessMask) != 0
}

// WithLittleEndian sets little-endian byte order.
func (f *Flag) WithLittleEndian() {
	f.Options &= ^uint16(EndiannessMask)
}

// WithBigEndian sets big-endian byte order.
func (f *Flag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// IsCategorical returns whether the payload carries one plane per category.
func (f Flag) IsCategorical() bool {
	return (f.Options & CategoricalMask) != 0
}

// SetCategorical marks the grid kind.
func (f *Flag) SetCategorical(categorical bool) {
	if categorical {
		f.Options |= CategoricalMask
	} else {
		f.Options &^= CategoricalMask
	}
}

// GridKind returns the grid kind encoded in the flag word.
func (f Flag) GridKind() format.GridKind {
	if f.IsCategorical() {
		return format.GridCategorical
	}

	return format.GridScalar
}

// HasCategoryNames returns whether a category name section follows the header.
func (f Flag) HasCategoryNames() bool {
	return (f.Options & CategoryNamesMask) != 0
}

// SetHasCategoryNames enables or disables the category name section.
func (f *Flag) SetHasCategoryNames(enabled bool) {
	if enabled {
		f.Options |= CategoryNamesMask
	} else {
		f.Options &^= CategoryNamesMask
	}
}

// GetMagicNumber returns the magic number from the Options field.
func (f Flag) GetMagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

// CellEncoding returns the cell encoding type from bits 0-3 of EncodingType.
func (f Flag) CellEncoding() format.EncodingType {
	return format.EncodingType(f.EncodingType & 0x0F)
}

// SetCellEncoding sets the cell encoding type in bits 0-3 of EncodingType.
func (f *Flag) SetCellEncoding(enc format.EncodingType) {
	f.EncodingType &^= 0x0F // Clear bits 0-3
	f.EncodingType |= (uint8(enc) & 0x0F)
}

// PayloadCompression returns the cell payload compression from bits 0-3 of CompressionType.
func (f Flag) PayloadCompression() format.CompressionType {
	return format.CompressionType(f.CompressionType & 0x0F)
}

// SetPayloadCompression sets the cell payload compression in bits 0-3 of CompressionType.
func (f *Flag) SetPayloadCompression(compression format.CompressionType) {
	f.CompressionType &^= 0x0F // Clear bits 0-3
	f.CompressionType |= (uint8(compression) & 0x0F)
}

// NameCompression returns the category section compression from bits 4-7 of CompressionType.
func (f Flag) NameCompression() format.CompressionType {
	return format.CompressionType((f.CompressionType >> 4) & 0x0F)
}

// SetNameCompression sets the category section compression in bits 4-7 of CompressionType.
func (f *Flag) SetNameCompression(compression format.CompressionType) {
	f.CompressionType &^= 0xF0 // Clear bits 4-7
	f.CompressionType |= (uint8(compression) & 0x0F) << 4
}

// IsValidMagicNumber checks if the magic number is valid.
func (f Flag) IsValidMagicNumber() bool {
	return f.GetMagicNumber() == MagicGridV1Opt
}

// IsValidEncoding checks if the cell encoding bits are valid.
func (f Flag) IsValidEncoding() bool {
	if f.EncodingType&0xF0 != 0 {
		return false
	}

	_, ok := validCellEncodings[f.EncodingType&0x0F]

	return ok
}

// IsValidCompression checks if both compression nibbles are valid.
func (f Flag) IsValidCompression() bool {
	_, validPayload := validCompressions[f.CompressionType&0x0F]
	_, validNames := validCompressions[(f.CompressionType>>4)&0x0F]

	return validPayload && validNames
}

// Validate checks if the flag fields contain valid values.
func (f Flag) Validate() error {
	if !f.IsValidMagicNumber() {
		return errs.ErrInvalidMagicNumber
	}

	if f.Options&ReservedBitsMask != 0 {
		return errs.ErrInvalidHeaderFlags
	}

	// A category name section only makes sense on a categorical grid.
	if f.HasCategoryNames() && !f.IsCategorical() {
		return errs.ErrInvalidHeaderFlags
	}

	if !f.IsValidEncoding() {
		return errs.ErrInvalidHeaderFlags
	}

	if !f.IsValidCompression() {
		return errs.ErrInvalidHeaderFlags
	}

	return nil
}

// GetEndianEngine returns the appropriate endian engine based on the flag.
func (f Flag) GetEndianEngine() endian.EndianEngine {
	if f.IsLittleEndian() {
		return endian.GetLittleEndianEngine()
	}

	return endian.GetBigEndianEngine()
}
