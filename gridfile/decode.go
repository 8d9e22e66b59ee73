package gridfile

import (
	"fmt"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/compress"
	"github.com/arloliu/dshade/encoding"
	"github.com/arloliu/dshade/endian"
	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/format"
	"github.com/arloliu/dshade/internal/hash"
)

// Decode parses a gridfile blob back into a grid.
//
// The header is fully validated and the checksum verified before any
// payload-sized buffer is allocated, so truncated or corrupted blobs fail
// fast with a sentinel from the errs package.
//
// Parameters:
//   - data: Complete gridfile blob as produced by Encode
//
// Returns:
//   - *agg.Grid: Reconstructed grid, scalar or categorical
//   - error: Validation, decompression or decoding error if any
func Decode(data []byte) (*agg.Grid, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	end := int(header.PayloadOffset) + int(header.PayloadLength)
	if end > len(data) {
		return nil, fmt.Errorf("%w: blob holds %d bytes, header promises %d", errs.ErrPayloadTruncated, len(data), end)
	}

	if sum := hash.Bytes(data[HeaderSize:end]); sum != header.Checksum {
		return nil, fmt.Errorf("%w: computed 0x%016x, stored 0x%016x", errs.ErrChecksumMismatch, sum, header.Checksum)
	}

	var grid *agg.Grid
	if header.Flag.IsCategorical() {
		cats, err := decodeCategorySection(data[HeaderSize:header.PayloadOffset], header)
		if err != nil {
			return nil, err
		}
		grid = agg.NewCategoricalGrid(int(header.Width), int(header.Height), header.XRange(), header.YRange(), cats, 0)
	} else {
		grid = agg.NewGrid(int(header.Width), int(header.Height), header.XRange(), header.YRange(), 0)
	}

	if err := decodeCellPayload(data[header.PayloadOffset:end], header, grid.Data); err != nil {
		return nil, err
	}

	return grid, nil
}

// decodeCategorySection decompresses and decodes the category names.
func decodeCategorySection(section []byte, header *Header) ([]string, error) {
	codec, err := compress.GetCodec(header.Flag.NameCompression())
	if err != nil {
		return nil, err
	}

	raw, err := compress.DecompressWithSize(codec, section)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidCategorySection, err)
	}

	count := int(header.CategoryCount)
	cats := make([]string, 0, count)
	consumed := 0
	for name := range encoding.NewVarStringDecoder().All(raw, count) {
		cats = append(cats, name)
		consumed += 1 + len(name)
	}

	if len(cats) != count {
		return nil, fmt.Errorf("%w: decoded %d of %d names", errs.ErrInvalidCategorySection, len(cats), count)
	}
	if consumed != len(raw) {
		return nil, fmt.Errorf("%w: %d trailing bytes", errs.ErrInvalidCategorySection, len(raw)-consumed)
	}

	return cats, nil
}

// decodeCellPayload decompresses the framed payload and decodes every plane
// into dst, which must hold exactly header.NumValues() cells.
func decodeCellPayload(payload []byte, header *Header, dst []float64) error {
	codec, err := compress.GetCodec(header.Flag.PayloadCompression())
	if err != nil {
		return err
	}

	raw, err := compress.DecompressWithSize(codec, payload)
	if err != nil {
		return fmt.Errorf("decompress cell payload: %w", err)
	}

	count := header.NumValues()

	var cells encoding.ColumnarDecoder[float64]
	switch header.Flag.CellEncoding() {
	case format.TypeRaw:
		if len(raw) != count*8 {
			return fmt.Errorf("%w: raw payload holds %d bytes, need %d", errs.ErrPayloadSizeMismatch, len(raw), count*8)
		}
		engine := header.Flag.GetEndianEngine()
		if endian.CompareNativeEndian(engine) {
			// Matching byte order lets the decoder reinterpret the buffer
			// in place instead of assembling each cell byte by byte.
			cells = encoding.NewCellRawUnsafeDecoder(engine)
		} else {
			cells = encoding.NewCellRawDecoder(engine)
		}
	case format.TypeXOR:
		cells = encoding.NewCellXORDecoder()
	default:
		return fmt.Errorf("invalid cell encoding: %v", header.Flag.CellEncoding())
	}

	decoded := 0
	for v := range cells.All(raw, count) {
		dst[decoded] = v
		decoded++
	}

	if decoded != count {
		return fmt.Errorf("%w: decoded %d of %d cells", errs.ErrPayloadSizeMismatch, decoded, count)
	}

	return nil
}
