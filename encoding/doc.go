// Package encoding provides low-level encoding and decoding for dshade grid payloads.
//
// This package defines the generic ColumnarEncoder and ColumnarDecoder interfaces
// that power dshade's binary gridfile format, together with the concrete cell and
// category-name codecs.
//
// # Usage Guidance
//
// This package is designed for advanced use cases and defining custom codecs.
// Most users should use the high-level gridfile package instead, which provides:
//   - Header construction and validation
//   - Integrated compression and checksumming
//   - Simpler API for persisting and restoring aggregate grids
//
// Use this package directly only when:
//   - Implementing custom cell encoding strategies for specialized grids
//   - Building alternative storage formats that reuse the cell codecs
//   - Understanding the gridfile payload layout
//
// For typical use cases, see: github.com/arloliu/dshade/gridfile
//
// # Overview
//
// dshade stores aggregate grids cell-major: a scalar grid is one plane of
// float64 cells in row-major order, a categorical grid is one such plane per
// category. Planes are encoded with one of two strategies:
//
// Raw encoding - Fixed-width IEEE 754:
//   - 8 bytes per cell in the configured byte order
//   - O(1) random access to any cell
//   - No compression, but maximal encode/decode throughput
//
// XOR-predictive encoding - uvarint of XOR with the previous cell:
//   - XOR the current cell's bit pattern with the previous cell's
//   - Encode the XOR result as an unsigned varint (1-10 bytes)
//   - Runs of identical cells (empty grid regions, NaN fills) cost 1 byte each
//   - Smooth gradients produce small XORs and short varints
//   - Sequential decoding only
//
// Category names for categorical grids use length-prefixed string encoding:
//   - 1 byte: name length (0-255)
//   - N bytes: UTF-8 name data
//
// # Architecture
//
// The package is organized around the ColumnarEncoder and ColumnarDecoder interfaces:
//
//	type ColumnarEncoder[T comparable] interface {
//	    Write(data T)           // Encode single value
//	    WriteSlice(data []T)    // Encode multiple values (more efficient)
//	    Bytes() []byte          // Get encoded data
//	    Len() int               // Number of values encoded
//	    Size() int              // Size in bytes
//	    Reset()                 // Clear state but keep buffer
//	    Finish()                // Finalize and release resources
//	}
//
//	type ColumnarDecoder[T comparable] interface {
//	    All(data []byte, count int) iter.Seq[T]     // Sequential iteration
//	    At(data []byte, index, count int) (T, bool) // Random access (if supported)
//	}
//
// # Cell Encoding
//
// CellRawEncoder/Decoder - Uncompressed float64 cells:
//
//	encoder := encoding.NewCellRawEncoder(endian.GetLittleEndianEngine())
//	defer encoder.Finish()
//	encoder.WriteSlice(grid.Data)
//	payload := encoder.Bytes() // 8 bytes per cell
//
// Use when:
//   - Random access to individual cells is required
//   - Cells are dense and noisy (min/max of wide-range data)
//   - Encode/decode latency matters more than size
//
// CellXOREncoder/Decoder - XOR-predictive compression:
//
//	encoder := encoding.NewCellXOREncoder()
//	defer encoder.Finish()
//	encoder.WriteSlice(grid.Data)
//	payload := encoder.Bytes() // ~1 byte per empty cell
//
// Compression characteristics:
//   - Empty regions (repeated 0 or NaN): 1 byte per cell (87% savings)
//   - Smooth regions: 2-5 bytes per cell
//   - High-entropy regions: up to 10 bytes per cell (worse than raw)
//
// Use when:
//   - Grids are sparse (scatter aggregations usually are)
//   - Payloads are persisted or shipped over the network
//   - Sequential decoding is acceptable
//
// # Choosing an Encoding
//
// Scatter count grids are typically >90% empty, so XOR encoding routinely
// beats raw by 5x before compression even runs. Dense regrid output with
// per-cell noise can expand under XOR; measure with the sizing package when
// in doubt.
//
// # Thread Safety
//
// Encoders: Not thread-safe. Use one encoder per goroutine.
//
// Decoders: Stateless and safe for concurrent use.
package encoding
