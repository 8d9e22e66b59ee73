// Package gridfile implements a compact, self-describing binary format for
// aggregate grids.
//
// Rasterizing a large dataset is the expensive half of the pipeline; shading
// is cheap. Persisting the aggregate grid lets a server cache rendered
// viewports, ship raw aggregates to clients that colormap locally, and reuse
// work across sessions. A gridfile blob carries everything needed to
// reconstruct the grid: dimensions, data-space ranges, category names and the
// cell values themselves.
//
// # Blob Layout
//
//	+----------------------+  offset 0
//	| header               |  64 bytes, fixed
//	+----------------------+  offset 64
//	| category names       |  categorical grids only, framed + compressed
//	+----------------------+  offset PayloadOffset
//	| cell payload         |  framed + compressed, PayloadLength bytes
//	+----------------------+
//
// The header packs format flags (endianness, grid kind, cell encoding,
// compression) into fixed fields, see Flag and Header for the exact layout.
// The Options word is always little-endian so a reader can discover the byte
// order of the remaining fields from its endianness bit.
//
// Both variable sections are framed with compress.CompressWithSize, so the
// decoder knows the exact decompressed size up front. A xxHash64 checksum
// over everything after the header is verified before any payload-sized
// buffer is allocated; corrupted or truncated blobs fail with sentinels from
// the errs package (errs.ErrChecksumMismatch, errs.ErrPayloadTruncated, ...).
//
// # Cell Encodings
//
// Two cell encodings are supported, selected with WithEncoding:
//
//   - format.TypeRaw: fixed 8 bytes per cell in the configured byte order.
//     Fastest to decode; on a matching host the decoder reinterprets the
//     buffer in place.
//   - format.TypeXOR: uvarint of each cell's bits XORed with the previous
//     cell. Empty and repeated cells cost one byte, so the sparse and smooth
//     grids aggregation produces typically shrink several-fold before
//     compression even runs. This is the default.
//
// Categorical grids store their planes plane-major in a single payload; the
// XOR predictor chain runs through plane boundaries unbroken.
//
// # Usage
//
// Encoding a grid with the defaults (XOR cells, Zstd payload compression):
//
//	blob, err := gridfile.Encode(grid)
//	if err != nil {
//		return err
//	}
//
// Tuning the format, for example for a hot cache where decode speed beats
// size:
//
//	blob, err := gridfile.Encode(grid,
//		gridfile.WithEncoding(format.TypeRaw),
//		gridfile.WithCompression(format.CompressionS2),
//	)
//
// Decoding round-trips the grid exactly, NaN cells included:
//
//	grid, err := gridfile.Decode(blob)
//	if err != nil {
//		return err
//	}
//
// Use the sizing package to estimate blob sizes from grid dimensions when
// planning cache budgets.
package gridfile
