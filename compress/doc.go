// Package compress provides compression and decompression codecs for dshade grid payloads.
//
// This package offers multiple compression algorithms suited to different grid
// workloads. Compression is applied at the payload level after cell encoding,
// providing an additional layer of space savings beyond the encoding strategies.
//
// # Overview
//
// dshade applies a two-stage size-reduction strategy to aggregate grids:
//
//  1. **Encoding**: Exploits structure in cell values (raw fixed-width or XOR-predictive varint)
//  2. **Compression**: Further reduces encoded payloads using general-purpose algorithms
//
// The compress package implements the second stage, supporting multiple algorithms:
//   - None: No compression (fastest, largest)
//   - Zstd: Excellent compression ratio, moderate speed
//   - S2: Balanced compression and speed
//   - LZ4: Fast decompression, moderate compression
//
// # Architecture
//
// The package defines three core interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Supported Algorithms
//
// **NoOp Compression** (format.CompressionNone)
//
//	codec, _ := compress.GetCodec(format.CompressionNone)
//	compressed, _ := codec.Compress(payload)  // Returns payload unchanged
//
// Use when:
//   - The payload is already dense with entropy (noisy max/min grids)
//   - CPU is more critical than storage
//   - Grids are consumed in-process and never persisted
//
// **Zstandard (Zstd)** (format.CompressionZstd)
//
//	codec, _ := compress.GetCodec(format.CompressionZstd)
//	compressed, _ := codec.Compress(payload)  // Best compression ratio
//
// Characteristics:
//   - Compression: Excellent (typically 3-10x on sparse count grids)
//   - Speed: Moderate (compression: ~400 MB/s, decompression: ~1000 MB/s)
//   - Memory: ~2-4 MB for compression, ~1-2 MB for decompression
//
// Best for:
//   - Persisted aggregate caches
//   - Shipping gridfile blobs over constrained links
//   - Precomputed zoom pyramids
//
// **S2 (Snappy Alternative)** (format.CompressionS2)
//
//	codec, _ := compress.GetCodec(format.CompressionS2)
//	compressed, _ := codec.Compress(payload)  // Fast with good compression
//
// Characteristics:
//   - Compression: Good (typically 2-4x on sparse grids)
//   - Speed: Fast (compression: ~1000 MB/s, decompression: ~2000 MB/s)
//   - Memory: ~256KB for compression, ~64KB for decompression
//
// Best for:
//   - Interactive pan/zoom sessions where aggregates are cached briefly
//   - Grids regenerated often enough that encode speed matters
//
// **LZ4** (format.CompressionLZ4)
//
//	codec, _ := compress.GetCodec(format.CompressionLZ4)
//	compressed, _ := codec.Compress(payload)  // Very fast decompression
//
// Characteristics:
//   - Compression: Moderate (typically 1.5-3x on sparse grids)
//   - Speed: Very fast decompression (~3000 MB/s), moderate compression (~800 MB/s)
//   - Memory: ~64KB for compression, ~16KB for decompression
//
// Best for:
//   - Read-heavy aggregate caches (decode on every viewport change)
//   - Low-latency render paths
//
// # Algorithm Selection Guide
//
// **Choose based on workload**:
//
// | Workload Type          | Recommended | Reason                              |
// |------------------------|-------------|-------------------------------------|
// | Persistent grid cache  | Zstd        | Best compression ratio              |
// | Live render sessions   | S2          | Balanced speed and compression      |
// | Decode-heavy caches    | LZ4         | Fastest decompression               |
// | In-process only        | None        | No compression overhead             |
//
// **Choose based on grid characteristics**:
//
// | Grid Type                  | Recommended | Typical Ratio (after encoding) |
// |----------------------------|-------------|--------------------------------|
// | Sparse count (XOR-encoded) | Zstd        | 5-20x                          |
// | Dense mean/sum (raw)       | Zstd        | 2-4x                           |
// | Categorical planes         | S2          | 3-8x                           |
// | Noisy min/max (raw)        | LZ4 or None | 1.2-2x                         |
//
// Sparse grids dominate real scatter workloads: most cells are empty and the
// XOR encoding collapses runs of identical bits, so even fast codecs achieve
// strong ratios. Use the sizing package to fit a model to your own data.
//
// # Size-Prefixed Payloads
//
// CompressWithSize and DecompressWithSize wrap a codec with a uvarint prefix
// recording the uncompressed length. Block codecs such as LZ4 do not store the
// decompressed size, so the prefix lets decoders allocate exactly once and
// verify the round trip:
//
//	framed, _ := compress.CompressWithSize(codec, payload)
//	payload, err := compress.DecompressWithSize(codec, framed)
//
// gridfile frames both its payload and its category-name section this way.
//
// # Thread Safety
//
// All codec implementations are thread-safe and can be safely shared across
// goroutines. Internal encoder/decoder state is pooled per operation.
//
// # Error Handling
//
// Compression errors are rare but can occur:
//   - Input too large (exceeds algorithm limits)
//   - Memory allocation failure
//
// Decompression errors are more common:
//   - Corrupted compressed data
//   - Invalid compression format
//   - Decompressed size mismatch against the recorded prefix
//
// All errors are wrapped with context for debugging.
//
// # Integration with the gridfile Package
//
// The gridfile package uses this package internally. Configure compression via
// encoder options:
//
//	data, _ := gridfile.Encode(grid,
//	    gridfile.WithEncoding(format.TypeXOR),
//	    gridfile.WithCompression(format.CompressionZstd),
//	)
//
// Decoders automatically detect and use the correct decompression algorithm
// based on the gridfile header flags.
package compress
