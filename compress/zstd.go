package compress

// ZstdCompressor compresses grid payloads with Zstandard, the default for
// gridfile blobs: the best ratio of the suite at decode speeds that still
// keep interactive viewport loads cheap. Sparse XOR-encoded planes routinely
// shrink another 5-20x under it.
//
// Two implementations sit behind this type. The default is the pure-Go
// klauspost encoder; building with the cgo_zstd tag swaps in the libzstd
// bindings, which trade build portability for throughput on large payloads.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
