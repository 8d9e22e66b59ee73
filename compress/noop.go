package compress

// NoOpCompressor passes payloads through untouched. It keeps the
// no-compression configuration on the same code path as the real codecs and
// serves as the baseline in the codec benchmarks.
//
// Both directions return the input slice itself, not a copy; treat the
// "compressed" bytes and the original as one buffer.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates the pass-through codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data as-is.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data as-is.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
