package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor compresses grid payloads as LZ4 blocks. It favors decode
// speed over ratio, which suits read-heavy aggregate caches where a stored
// grid is decoded on every viewport change.
//
// LZ4 blocks do not record their decompressed size. gridfile always wraps
// them in CompressWithSize framing; bare Decompress has to guess the output
// size and grow.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// An lz4.Compressor carries a hash table that is rebuilt per block but reused
// across blocks; unlike the zstd types it is not safe for concurrent calls,
// so instances are pooled.
var lz4Pool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

// NewLZ4Compressor creates a new LZ4 codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses data as a single LZ4 block. Empty input yields nil.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	lc, _ := lz4Pool.Get().(*lz4.Compressor)
	defer lz4Pool.Put(lc)

	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// lz4MaxOutput caps how far Decompress will grow its guess for the
// decompressed size. A full-resolution categorical grid tops out well under
// this; anything larger is corrupt input.
const lz4MaxOutput = 128 << 20

// Decompress restores an LZ4 block of unknown decompressed size.
//
// The output buffer starts at 4x the block (the common expansion for encoded
// grid data) and doubles on short-buffer errors up to lz4MaxOutput. Callers
// that know the size should use DecompressWithSize framing and skip the
// retries.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	for size := len(data) * 4; size <= lz4MaxOutput; size *= 2 {
		buf := make([]byte, size)
		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			return nil, err
		}
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}
