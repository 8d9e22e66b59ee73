//go:build !cgo_zstd

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// One lazily-built Encoder/Decoder pair serves the whole process: EncodeAll
// and DecodeAll are safe for concurrent use and draw their scratch state from
// the library's internal pools, so per-call instances would only repeat
// warmup.
var (
	zstdEncoder = sync.OnceValue(func() *zstd.Encoder {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			// gridfile checksums the payload itself; a frame CRC would be paid twice.
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("zstd encoder init: %v", err))
		}

		return enc
	})

	zstdDecoder = sync.OnceValue(func() *zstd.Decoder {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			panic(fmt.Sprintf("zstd decoder init: %v", err))
		}

		return dec
	})
)

// Compress compresses data as a zstd frame. Empty input yields nil.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return zstdEncoder().EncodeAll(data, nil), nil
}

// Decompress restores a zstd frame, rejecting corrupted or foreign input.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := zstdDecoder().DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}

	return out, nil
}
