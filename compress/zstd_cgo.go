//go:build cgo_zstd

package compress

import "github.com/valyala/gozstd"

// cgoZstdLevel matches the pure-Go SpeedDefault profile so switching builds
// does not change blob sizes drastically.
const cgoZstdLevel = 3

// Compress compresses data with the libzstd bindings. Empty input yields nil.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, cgoZstdLevel), nil
}

// Decompress restores a zstd frame via libzstd.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}
