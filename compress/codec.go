package compress

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/dshade/format"
)

// Compressor compresses an encoded grid payload into a fresh slice.
//
// Inputs are the byte streams the encoding package produces: fixed-width
// float64 planes (raw cells) or uvarint streams (XOR cells), plus the
// category-name section of categorical grids. Implementations never modify
// the input and may reuse internal state across calls.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload produced by the matching Compressor.
//
// Corrupted or foreign input returns an error rather than garbage, except for
// the pass-through codec, which has no format to validate.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec is a matched Compressor/Decompressor pair. All implementations in
// this package are safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec creates a fresh Codec for a compression type. The target string
// names what is being compressed and only appears in the error.
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

// The codecs are stateless values (their working state lives in package
// pools), so one shared instance per type serves every caller.
var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec returns the shared Codec for a compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

// CompressWithSize compresses data and prepends its uncompressed length as a
// uvarint.
//
// Block codecs (LZ4) do not record the decompressed size themselves; the
// prefix lets DecompressWithSize allocate the output exactly and double-check
// the round trip for the codecs that do. gridfile frames its payload and
// category-name sections this way.
func CompressWithSize(codec Compressor, data []byte) ([]byte, error) {
	compressed, err := codec.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}

	out := make([]byte, 0, binary.MaxVarintLen64+len(compressed))
	out = binary.AppendUvarint(out, uint64(len(data)))
	out = append(out, compressed...)

	return out, nil
}

// DecompressWithSize reverses CompressWithSize. The decompressed output is
// checked against the recorded length, so truncated or corrupted payloads
// fail here instead of surfacing as a short grid downstream.
func DecompressWithSize(codec Decompressor, data []byte) ([]byte, error) {
	size, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, fmt.Errorf("malformed payload size prefix")
	}

	decompressed, err := codec.Decompress(data[n:])
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}

	if uint64(len(decompressed)) != size {
		return nil, fmt.Errorf("payload size mismatch: expected %d bytes, got %d", size, len(decompressed))
	}

	return decompressed, nil
}
