package encoding

import (
	"fmt"
	"iter"

	"github.com/arloliu/dshade/internal/pool"
)

// MaxNameLength is the maximum length for encoded strings (category names).
// This limit ensures compatibility with uint8 length prefix encoding.
// Since uint8 can represent 0-255, the maximum string length is 255 bytes.
const MaxNameLength = 255

// VarStringEncoder encodes variable-length strings with uint8 length prefix.
//
// Each string is encoded as:
//   - 1 byte: length (0-255)
//   - N bytes: string data (UTF-8)
//
// The encoder enforces a hard limit of 255 bytes per string; gridfile category
// sections reject longer names at encode time rather than truncating.
//
// Note: VarStringEncoder is NOT a ColumnarEncoder - its Write methods return
// errors because name length is caller-controlled input.
type VarStringEncoder struct {
	buf   *pool.ByteBuffer
	count int
}

// NewVarStringEncoder creates a new variable-length string encoder.
//
// The encoder uses a pooled byte buffer with amortized growth strategy for
// optimal performance when encoding multiple strings.
//
// Returns:
//   - *VarStringEncoder: A new encoder instance ready for string encoding
func NewVarStringEncoder() *VarStringEncoder {
	return &VarStringEncoder{
		buf: pool.GetGridBuffer(),
	}
}

// Write encodes a single string with uint8 length prefix.
//
// The string is validated to ensure it doesn't exceed MaxNameLength (255 bytes).
// Returns an error if the string is too long.
//
// Encoding format:
//   - 1 byte: length as uint8 (0-255)
//   - N bytes: UTF-8 string data
//
// Parameters:
//   - text: String to encode (must not exceed 255 bytes)
//
// Returns:
//   - error: nil if successful, error if string exceeds MaxNameLength
func (e *VarStringEncoder) Write(text string) error {
	if len(text) > MaxNameLength {
		return fmt.Errorf("name length %d exceeds maximum %d", len(text), MaxNameLength)
	}

	e.count++

	// Pre-grow buffer for length byte + string data
	e.buf.Grow(1 + len(text))

	length := uint8(len(text)) //nolint:gosec
	e.buf.MustWrite([]byte{length})
	e.buf.MustWrite([]byte(text))

	return nil
}

// WriteSlice encodes a slice of strings with buffer pre-allocation.
//
// All strings are validated up front; the buffer is untouched if any name
// exceeds MaxNameLength, so a failed call leaves no partial section behind.
//
// Parameters:
//   - texts: Slice of strings to encode (each must not exceed 255 bytes)
//
// Returns:
//   - error: nil if successful, error if any string exceeds MaxNameLength
func (e *VarStringEncoder) WriteSlice(texts []string) error {
	// Validate all strings first
	totalSize := 0
	for _, text := range texts {
		if len(text) > MaxNameLength {
			return fmt.Errorf("name length %d exceeds maximum %d", len(text), MaxNameLength)
		}
		totalSize += 1 + len(text) // length byte + string data
	}

	// Pre-allocate buffer space
	e.buf.Grow(totalSize)

	// Encode all strings
	for _, text := range texts {
		length := uint8(len(text)) //nolint:gosec
		e.buf.MustWrite([]byte{length})
		e.buf.MustWrite([]byte(text))
		e.count++
	}

	return nil
}

// Bytes returns the encoded data as a byte slice.
//
// The returned slice shares the underlying buffer with the encoder.
// Do not modify the returned slice.
//
// Returns:
//   - []byte: Encoded byte slice containing all written strings
func (e *VarStringEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the number of strings encoded.
func (e *VarStringEncoder) Len() int {
	return e.count
}

// Size returns the total size of encoded data in bytes.
func (e *VarStringEncoder) Size() int {
	return e.buf.Len()
}

// Finish finalizes the encoding process and returns the buffer to the pool.
//
// After calling Finish, the encoder should not be used again.
func (e *VarStringEncoder) Finish() {
	if e.buf != nil {
		pool.PutGridBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
}

// VarStringDecoder decodes length-prefixed strings produced by VarStringEncoder.
//
// The decoder is stateless; each call to All or At operates independently on
// the provided data.
type VarStringDecoder struct{}

// NewVarStringDecoder creates a new variable-length string decoder.
//
// Returns:
//   - VarStringDecoder: A new decoder instance (stateless, can be reused)
func NewVarStringDecoder() VarStringDecoder {
	return VarStringDecoder{}
}

// All returns an iterator that yields all strings from the encoded data.
//
// If the data is malformed (a length prefix runs past the end of the slice),
// the iterator stops early. Callers that need exactly count strings must
// verify the yield count.
//
// Parameters:
//   - data: Encoded byte slice from VarStringEncoder.Bytes()
//   - count: Expected number of strings
//
// Returns:
//   - iter.Seq[string]: Iterator yielding decoded strings in written order
func (d VarStringDecoder) All(data []byte, count int) iter.Seq[string] {
	return func(yield func(string) bool) {
		offset := 0
		for yielded := 0; yielded < count && offset < len(data); yielded++ {
			length := int(data[offset])
			offset++

			if offset+length > len(data) {
				return
			}

			if !yield(string(data[offset : offset+length])) {
				return
			}
			offset += length
		}
	}
}

// At retrieves the string at the specified index from the encoded data.
//
// Length prefixes must be walked from the start, so this method is O(index).
//
// Parameters:
//   - data: Encoded byte slice from VarStringEncoder.Bytes()
//   - index: Zero-based string index
//   - count: Total number of strings in the encoded data
//
// Returns:
//   - string: The string at the specified index
//   - bool: true if the index exists and was successfully decoded, false otherwise
func (d VarStringDecoder) At(data []byte, index int, count int) (string, bool) {
	if index < 0 || index >= count {
		return "", false
	}

	offset := 0
	for i := 0; i < count && offset < len(data); i++ {
		length := int(data[offset])
		offset++

		if offset+length > len(data) {
			return "", false
		}

		if i == index {
			return string(data[offset : offset+length]), true
		}
		offset += length
	}

	return "", false
}
