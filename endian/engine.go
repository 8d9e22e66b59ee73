// Package endian supplies the byte-order engines used by the grid cell
// encoders.
//
// The standard library splits byte-order work across two interfaces:
// binary.ByteOrder for fixed-offset reads and writes, and
// binary.AppendByteOrder for append-style encoding. The cell encoders need
// both on one value, so EndianEngine merges them. binary.LittleEndian and
// binary.BigEndian satisfy the merged interface as-is.
//
// # Choosing an engine
//
// Grid payloads default to little-endian:
//
//	engine := endian.GetLittleEndianEngine()
//	encoder := encoding.NewCellRawEncoder(engine)
//
// Big-endian exists for payloads exchanged with big-endian producers. On a
// host whose native order matches the payload, the raw-cell decoder can
// reinterpret the payload in place instead of converting cell by cell;
// CompareNativeEndian is how callers detect that case.
//
// # Why append operations matter
//
// A rasterized grid is encoded as one AppendUint64 per cell. With plain
// ByteOrder each cell would round-trip through a temporary 8-byte scratch
// slice; AppendByteOrder writes straight into the growing payload, which is
// measurably faster across a full canvas.
//
// Engines are stateless and safe for concurrent use.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine is a byte order that supports both fixed-offset access
// (binary.ByteOrder) and append-style encoding (binary.AppendByteOrder).
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// The host byte order never changes at runtime, so probe it once. Writing
// uint16(1) places the 1-byte at the lowest address only on little-endian
// hardware.
var nativeOrder = func() binary.ByteOrder {
	v := uint16(1)
	if *(*byte)(unsafe.Pointer(&v)) == 1 {
		return binary.LittleEndian
	}

	return binary.BigEndian
}()

// CheckEndianness reports the host's native byte order.
func CheckEndianness() binary.ByteOrder {
	return nativeOrder
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return nativeOrder == binary.LittleEndian
}

// IsNativeBigEndian reports whether the host is big-endian.
func IsNativeBigEndian() bool {
	return nativeOrder == binary.BigEndian
}

// CompareNativeEndian reports whether engine matches the host byte order.
// Decoders use this to decide when a payload's cells can be reinterpreted
// in place rather than converted one at a time.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == nativeOrder
}

// GetLittleEndianEngine returns the little-endian engine, the default for
// grid payloads.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
