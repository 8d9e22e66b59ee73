// Package hash provides the 64-bit identifiers dshade derives from strings
// and from small tuples of integers.
//
// Everything is xxHash64: fast, deterministic across processes, and good
// enough collision behavior for category tables and cache keys.
package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Combine computes the xxHash64 of the given parts, each encoded as 8
// little-endian bytes. It is used for viewport cache keys and for the
// per-point decision hash in decimation, where the inputs are already
// numeric.
func Combine(parts ...uint64) uint64 {
	var d xxhash.Digest
	d.Reset()

	var buf [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(buf[:], p)
		_, _ = d.Write(buf[:])
	}

	return d.Sum64()
}

// Bytes computes the xxHash64 of raw bytes. Gridfile payload checksums use
// this directly.
func Bytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}
