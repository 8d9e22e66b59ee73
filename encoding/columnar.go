package encoding

import "iter"

// ColumnarEncoder encodes a homogeneous value sequence into one contiguous
// payload. Grid payloads are columnar: each plane of cells is one value
// sequence, and a categorical grid concatenates its planes into a single
// buffer with Reset marking the plane boundaries.
type ColumnarEncoder[T comparable] interface {
	// Bytes returns the payload encoded so far. The slice aliases the
	// encoder's pooled buffer: it stays valid until the next Write,
	// WriteSlice or Finish call and must not be modified.
	Bytes() []byte

	// Len returns the number of values encoded so far.
	Len() int

	// Size returns the payload size in bytes.
	Size() int

	// Reset clears predictor state without discarding buffered bytes, so
	// the next value starts an independent sequence (the next plane of a
	// categorical grid) inside the same payload. Len, Size and Bytes are
	// unaffected.
	Reset()

	// Finish returns the encoder's buffer to the pool. The encoder is dead
	// afterwards; further calls may panic on the nil buffer. Consume Bytes
	// before Finish runs, and defer it so error paths release the buffer
	// too:
	//
	//	cells := NewCellRawEncoder(engine)
	//	defer cells.Finish()
	//
	//	cells.WriteSlice(grid.Data)
	//	payload, err := compress.CompressWithSize(codec, cells.Bytes())
	Finish()

	// Write encodes one value. For whole planes WriteSlice is faster.
	Write(data T)

	// WriteSlice encodes values in bulk.
	WriteSlice(values []T)
}

// ColumnarDecoder reads values back out of an encoded payload. Decoders
// hold no per-payload state, so one instance can serve many grids
// concurrently.
type ColumnarDecoder[T comparable] interface {
	// All yields the payload's values in encoding order. count is the
	// number of values the payload is supposed to hold; malformed or
	// truncated payloads yield fewer, so callers needing exactly count
	// values must verify.
	All(data []byte, count int) iter.Seq[T]

	// At returns the value at a zero-based index. Raw payloads seek
	// directly; delta-style payloads replay from the start, so iterate with
	// All when reading many values. count bounds the payload as in All;
	// out-of-range indexes return false.
	At(data []byte, index int, count int) (T, bool)
}
