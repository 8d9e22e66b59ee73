package encoding

import (
	"iter"
	"math"
	"unsafe"

	"github.com/arloliu/dshade/endian"
	"github.com/arloliu/dshade/internal/pool"
)

// CellRawEncoder encodes float64 grid cells in their IEEE 754 bit pattern,
// 8 bytes per cell in the engine's byte order.
//
// Raw cells are the fastest encoding and the only one with O(1) random
// access on the decode side. The bit-level copy round-trips NaN exactly,
// which matters because value reductions mark untouched cells with NaN.
// Sparse grids usually shrink further under the XOR encoding; see
// CellXOREncoder.
type CellRawEncoder struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	count  int
}

var _ ColumnarEncoder[float64] = (*CellRawEncoder)(nil)

// NewCellRawEncoder creates a raw cell encoder writing in engine's byte
// order (typically little-endian). The encoder draws its buffer from the
// shared grid pool; call Finish to return it.
func NewCellRawEncoder(engine endian.EndianEngine) *CellRawEncoder {
	return &CellRawEncoder{
		engine: engine,
		buf:    pool.GetGridBuffer(),
	}
}

// Write appends one cell. Whole planes should go through WriteSlice, which
// reserves buffer space once instead of per cell.
//
// Panics if Finish has been called.
func (e *CellRawEncoder) Write(val float64) {
	if e.buf == nil {
		panic("encoding: CellRawEncoder used after Finish")
	}

	start := e.buf.Len()
	e.buf.ExtendOrGrow(8)
	e.engine.PutUint64(e.buf.Slice(start, start+8), math.Float64bits(val))
	e.count++
}

// WriteSlice appends a plane of cells, extending the buffer once and
// encoding directly into the reserved region.
//
// Panics if Finish has been called.
func (e *CellRawEncoder) WriteSlice(values []float64) {
	if e.buf == nil {
		panic("encoding: CellRawEncoder used after Finish")
	}
	if len(values) == 0 {
		return
	}

	start := e.buf.Len()
	e.buf.ExtendOrGrow(len(values) * 8)

	dst := e.buf.Slice(start, start+len(values)*8)
	for i, v := range values {
		e.engine.PutUint64(dst[i*8:(i+1)*8], math.Float64bits(v))
	}
	e.count += len(values)
}

// Bytes returns the encoded cells, 8 bytes each in write order. The slice
// aliases the pooled buffer: it stays valid until the next Write,
// WriteSlice or Finish call and must not be modified.
//
// Panics if Finish has been called.
func (e *CellRawEncoder) Bytes() []byte {
	if e.buf == nil {
		panic("encoding: CellRawEncoder used after Finish")
	}

	return e.buf.Bytes()
}

// Len returns the number of encoded cells.
func (e *CellRawEncoder) Len() int {
	return e.count
}

// Size returns the payload size in bytes.
//
// Panics if Finish has been called.
func (e *CellRawEncoder) Size() int {
	if e.buf == nil {
		panic("encoding: CellRawEncoder used after Finish")
	}

	return e.buf.Len()
}

// Reset is a no-op: raw encoding carries no predictor state, so the planes
// of a categorical grid append back to back with or without it.
func (e *CellRawEncoder) Reset() {}

// Finish returns the pooled buffer. The encoder is unusable afterwards;
// create a new one to encode more planes.
func (e *CellRawEncoder) Finish() {
	if e.buf != nil {
		pool.PutGridBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
}

// CellRawDecoder decodes payloads produced by CellRawEncoder.
//
// The struct is a stateless value; one decoder serves any number of
// payloads from any number of goroutines.
type CellRawDecoder struct {
	engine endian.EndianEngine
}

var _ ColumnarDecoder[float64] = CellRawDecoder{}

// NewCellRawDecoder creates a raw cell decoder. engine must match the one
// the payload was encoded with.
func NewCellRawDecoder(engine endian.EndianEngine) CellRawDecoder {
	return CellRawDecoder{engine: engine}
}

// All yields count cells in row-major order. A payload shorter than
// count*8 bytes yields nothing.
func (d CellRawDecoder) All(data []byte, count int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if count <= 0 || len(data) < count*8 {
			return
		}

		for off := 0; off < count*8; off += 8 {
			if !yield(math.Float64frombits(d.engine.Uint64(data[off : off+8]))) {
				return
			}
		}
	}
}

// At returns the cell at a row-major index (y*width + x) by direct seek.
// Out-of-range indexes and truncated payloads return false.
func (d CellRawDecoder) At(data []byte, index int, count int) (float64, bool) {
	if index < 0 || index >= count {
		return 0, false
	}

	start := index * 8
	if start+8 > len(data) {
		return 0, false
	}

	return math.Float64frombits(d.engine.Uint64(data[start : start+8])), true
}

// CellRawUnsafeDecoder reinterprets a raw payload as a []float64 in place
// instead of decoding cell by cell, which is substantially faster for full
// planes.
//
// The reinterpretation is only correct when the payload byte order matches
// the host's; gate selection on endian.CompareNativeEndian. The decoded
// values share memory with the payload, so the payload must stay alive and
// unmodified while they are in use.
type CellRawUnsafeDecoder struct {
	engine endian.EndianEngine
}

var _ ColumnarDecoder[float64] = CellRawUnsafeDecoder{}

// NewCellRawUnsafeDecoder creates the zero-copy raw decoder. engine must
// equal the host byte order for correct results.
func NewCellRawUnsafeDecoder(engine endian.EndianEngine) CellRawUnsafeDecoder {
	return CellRawUnsafeDecoder{engine: engine}
}

// All yields count cells in row-major order through an in-place view of
// the payload. Payloads shorter than count*8 bytes yield nothing.
func (d CellRawUnsafeDecoder) All(data []byte, count int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if count <= 0 || len(data) < count*8 {
			return
		}

		cells, ok := viewFloat64Cells(data[:count*8])
		if !ok {
			return
		}
		for _, v := range cells {
			if !yield(v) {
				return
			}
		}
	}
}

// At returns the cell at a row-major index through an in-place view of the
// payload.
func (d CellRawUnsafeDecoder) At(data []byte, index int, count int) (float64, bool) {
	if index < 0 || index >= count {
		return 0, false
	}

	cells, ok := viewFloat64Cells(data)
	if !ok || index >= len(cells) {
		return 0, false
	}

	return cells[index], true
}

// viewFloat64Cells reinterprets data as float64 cells without copying.
// Payloads that are empty or not a whole number of cells return false.
func viewFloat64Cells(data []byte) ([]float64, bool) {
	if len(data) == 0 || len(data)%8 != 0 {
		return nil, false
	}

	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), len(data)/8), true
}
