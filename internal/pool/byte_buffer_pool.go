// Package pool provides reusable scratch buffers for the encode and render
// paths. Encoding a grid or a PNG frame is one large append-heavy burst;
// pooling the backing arrays keeps those bursts from churning the allocator
// under a busy server.
package pool

import (
	"io"
	"sync"
)

// Default capacities and retention caps for the two shared pools. A buffer
// returned larger than its pool's threshold is dropped instead of retained,
// so one oversized grid does not pin memory for the life of the process.
const (
	GridBufferDefaultSize   = 256 << 10 // typical encoded aggregate grid
	GridBufferMaxThreshold  = 8 << 20
	ImageBufferDefaultSize  = 64 << 10 // typical PNG frame
	ImageBufferMaxThreshold = 2 << 20
)

// ByteBuffer is an append-oriented byte slice with explicit length control.
// Unlike bytes.Buffer it exposes its backing slice, which lets encoders
// reserve a header region up front and patch it after the payload is known.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates an empty buffer with the given starting capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the buffer's contents. The slice aliases the buffer.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the current length.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the current capacity.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Reset empties the buffer, keeping its capacity.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Write appends data, growing as needed. It never fails; the error return
// only satisfies io.Writer.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// MustWrite appends data, growing as needed.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// WriteTo copies the buffer's contents to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// Slice returns the buffer's bytes from start to end. The range may extend
// past the length into reserved capacity; out-of-range indices panic.
func (bb *ByteBuffer) Slice(start, end int) []byte {
	if start < 0 || end < start || end > cap(bb.B) {
		panic("pool: slice range out of bounds")
	}

	return bb.B[start:end]
}

// SetLength truncates or extends the length to n within the current
// capacity. Used after patching a reserved region to expose exactly the
// written bytes. Panics if n is negative or exceeds the capacity.
func (bb *ByteBuffer) SetLength(n int) {
	if n < 0 || n > cap(bb.B) {
		panic("pool: length out of range")
	}
	bb.B = bb.B[:n]
}

// Extend lengthens the buffer by n bytes without reallocating. It reports
// false when the capacity cannot hold them.
func (bb *ByteBuffer) Extend(n int) bool {
	if cap(bb.B)-len(bb.B) < n {
		return false
	}
	bb.B = bb.B[:len(bb.B)+n]

	return true
}

// ExtendOrGrow lengthens the buffer by n bytes, reallocating if the
// capacity is short.
func (bb *ByteBuffer) ExtendOrGrow(n int) {
	if bb.Extend(n) {
		return
	}

	target := len(bb.B) + n
	bb.Grow(n)
	bb.B = bb.B[:target]
}

// Grow ensures room for n more bytes. Spare capacity grows by half the
// current capacity, with a 4KiB floor, so cell-at-a-time encode loops
// reallocate a bounded number of times rather than once per append.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}

	extra := cap(bb.B) / 2
	if extra < 4096 {
		extra = 4096
	}
	if extra < n {
		extra = n
	}

	grown := make([]byte, len(bb.B), cap(bb.B)+extra)
	copy(grown, bb.B)
	bb.B = grown
}

// ByteBufferPool hands out ByteBuffers backed by a sync.Pool. Buffers whose
// capacity outgrew maxThreshold are dropped on Put rather than retained.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool whose fresh buffers start at defaultSize
// capacity. maxThreshold of 0 disables the retention cap.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves an empty buffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a buffer for reuse. Nil and oversized buffers are discarded.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}
	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	gridDefaultPool  = NewByteBufferPool(GridBufferDefaultSize, GridBufferMaxThreshold)
	imageDefaultPool = NewByteBufferPool(ImageBufferDefaultSize, ImageBufferMaxThreshold)
)

// GetGridBuffer retrieves a buffer from the shared grid-encoding pool.
func GetGridBuffer() *ByteBuffer {
	return gridDefaultPool.Get()
}

// PutGridBuffer returns a buffer to the shared grid-encoding pool.
func PutGridBuffer(bb *ByteBuffer) {
	gridDefaultPool.Put(bb)
}

// GetImageBuffer retrieves a buffer from the shared image-encoding pool.
func GetImageBuffer() *ByteBuffer {
	return imageDefaultPool.Get()
}

// PutImageBuffer returns a buffer to the shared image-encoding pool.
func PutImageBuffer(bb *ByteBuffer) {
	imageDefaultPool.Put(bb)
}
