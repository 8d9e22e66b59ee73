package pool

import "sync"

// Shading builds full-canvas scratch planes per call (the finite-value set
// that fixes the normalization, and categorical cell totals); the pool lets
// a render loop reuse those planes across frames.
var float64SlicePool = sync.Pool{
	New: func() any { return new([]float64) },
}

// GetFloat64Slice returns a float64 slice of exactly the requested length
// drawn from a shared pool, plus the release func that returns it (typically
// deferred). Contents are not zeroed; callers must initialize every element
// they read, and must not retain the slice past release.
//
//	scratch, release := pool.GetFloat64Slice(grid.NumCells())
//	defer release()
func GetFloat64Slice(size int) ([]float64, func()) {
	ptr, _ := float64SlicePool.Get().(*[]float64)
	if cap(*ptr) < size {
		*ptr = make([]float64, size)
	}
	s := (*ptr)[:size]
	*ptr = s

	return s, func() { float64SlicePool.Put(ptr) }
}
