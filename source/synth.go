package source

import (
	"math"
	"math/rand"
	"strconv"
)

// Synthetic datasets used by the examples, demos and tests. All generators
// are deterministic for a given seed.

// Blobs generates n points drawn from k Gaussian clusters arranged on a
// circle, with a "cat" category column naming each point's cluster (c0,
// c1, ...). Columns: x, y, cat.
func Blobs(seed int64, n, k int) *Table {
	rng := rand.New(rand.NewSource(seed))

	if k < 1 {
		k = 1
	}

	centerX := make([]float64, k)
	centerY := make([]float64, k)
	names := make([]string, k)
	for i := range k {
		angle := 2 * math.Pi * float64(i) / float64(k)
		centerX[i] = 0.6 * math.Cos(angle)
		centerY[i] = 0.6 * math.Sin(angle)
		names[i] = "c" + strconv.Itoa(i)
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	cats := make([]string, n)
	const sigma = 0.12
	for i := range n {
		c := i % k
		xs[i] = centerX[c] + rng.NormFloat64()*sigma
		ys[i] = centerY[c] + rng.NormFloat64()*sigma
		cats[i] = names[c]
	}

	tbl := NewTable()
	// These cannot fail: fresh table, equal lengths, distinct names.
	_ = tbl.AddFloats("x", xs)
	_ = tbl.AddFloats("y", ys)
	_ = tbl.AddCats("cat", cats)

	return tbl
}

// RandomWalk generates a 2D Gaussian random walk of n steps, the classic
// dense-line dataset. Columns: x, y.
func RandomWalk(seed int64, n int) *Table {
	rng := rand.New(rand.NewSource(seed))

	xs := make([]float64, n)
	ys := make([]float64, n)
	var x, y float64
	for i := range n {
		x += rng.NormFloat64()
		y += rng.NormFloat64()
		xs[i] = x
		ys[i] = y
	}

	tbl := NewTable()
	_ = tbl.AddFloats("x", xs)
	_ = tbl.AddFloats("y", ys)

	return tbl
}

// Signal generates a noisy sinusoid of n samples, the classic instrument
// trace: a base tone, a weaker harmonic and Gaussian noise, sampled at unit
// intervals. Columns: t (sample index), v.
func Signal(seed int64, n int) *Table {
	rng := rand.New(rand.NewSource(seed))

	ts := make([]float64, n)
	vs := make([]float64, n)
	for i := range n {
		t := float64(i)
		ts[i] = t
		vs[i] = math.Sin(t*0.02) + 0.3*math.Sin(t*0.11) + rng.NormFloat64()*0.2
	}

	tbl := NewTable()
	_ = tbl.AddFloats("t", ts)
	_ = tbl.AddFloats("v", vs)

	return tbl
}

// RandomWalks generates a bundle of overlapping 1D random walks of steps
// samples each, concatenated with NaN separator rows so line rasterization
// breaks the pen between walks. Columns: x (sample index), y (walk value).
func RandomWalks(seed int64, walks, steps int) *Table {
	rng := rand.New(rand.NewSource(seed))

	total := walks * (steps + 1)
	xs := make([]float64, 0, total)
	ys := make([]float64, 0, total)
	for range walks {
		y := 0.0
		for i := range steps {
			y += rng.NormFloat64()
			xs = append(xs, float64(i))
			ys = append(ys, y)
		}
		xs = append(xs, math.NaN())
		ys = append(ys, math.NaN())
	}

	tbl := NewTable()
	_ = tbl.AddFloats("x", xs)
	_ = tbl.AddFloats("y", ys)

	return tbl
}
