package encoding

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCellXOREncoder_RoundTrip(t *testing.T) {
	for name, plane := range testPlanes() {
		t.Run(name, func(t *testing.T) {
			encoder := NewCellXOREncoder()
			defer encoder.Finish()

			encoder.WriteSlice(plane)
			require.Equal(t, len(plane), encoder.Len())

			decoder := NewCellXORDecoder()
			decoded := collect(t, decoder.All(encoder.Bytes(), len(plane)))
			require.True(t, samePattern(plane, decoded),
				"expected %v, got %v", plane, decoded)
		})
	}
}

func TestCellXOREncoder_WriteMatchesWriteSlice(t *testing.T) {
	plane := testPlanes()["nan_fill"]

	bulk := NewCellXOREncoder()
	defer bulk.Finish()
	bulk.WriteSlice(plane)

	single := NewCellXOREncoder()
	defer single.Finish()
	for _, v := range plane {
		single.Write(v)
	}

	require.Equal(t, bulk.Bytes(), single.Bytes())
	require.Equal(t, bulk.Len(), single.Len())
}

func TestCellXOREncoder_RepeatedCellsCostOneByte(t *testing.T) {
	// After the first cell, every repeated cell XORs to zero: 1 byte each.
	tests := []struct {
		name string
		fill float64
	}{
		{name: "zero fill", fill: 0},
		{name: "nan fill", fill: math.NaN()},
		{name: "constant fill", fill: 123.456},
	}

	const cells = 1000

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plane := make([]float64, cells)
			for i := range plane {
				plane[i] = tt.fill
			}

			encoder := NewCellXOREncoder()
			defer encoder.Finish()
			encoder.WriteSlice(plane)

			// First cell costs up to 10 bytes, the rest 1 byte each.
			require.LessOrEqual(t, encoder.Size(), 10+(cells-1))
			require.Less(t, encoder.Size(), cells*8, "must beat raw encoding")

			decoded := collect(t, NewCellXORDecoder().All(encoder.Bytes(), cells))
			require.True(t, samePattern(plane, decoded))
		})
	}
}

func TestCellXOREncoder_SparseBeatsRaw(t *testing.T) {
	// A plane resembling a scatter count grid: ~2% occupied cells.
	const cells = 300 * 200
	plane := make([]float64, cells)
	for i := 0; i < cells; i += 53 {
		plane[i] = float64(i%9 + 1)
	}

	encoder := NewCellXOREncoder()
	defer encoder.Finish()
	encoder.WriteSlice(plane)

	rawSize := cells * 8
	t.Logf("raw: %d bytes, xor: %d bytes (%.1f%%)",
		rawSize, encoder.Size(), float64(encoder.Size())/float64(rawSize)*100)
	require.Less(t, encoder.Size(), rawSize/3)

	decoded := collect(t, NewCellXORDecoder().All(encoder.Bytes(), cells))
	require.True(t, samePattern(plane, decoded))
}

func TestCellXOREncoder_Reset(t *testing.T) {
	encoder := NewCellXOREncoder()
	defer encoder.Finish()

	first := []float64{1, 2, 3}
	second := []float64{4, 5}

	encoder.WriteSlice(first)
	firstSize := encoder.Size()
	encoder.Reset()
	encoder.WriteSlice(second)

	require.Equal(t, len(first)+len(second), encoder.Len())

	// Each sequence decodes independently from its own chain start.
	data := slices.Clone(encoder.Bytes())
	decoder := NewCellXORDecoder()

	gotFirst := collect(t, decoder.All(data[:firstSize], len(first)))
	require.True(t, samePattern(first, gotFirst))

	gotSecond := collect(t, decoder.All(data[firstSize:], len(second)))
	require.True(t, samePattern(second, gotSecond))
}

func TestCellXORDecoder_At(t *testing.T) {
	plane := []float64{0, 0, 2.5, math.NaN(), -7, 0}

	encoder := NewCellXOREncoder()
	defer encoder.Finish()
	encoder.WriteSlice(plane)
	data := slices.Clone(encoder.Bytes())

	decoder := NewCellXORDecoder()
	for i, want := range plane {
		got, ok := decoder.At(data, i, len(plane))
		require.True(t, ok, "index %d", i)
		require.Equal(t, math.Float64bits(want), math.Float64bits(got), "index %d", i)
	}

	_, ok := decoder.At(data, -1, len(plane))
	require.False(t, ok)
	_, ok = decoder.At(data, len(plane), len(plane))
	require.False(t, ok)
	_, ok = decoder.At(nil, 0, len(plane))
	require.False(t, ok)
}

func TestCellXORDecoder_TruncatedData(t *testing.T) {
	plane := []float64{1.5, 2.5, 3.5, 4.5}

	encoder := NewCellXOREncoder()
	defer encoder.Finish()
	encoder.WriteSlice(plane)
	data := slices.Clone(encoder.Bytes())

	// Cut the payload mid-stream: the iterator must stop without panicking.
	decoder := NewCellXORDecoder()
	decoded := collect(t, decoder.All(data[:len(data)/2], len(plane)))
	require.Less(t, len(decoded), len(plane))

	for i, v := range decoded {
		require.Equal(t, math.Float64bits(plane[i]), math.Float64bits(v))
	}
}

func TestCellXORDecoder_EmptyInput(t *testing.T) {
	decoder := NewCellXORDecoder()

	require.Empty(t, collect(t, decoder.All(nil, 5)))
	require.Empty(t, collect(t, decoder.All([]byte{1, 2, 3}, 0)))
}

func TestCellXORDecoder_EarlyBreak(t *testing.T) {
	plane := []float64{10, 20, 30, 40}

	encoder := NewCellXOREncoder()
	defer encoder.Finish()
	encoder.WriteSlice(plane)

	var got []float64
	for v := range NewCellXORDecoder().All(encoder.Bytes(), len(plane)) {
		got = append(got, v)
		if len(got) == 2 {
			break
		}
	}
	require.Equal(t, []float64{10, 20}, got)
}
