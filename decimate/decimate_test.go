package decimate

import (
	"context"
	"iter"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/source"
)

// rampTable builds a table with x = offset..offset+n-1 and y = x/2.
func rampTable(t *testing.T, offset, n int) *source.Table {
	t.Helper()

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range n {
		xs[i] = float64(offset + i)
		ys[i] = float64(offset+i) * 0.5
	}

	table := source.NewTable()
	require.NoError(t, table.AddFloats("x", xs))
	require.NoError(t, table.AddFloats("y", ys))

	return table
}

func gatherFloats(t *testing.T, src source.Source, col string) []float64 {
	t.Helper()

	var out []float64
	for chunk, err := range src.Chunks(context.Background()) {
		require.NoError(t, err)
		values, ok := chunk.Float(col)
		require.True(t, ok, "column %q missing", col)
		out = append(out, values...)
	}

	return out
}

// unsized hides a source's row count, forcing the sampling path.
type unsized struct {
	src source.Source
}

func (u unsized) Chunks(ctx context.Context) iter.Seq2[*source.Chunk, error] {
	return u.src.Chunks(ctx)
}

func TestNew_Validation(t *testing.T) {
	table := rampTable(t, 0, 10)

	t.Run("nil source", func(t *testing.T) {
		_, err := New(nil, 100)
		require.Error(t, err)
	})

	t.Run("non-positive max points", func(t *testing.T) {
		_, err := New(table, 0)
		require.Error(t, err)
		require.Contains(t, err.Error(), "max points")

		_, err = New(table, -5)
		require.Error(t, err)
		require.Contains(t, err.Error(), "max points")
	})

	t.Run("empty identity columns", func(t *testing.T) {
		_, err := New(table, 100, WithColumns())
		require.Error(t, err)
		require.Contains(t, err.Error(), "identity columns")
	})
}

func TestDecimate_PassthroughWhenSmall(t *testing.T) {
	table := rampTable(t, 0, 100)

	t.Run("sized source under budget", func(t *testing.T) {
		dec, err := New(table, 100)
		require.NoError(t, err)

		xs := gatherFloats(t, dec, "x")
		require.Len(t, xs, 100)
		for i, x := range xs {
			require.Equal(t, float64(i), x)
		}
	})

	t.Run("unsized source under budget", func(t *testing.T) {
		dec, err := New(unsized{table}, 1000)
		require.NoError(t, err)

		xs := gatherFloats(t, dec, "x")
		require.Len(t, xs, 100)
		for i, x := range xs {
			require.Equal(t, float64(i), x)
		}
	})
}

func TestDecimate_BoundsRowCount(t *testing.T) {
	table := rampTable(t, 0, 5000).SetChunkSize(512)

	dec, err := New(table, 200)
	require.NoError(t, err)

	xs := gatherFloats(t, dec, "x")
	require.Len(t, xs, 200)

	// Selection preserves the source's row order.
	for i := 1; i < len(xs); i++ {
		require.Greater(t, xs[i], xs[i-1])
	}
}

func TestDecimate_Deterministic(t *testing.T) {
	table := rampTable(t, 0, 5000)

	dec, err := New(table, 300, WithSeed(7))
	require.NoError(t, err)

	first := gatherFloats(t, dec, "x")
	second := gatherFloats(t, dec, "x")
	require.Equal(t, first, second)

	// A fresh decimator with the same settings picks the same rows.
	again, err := New(rampTable(t, 0, 5000), 300, WithSeed(7))
	require.NoError(t, err)
	require.Equal(t, first, gatherFloats(t, again, "x"))
}

func TestDecimate_SeedChangesSelection(t *testing.T) {
	table := rampTable(t, 0, 5000)

	a, err := New(table, 300, WithSeed(1))
	require.NoError(t, err)
	b, err := New(table, 300, WithSeed(2))
	require.NoError(t, err)

	require.NotEqual(t, gatherFloats(t, a, "x"), gatherFloats(t, b, "x"))
}

func TestDecimate_ChunkingInvariant(t *testing.T) {
	small, err := New(rampTable(t, 0, 4000).SetChunkSize(64), 250)
	require.NoError(t, err)
	large, err := New(rampTable(t, 0, 4000).SetChunkSize(100000), 250)
	require.NoError(t, err)

	require.Equal(t, gatherFloats(t, small, "x"), gatherFloats(t, large, "x"))
}

func TestDecimate_StableUnderWindowing(t *testing.T) {
	// Zooming from the full range into a window must keep every sampled
	// point that lies inside the window; that is what makes decimated
	// plots hold still while panning.
	full, err := New(rampTable(t, 0, 10000), 500, WithSeed(3))
	require.NoError(t, err)
	window, err := New(rampTable(t, 2000, 6000), 500, WithSeed(3))
	require.NoError(t, err)

	windowKept := make(map[float64]bool)
	for _, x := range gatherFloats(t, window, "x") {
		windowKept[x] = true
	}

	overlap := 0
	for _, x := range gatherFloats(t, full, "x") {
		if x < 2000 || x >= 8000 {
			continue
		}
		overlap++
		require.True(t, windowKept[x], "point %v dropped when zoomed in", x)
	}
	require.NotZero(t, overlap)
}

func TestDecimate_CategoriesSurvive(t *testing.T) {
	const n = 1000
	xs := make([]float64, n)
	parities := make([]string, n)
	for i := range n {
		xs[i] = float64(i)
		if i%2 == 0 {
			parities[i] = "even"
		} else {
			parities[i] = "odd"
		}
	}

	table := source.NewTable()
	require.NoError(t, table.AddFloats("x", xs))
	require.NoError(t, table.AddCats("parity", parities))

	dec, err := New(table, 100)
	require.NoError(t, err)

	rows := 0
	for chunk, err := range dec.Chunks(context.Background()) {
		require.NoError(t, err)
		x, ok := chunk.Float("x")
		require.True(t, ok)
		parity, ok := chunk.Cat("parity")
		require.True(t, ok)
		require.Equal(t, []string{"even", "odd"}, parity.Dict)

		for i := range chunk.Len() {
			want := "even"
			if int(x[i])%2 == 1 {
				want = "odd"
			}
			require.Equal(t, want, parity.Dict[parity.Codes[i]])
		}
		rows += chunk.Len()
	}
	require.Equal(t, 100, rows)
}

func TestDecimate_IdentityColumns(t *testing.T) {
	// Two datasets share positions but disagree on a value column. Pinning
	// the identity to x keeps the same points in both.
	const n = 3000
	xs := make([]float64, n)
	va := make([]float64, n)
	vb := make([]float64, n)
	for i := range n {
		xs[i] = float64(i)
		va[i] = float64(i % 17)
		vb[i] = float64(i % 23)
	}

	tableA := source.NewTable()
	require.NoError(t, tableA.AddFloats("x", xs))
	require.NoError(t, tableA.AddFloats("value", va))
	tableB := source.NewTable()
	require.NoError(t, tableB.AddFloats("x", xs))
	require.NoError(t, tableB.AddFloats("value", vb))

	a, err := New(tableA, 200, WithColumns("x"))
	require.NoError(t, err)
	b, err := New(tableB, 200, WithColumns("x"))
	require.NoError(t, err)

	require.Equal(t, gatherFloats(t, a, "x"), gatherFloats(t, b, "x"))
}

func TestDecimate_MissingIdentityColumn(t *testing.T) {
	dec, err := New(rampTable(t, 0, 1000), 100, WithColumns("z"))
	require.NoError(t, err)

	for _, err := range dec.Chunks(context.Background()) {
		require.ErrorIs(t, err, errs.ErrMissingColumn)
		return
	}
	t.Fatal("expected an error from iteration")
}

func TestDecimate_NoFloatColumns(t *testing.T) {
	cats := make([]string, 300)
	for i := range cats {
		cats[i] = "c"
	}
	table := source.NewTable()
	require.NoError(t, table.AddCats("kind", cats))

	dec, err := New(table, 100)
	require.NoError(t, err)

	for _, err := range dec.Chunks(context.Background()) {
		require.Error(t, err)
		require.Contains(t, err.Error(), "no float columns")
		return
	}
	t.Fatal("expected an error from iteration")
}

func TestDecimate_EmptySource(t *testing.T) {
	dec, err := New(source.NewTable(), 100)
	require.NoError(t, err)

	count := 0
	for _, err := range dec.Chunks(context.Background()) {
		require.NoError(t, err)
		count++
	}
	require.Zero(t, count)
}
