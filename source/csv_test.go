package source

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/arloliu/dshade/errs"
	"github.com/stretchr/testify/require"
)

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestCSVFile_Chunks(t *testing.T) {
	path := writeTestCSV(t, "x,y,kind\n1.5,2,a\n3,4,b\n5,,a\n")

	src := NewCSVFile(path, []string{"x", "y"}, []string{"kind"}).SetChunkSize(2)

	var xs, ys []float64
	var codes []int32
	var lastDict []string
	for chunk, err := range src.Chunks(context.Background()) {
		require.NoError(t, err)

		x, _ := chunk.Float("x")
		y, _ := chunk.Float("y")
		xs = append(xs, x...)
		ys = append(ys, y...)

		cat, ok := chunk.Cat("kind")
		require.True(t, ok)
		codes = append(codes, cat.Codes...)
		lastDict = cat.Dict
	}

	require.Equal(t, []float64{1.5, 3, 5}, xs)
	require.Equal(t, 2.0, ys[0])
	require.Equal(t, 4.0, ys[1])
	require.True(t, math.IsNaN(ys[2]), "empty field parses as NaN")
	require.Equal(t, []int32{0, 1, 0}, codes)
	require.Equal(t, []string{"a", "b"}, lastDict)
}

func TestCSVFile_CumulativeDictionaries(t *testing.T) {
	path := writeTestCSV(t, "x,kind\n1,a\n2,b\n3,c\n")

	src := NewCSVFile(path, []string{"x"}, []string{"kind"}).SetChunkSize(1)

	var dicts [][]string
	for chunk, err := range src.Chunks(context.Background()) {
		require.NoError(t, err)
		cat, _ := chunk.Cat("kind")
		dicts = append(dicts, cat.Dict)
	}

	require.Equal(t, [][]string{{"a"}, {"a", "b"}, {"a", "b", "c"}}, dicts)
}

func TestCSVFile_MissingColumn(t *testing.T) {
	path := writeTestCSV(t, "x,y\n1,2\n")

	src := NewCSVFile(path, []string{"x", "z"}, nil)
	for chunk, err := range src.Chunks(context.Background()) {
		require.Nil(t, chunk)
		require.ErrorIs(t, err, errs.ErrMissingColumn)
	}
}

func TestCSVFile_MissingFile(t *testing.T) {
	src := NewCSVFile(filepath.Join(t.TempDir(), "absent.csv"), []string{"x"}, nil)

	sawErr := false
	for chunk, err := range src.Chunks(context.Background()) {
		require.Nil(t, chunk)
		require.Error(t, err)
		sawErr = true
	}
	require.True(t, sawErr)
}

func TestCSVFile_Rewindable(t *testing.T) {
	path := writeTestCSV(t, "x\n1\n2\n")
	src := NewCSVFile(path, []string{"x"}, nil)

	for range 2 {
		rows := 0
		for chunk, err := range src.Chunks(context.Background()) {
			require.NoError(t, err)
			rows += chunk.Len()
		}
		require.Equal(t, 2, rows)
	}
}
