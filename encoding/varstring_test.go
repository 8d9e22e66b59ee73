package encoding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func collectStrings(t *testing.T, seq func(yield func(string) bool)) []string {
	t.Helper()

	var out []string
	seq(func(s string) bool {
		out = append(out, s)
		return true
	})

	return out
}

func TestVarStringEncoder_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		names []string
	}{
		{name: "species", names: []string{"setosa", "versicolor", "virginica"}},
		{name: "single", names: []string{"cat"}},
		{name: "empty name", names: []string{"", "a", ""}},
		{name: "unicode", names: []string{"管理", "naïve", "δshade"}},
		{name: "max length", names: []string{strings.Repeat("x", MaxNameLength)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder := NewVarStringEncoder()
			defer encoder.Finish()

			require.NoError(t, encoder.WriteSlice(tt.names))
			require.Equal(t, len(tt.names), encoder.Len())

			decoder := NewVarStringDecoder()
			decoded := collectStrings(t, decoder.All(encoder.Bytes(), len(tt.names)))
			require.Equal(t, tt.names, decoded)
		})
	}
}

func TestVarStringEncoder_WriteMatchesWriteSlice(t *testing.T) {
	names := []string{"alpha", "beta", "gamma"}

	bulk := NewVarStringEncoder()
	defer bulk.Finish()
	require.NoError(t, bulk.WriteSlice(names))

	single := NewVarStringEncoder()
	defer single.Finish()
	for _, name := range names {
		require.NoError(t, single.Write(name))
	}

	require.Equal(t, bulk.Bytes(), single.Bytes())
}

func TestVarStringEncoder_RejectsOverlongName(t *testing.T) {
	tooLong := strings.Repeat("y", MaxNameLength+1)

	encoder := NewVarStringEncoder()
	defer encoder.Finish()

	require.Error(t, encoder.Write(tooLong))

	// WriteSlice validates up front and leaves the buffer untouched.
	err := encoder.WriteSlice([]string{"ok", tooLong})
	require.Error(t, err)
	require.Zero(t, encoder.Len())
	require.Zero(t, encoder.Size())
}

func TestVarStringEncoder_SizeAccounting(t *testing.T) {
	encoder := NewVarStringEncoder()
	defer encoder.Finish()

	require.NoError(t, encoder.Write("abc"))
	require.NoError(t, encoder.Write(""))

	// 1 length byte per name plus the name bytes.
	require.Equal(t, (1+3)+(1+0), encoder.Size())
	require.Equal(t, 2, encoder.Len())
}

func TestVarStringDecoder_At(t *testing.T) {
	names := []string{"first", "", "third"}

	encoder := NewVarStringEncoder()
	defer encoder.Finish()
	require.NoError(t, encoder.WriteSlice(names))
	data := encoder.Bytes()

	decoder := NewVarStringDecoder()
	for i, want := range names {
		got, ok := decoder.At(data, i, len(names))
		require.True(t, ok, "index %d", i)
		require.Equal(t, want, got)
	}

	_, ok := decoder.At(data, -1, len(names))
	require.False(t, ok)
	_, ok = decoder.At(data, len(names), len(names))
	require.False(t, ok)
}

func TestVarStringDecoder_TruncatedData(t *testing.T) {
	// Length prefix claims 5 bytes but only 2 follow.
	data := []byte{5, 'a', 'b'}

	decoder := NewVarStringDecoder()
	require.Empty(t, collectStrings(t, decoder.All(data, 1)))

	_, ok := decoder.At(data, 0, 1)
	require.False(t, ok)
}
