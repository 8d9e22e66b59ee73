package catmap

import (
	"fmt"
	"testing"

	"github.com/arloliu/dshade/errs"
	"github.com/stretchr/testify/require"
)

func TestNewDict(t *testing.T) {
	d := New()

	require.NotNil(t, d)
	require.Equal(t, 0, d.Len())
	require.Empty(t, d.Snapshot())
}

func TestDict_Add_AssignsCodesInOrder(t *testing.T) {
	d := New()

	code, err := d.Add("cat")
	require.NoError(t, err)
	require.Equal(t, int32(0), code)

	code, err = d.Add("dog")
	require.NoError(t, err)
	require.Equal(t, int32(1), code)

	// Re-adding an existing name returns the original code.
	code, err = d.Add("cat")
	require.NoError(t, err)
	require.Equal(t, int32(0), code)

	require.Equal(t, 2, d.Len())
	require.Equal(t, []string{"cat", "dog"}, d.Snapshot())
}

func TestDict_Add_TooManyCategories(t *testing.T) {
	d := New()
	for i := 0; i < MaxCategories; i++ {
		_, err := d.Add(fmt.Sprintf("c%d", i))
		require.NoError(t, err)
	}

	_, err := d.Add("overflow")
	require.ErrorIs(t, err, errs.ErrTooManyCategories)
	require.Equal(t, MaxCategories, d.Len())
}

func TestDict_Lookup(t *testing.T) {
	d := New()
	_, err := d.Add("alpha")
	require.NoError(t, err)

	code, ok := d.Lookup("alpha")
	require.True(t, ok)
	require.Equal(t, int32(0), code)

	_, ok = d.Lookup("beta")
	require.False(t, ok)
}

func TestDict_Name(t *testing.T) {
	d := New()
	_, err := d.Add("alpha")
	require.NoError(t, err)

	name, ok := d.Name(0)
	require.True(t, ok)
	require.Equal(t, "alpha", name)

	_, ok = d.Name(1)
	require.False(t, ok)
	_, ok = d.Name(-1)
	require.False(t, ok)
}

func TestFromNames(t *testing.T) {
	d, err := FromNames([]string{"x", "y", "z"})
	require.NoError(t, err)
	require.Equal(t, 3, d.Len())

	code, ok := d.Lookup("y")
	require.True(t, ok)
	require.Equal(t, int32(1), code)
}

func TestFromNames_Duplicate(t *testing.T) {
	_, err := FromNames([]string{"x", "y", "x"})
	require.ErrorIs(t, err, errs.ErrDuplicateCategory)
}

func TestDict_Snapshot_Isolated(t *testing.T) {
	d := New()
	_, err := d.Add("a")
	require.NoError(t, err)

	snap := d.Snapshot()
	_, err = d.Add("b")
	require.NoError(t, err)

	// The snapshot taken before the second Add must not change.
	require.Equal(t, []string{"a"}, snap)
	require.Equal(t, []string{"a", "b"}, d.Snapshot())
}

func TestIsPrefix(t *testing.T) {
	tests := []struct {
		name string
		prev []string
		next []string
		want bool
	}{
		{name: "empty prefix", prev: nil, next: []string{"a"}, want: true},
		{name: "equal", prev: []string{"a", "b"}, next: []string{"a", "b"}, want: true},
		{name: "proper prefix", prev: []string{"a"}, next: []string{"a", "b"}, want: true},
		{name: "longer than next", prev: []string{"a", "b"}, next: []string{"a"}, want: false},
		{name: "diverging", prev: []string{"a", "c"}, next: []string{"a", "b"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsPrefix(tt.prev, tt.next))
		})
	}
}
