package canvas

import (
	"testing"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
	"github.com/stretchr/testify/require"
)

// createTestCanvas builds a canvas whose cells map 1:1 onto integer data
// coordinates, which keeps expected cell indices easy to read in tests.
func createTestCanvas(t *testing.T, width, height int) *Canvas {
	t.Helper()

	c, err := New(
		WithSize(width, height),
		WithXRange(geom.NewRange(0, float64(width))),
		WithYRange(geom.NewRange(0, float64(height))),
	)
	require.NoError(t, err)

	return c
}

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	require.Equal(t, DefaultWidth, c.Width())
	require.Equal(t, DefaultHeight, c.Height())
	require.Equal(t, geom.NewRange(0, 1), c.XRange())
	require.Equal(t, geom.NewRange(0, 1), c.YRange())
}

func TestNew_Options(t *testing.T) {
	c, err := New(
		WithSize(320, 200),
		WithXRange(geom.NewRange(-10, 10)),
		WithYRange(geom.NewRange(0, 100)),
		WithWorkers(2),
	)
	require.NoError(t, err)

	require.Equal(t, 320, c.Width())
	require.Equal(t, 200, c.Height())
	require.Equal(t, geom.NewRange(-10, 10), c.XRange())
	require.Equal(t, geom.NewRange(0, 100), c.YRange())
	require.Equal(t, geom.Viewport{X: c.XRange(), Y: c.YRange()}, c.Viewport())
}

func TestNew_WithViewport(t *testing.T) {
	vp := geom.NewViewport(1, 2, 3, 4)
	c, err := New(WithViewport(vp))
	require.NoError(t, err)
	require.Equal(t, vp, c.Viewport())
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(WithSize(0, 100))
	require.ErrorIs(t, err, errs.ErrInvalidCanvasSize)

	_, err = New(WithSize(100, -1))
	require.ErrorIs(t, err, errs.ErrInvalidCanvasSize)
}

func TestNew_InvalidRange(t *testing.T) {
	_, err := New(WithXRange(geom.Range{Min: 5, Max: 5}))
	require.ErrorIs(t, err, errs.ErrInvalidRange)

	_, err = New(WithYRange(geom.Range{Min: 2, Max: 1}))
	require.ErrorIs(t, err, errs.ErrInvalidRange)
}

func TestNew_LogAxisValidation(t *testing.T) {
	_, err := New(WithXLog(), WithXRange(geom.NewRange(-1, 10)))
	require.ErrorIs(t, err, errs.ErrLogRangeNotPositive)

	_, err = New(WithYLog(), WithYRange(geom.NewRange(0, 10)))
	require.ErrorIs(t, err, errs.ErrLogRangeNotPositive)

	c, err := New(WithXLog(), WithXRange(geom.NewRange(1, 1000)))
	require.NoError(t, err)
	require.NotNil(t, c)
}
