package shade

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/dshade/errs"
)

func newTestImage(w, h int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	img.SetNRGBA(x, y, c)
}

func countOpaque(img *image.NRGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			n++
		}
	}

	return n
}

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
)

func TestSpread_Identity(t *testing.T) {
	img := newTestImage(5, 5)
	setPixel(img, 2, 2, red)

	out, err := Spread(img, 0)
	require.NoError(t, err)
	require.Same(t, img, out)

	_, err = Spread(img, -1)
	require.ErrorIs(t, err, errs.ErrInvalidSpreadPx)
}

func TestSpread_MaskShapes(t *testing.T) {
	tests := []struct {
		shape      Shape
		px         int
		wantPixels int
	}{
		{shape: ShapeSquare, px: 1, wantPixels: 9},
		{shape: ShapeCircle, px: 1, wantPixels: 9},
		{shape: ShapeCross, px: 1, wantPixels: 5},
		{shape: ShapeSquare, px: 2, wantPixels: 25},
		{shape: ShapeCircle, px: 2, wantPixels: 21},
		{shape: ShapeCross, px: 2, wantPixels: 9},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_px%d", tt.shape, tt.px), func(t *testing.T) {
			img := newTestImage(7, 7)
			setPixel(img, 3, 3, red)

			out, err := Spread(img, tt.px, WithShape(tt.shape))
			require.NoError(t, err)
			require.Equal(t, tt.wantPixels, countOpaque(out))

			// The source pixel and its axis neighbors are always covered.
			require.Equal(t, red, out.NRGBAAt(3, 3))
			require.Equal(t, red, out.NRGBAAt(3, 3-tt.px))
			require.Equal(t, red, out.NRGBAAt(3+tt.px, 3))
		})
	}
}

func TestSpread_CircleExcludesCorners(t *testing.T) {
	img := newTestImage(7, 7)
	setPixel(img, 3, 3, red)

	out, err := Spread(img, 2, WithShape(ShapeCircle))
	require.NoError(t, err)
	require.Zero(t, out.NRGBAAt(1, 1).A)
	require.Zero(t, out.NRGBAAt(5, 5).A)

	square, err := Spread(img, 2, WithShape(ShapeSquare))
	require.NoError(t, err)
	require.Equal(t, red, square.NRGBAAt(1, 1))
}

func TestSpread_EdgeClipping(t *testing.T) {
	img := newTestImage(4, 4)
	setPixel(img, 0, 0, red)

	out, err := Spread(img, 1, WithShape(ShapeSquare))
	require.NoError(t, err)

	// The mask clips at the border instead of wrapping.
	require.Equal(t, 4, countOpaque(out))
	require.Equal(t, red, out.NRGBAAt(0, 0))
	require.Equal(t, red, out.NRGBAAt(1, 1))
	require.Zero(t, out.NRGBAAt(3, 3).A)
}

func TestSpread_PreservesAlpha(t *testing.T) {
	faint := color.NRGBA{R: 200, A: 128}
	img := newTestImage(5, 5)
	setPixel(img, 2, 2, faint)

	out, err := Spread(img, 1, WithShape(ShapeSquare))
	require.NoError(t, err)

	// A single source pixel contributes exactly one copy per target, so
	// spreading alone must not intensify it.
	for _, at := range []image.Point{{2, 2}, {1, 1}, {3, 3}, {2, 1}} {
		got := out.NRGBAAt(at.X, at.Y)
		require.Equal(t, faint.A, got.A, "at %v", at)
		require.Equal(t, faint.R, got.R, "at %v", at)
	}
}

func TestSpread_OverlapCompositing(t *testing.T) {
	// Two opaque pixels two apart overlap in the middle column when spread
	// by one.
	build := func() *image.NRGBA {
		img := newTestImage(5, 5)
		setPixel(img, 1, 2, red)
		setPixel(img, 3, 2, green)

		return img
	}

	t.Run("add mixes channels", func(t *testing.T) {
		out, err := Spread(build(), 1, WithShape(ShapeSquare), WithCompositeOp(OpAdd))
		require.NoError(t, err)
		got := out.NRGBAAt(2, 2)
		require.Equal(t, color.NRGBA{R: 255, G: 255, B: 0, A: 255}, got)
	})

	t.Run("max keeps channel peaks", func(t *testing.T) {
		out, err := Spread(build(), 1, WithShape(ShapeSquare), WithCompositeOp(OpMax))
		require.NoError(t, err)
		got := out.NRGBAAt(2, 2)
		require.Equal(t, color.NRGBA{R: 255, G: 255, B: 0, A: 255}, got)
	})

	t.Run("over keeps one source", func(t *testing.T) {
		out, err := Spread(build(), 1, WithShape(ShapeSquare), WithCompositeOp(OpOver))
		require.NoError(t, err)
		got := out.NRGBAAt(2, 2)
		require.EqualValues(t, 255, got.A)
		// Opaque copies do not mix under source-over.
		require.True(t, got == red || got == green, "got %v", got)
	})
}

func TestSpread_InvalidOptions(t *testing.T) {
	img := newTestImage(2, 2)

	_, err := Spread(img, 1, WithShape(Shape(9)))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid spread shape")

	_, err = Spread(img, 1, WithCompositeOp(CompositeOp(9)))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid composite operator")
}

func TestDynspread_SparsePointsGrow(t *testing.T) {
	img := newTestImage(9, 9)
	setPixel(img, 4, 4, red)

	out, err := Dynspread(img, 0.5, 3)
	require.NoError(t, err)

	// One isolated pixel has density zero; a single spread round makes a
	// blob whose pixels all have neighbors.
	require.Equal(t, 9, countOpaque(out))
}

func TestDynspread_DenseImageUnchanged(t *testing.T) {
	img := newTestImage(4, 4)
	for y := range 4 {
		for x := range 4 {
			setPixel(img, x, y, red)
		}
	}

	out, err := Dynspread(img, 0.5, 3)
	require.NoError(t, err)
	require.Same(t, img, out)
}

func TestDynspread_EmptyImageUnchanged(t *testing.T) {
	img := newTestImage(6, 6)

	out, err := Dynspread(img, 0.5, 3)
	require.NoError(t, err)
	require.Same(t, img, out)
}

func TestDynspread_MaxPxCapsGrowth(t *testing.T) {
	img := newTestImage(9, 9)
	setPixel(img, 4, 4, red)

	out, err := Dynspread(img, 0.5, 0)
	require.NoError(t, err)
	require.Same(t, img, out)
	require.Equal(t, 1, countOpaque(out))
}

func TestDynspread_InvalidInputs(t *testing.T) {
	img := newTestImage(2, 2)

	for _, threshold := range []float64{0, -1, 1.5} {
		_, err := Dynspread(img, threshold, 3)
		require.Error(t, err, "threshold %v", threshold)
	}

	_, err := Dynspread(img, 0.5, -1)
	require.ErrorIs(t, err, errs.ErrInvalidSpreadPx)
}

func TestParseShapeAndOp(t *testing.T) {
	for _, name := range []string{"circle", "square", "cross"} {
		shape, err := ParseShape(name)
		require.NoError(t, err)
		require.Equal(t, name, shape.String())
	}
	_, err := ParseShape("diamond")
	require.Error(t, err)

	for _, name := range []string{"over", "add", "max"} {
		op, err := ParseCompositeOp(name)
		require.NoError(t, err)
		require.Equal(t, name, op.String())
	}
	_, err = ParseCompositeOp("screen")
	require.Error(t, err)
}

func TestStack_OverComposite(t *testing.T) {
	base := newTestImage(2, 2)
	for y := range 2 {
		for x := range 2 {
			setPixel(base, x, y, red)
		}
	}
	layer := newTestImage(2, 2)
	setPixel(layer, 0, 0, green)
	setPixel(layer, 1, 1, color.NRGBA{G: 255, A: 128})

	out, err := Stack(base, layer)
	require.NoError(t, err)

	// Opaque layer pixel replaces the base.
	require.Equal(t, green, out.NRGBAAt(0, 0))
	// Uncovered base pixels pass through.
	require.Equal(t, red, out.NRGBAAt(1, 0))
	require.Equal(t, red, out.NRGBAAt(0, 1))

	// Half-transparent green over opaque red blends both.
	blended := out.NRGBAAt(1, 1)
	require.EqualValues(t, 255, blended.A)
	require.EqualValues(t, 127, blended.R)
	require.EqualValues(t, 128, blended.G)

	// Inputs are not mutated.
	require.Equal(t, red, base.NRGBAAt(0, 0))
}

func TestStack_SingleAndErrors(t *testing.T) {
	img := newTestImage(3, 3)
	setPixel(img, 1, 1, red)

	out, err := Stack(img)
	require.NoError(t, err)
	require.NotSame(t, img, out)
	require.Equal(t, img.Pix, out.Pix)

	_, err = Stack()
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one image")

	_, err = Stack(img, newTestImage(2, 3))
	require.ErrorIs(t, err, errs.ErrImageSizeMismatch)
}

func TestResample(t *testing.T) {
	img := newTestImage(2, 2)
	for y := range 2 {
		for x := range 2 {
			setPixel(img, x, y, red)
		}
	}

	up, err := Resample(img, 4, 4)
	require.NoError(t, err)
	require.Equal(t, 4, up.Rect.Dx())
	require.Equal(t, 4, up.Rect.Dy())
	// A solid image stays solid through bilinear rescale.
	for y := range 4 {
		for x := range 4 {
			require.Equal(t, red, up.NRGBAAt(x, y))
		}
	}

	down, err := Resample(up, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 2, down.Rect.Dx())

	_, err = Resample(img, 0, 4)
	require.ErrorIs(t, err, errs.ErrInvalidCanvasSize)
	_, err = Resample(img, 4, -1)
	require.ErrorIs(t, err, errs.ErrInvalidCanvasSize)
}
