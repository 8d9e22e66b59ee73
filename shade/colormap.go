package shade

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/aclements/go-gg/palette"

	"github.com/arloliu/dshade/errs"
)

// Colormap maps a normalized value in [0, 1] to a color.
//
// Any palette.Continuous works; the built-in maps are RGBGradient ramps over
// fixed stop colors. A single-color gradient is valid and produces a constant
// hue whose intensity comes entirely from the alpha ramp.
type Colormap = palette.Continuous

// Built-in colormap stop lists. Gradients interpolate between these in sRGB
// space via the palette package.
var (
	fireHex     = []string{"#000000", "#4d0000", "#8b0000", "#cd3700", "#ff4500", "#ff8c00", "#ffd700", "#ffff00", "#ffffe0", "#ffffff"}
	grayHex     = []string{"#000000", "#ffffff"}
	viridisHex  = []string{"#440154", "#482878", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}
	coolwarmHex = []string{"#3b4cc0", "#8db0fe", "#dddddd", "#f08b6e", "#b40426"}
)

// Default categorical colors, cycled when a categorical grid has no explicit
// color key.
var defaultKeyHex = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

var builtinColormaps = map[string]Colormap{
	"fire":     mustColormap(fireHex),
	"gray":     mustColormap(grayHex),
	"viridis":  mustColormap(viridisHex),
	"coolwarm": mustColormap(coolwarmHex),
}

func mustColormap(hex []string) Colormap {
	cm, err := NewColormap(hex...)
	if err != nil {
		panic(err)
	}

	return cm
}

// NewColormap builds a gradient colormap from a list of hex colors, evenly
// spaced on [0, 1].
//
// Colors are "#rrggbb" or "#rrggbbaa", case-insensitive, with an optional
// leading '#'. At least one color is required.
func NewColormap(hex ...string) (Colormap, error) {
	if len(hex) == 0 {
		return nil, errs.ErrEmptyColormap
	}

	colors := make([]color.RGBA, 0, len(hex))
	for _, h := range hex {
		c, err := ParseHexColor(h)
		if err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}

	return palette.RGBGradient{Colors: colors}, nil
}

// ColormapByName returns a built-in colormap by name, case-insensitive.
//
// Known names: fire, gray, viridis, coolwarm.
func ColormapByName(name string) (Colormap, error) {
	cm, ok := builtinColormaps[strings.ToLower(name)]
	if !ok {
		names := make([]string, 0, len(builtinColormaps))
		for n := range builtinColormaps {
			names = append(names, n)
		}
		sort.Strings(names)

		return nil, fmt.Errorf("unknown colormap %q, built-ins: %s", name, strings.Join(names, ", "))
	}

	return cm, nil
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa" into an RGBA color.
// The leading '#' is optional.
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	var vals [4]uint8
	vals[3] = 0xFF
	for i := 0; i*2 < len(h); i++ {
		hi, ok1 := hexNibble(h[i*2])
		lo, ok2 := hexNibble(h[i*2+1])
		if !ok1 || !ok2 {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
		}
		vals[i] = hi<<4 | lo
	}

	return color.RGBA{R: vals[0], G: vals[1], B: vals[2], A: vals[3]}, nil
}

func hexNibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}

// ColorKey assigns colors to category planes by index.
type ColorKey []color.RGBA

// NewColorKey builds a color key from hex colors, in category code order.
func NewColorKey(hex ...string) (ColorKey, error) {
	if len(hex) == 0 {
		return nil, fmt.Errorf("empty color key: %w", errs.ErrInvalidColorKey)
	}

	key := make(ColorKey, 0, len(hex))
	for _, h := range hex {
		c, err := ParseHexColor(h)
		if err != nil {
			return nil, err
		}
		key = append(key, c)
	}

	return key, nil
}

// DefaultColorKey returns n colors from the default qualitative cycle.
func DefaultColorKey(n int) ColorKey {
	key := make(ColorKey, n)
	for i := range key {
		c, _ := ParseHexColor(defaultKeyHex[i%len(defaultKeyHex)])
		key[i] = c
	}

	return key
}
