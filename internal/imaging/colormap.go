package imaging

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Colormap maps a normalized intensity in [0, 1] to a color by blending
// between evenly spaced stops in CIE L*a*b* space.
type Colormap struct {
	Name  string
	stops []colorful.Color
}

// DefaultColormap is used when no colormap is named.
const DefaultColormap = "inverted"

// MaskColor paints pixels flagged by the detector (negative samples).
var MaskColor = color.NRGBA{R: 0x30, G: 0x60, B: 0xC0, A: 0xFF}

var colormapStops = map[string][]string{
	"gray":     {"#000000", "#ffffff"},
	"inverted": {"#ffffff", "#000000"},
	"heat":     {"#000000", "#800000", "#ff4000", "#ffc000", "#ffffff"},
	"viridis":  {"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"},
	"inferno":  {"#000004", "#57106e", "#bc3754", "#f98e09", "#fcffa4"},
}

// ColormapNames lists the available colormaps in sorted order.
func ColormapNames() []string {
	names := make([]string, 0, len(colormapStops))
	for name := range colormapStops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasColormap reports whether name is a known colormap.
func HasColormap(name string) bool {
	_, ok := colormapStops[name]
	return ok
}

// LookupColormap returns the named colormap. An empty name selects
// DefaultColormap.
func LookupColormap(name string) (Colormap, bool) {
	if name == "" {
		name = DefaultColormap
	}
	hexes, ok := colormapStops[name]
	if !ok {
		return Colormap{}, false
	}
	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		stops[i], _ = colorful.Hex(h)
	}
	return Colormap{Name: name, stops: stops}, true
}

// At returns the color for t, clamped to [0, 1].
func (m Colormap) At(t float64) color.NRGBA {
	switch {
	case t <= 0:
		t = 0
	case t >= 1:
		t = 1
	}
	n := len(m.stops) - 1
	pos := t * float64(n)
	i := int(pos)
	if i >= n {
		i = n - 1
	}
	c := m.stops[i].BlendLab(m.stops[i+1], pos-float64(i)).Clamped()
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xFF}
}

// Table precomputes the colormap for 8-bit intensities.
func (m Colormap) Table() [256]color.NRGBA {
	var lut [256]color.NRGBA
	for i := range lut {
		lut[i] = m.At(float64(i) / 255)
	}
	return lut
}

// parseColor reads "#RRGGBB", "#RGB" or "#RRGGBBAA"; the "#" is optional.
// The alpha byte defaults to 0xFF.
func parseColor(hex string) (color.NRGBA, error) {
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	alpha := uint8(0xFF)
	switch len(hex) {
	case 4, 7:
	case 9:
		a, err := colorful.Hex("#" + hex[7:9] + "0000")
		if err != nil {
			return color.NRGBA{}, err
		}
		alpha, _, _ = a.RGB255()
		hex = hex[:7]
	default:
		return color.NRGBA{}, fmt.Errorf("invalid color %q", hex)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}
