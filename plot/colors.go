package plot

import (
	"fmt"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

var namedColors = map[string]string{
	"black":         "000000",
	"white":         "ffffff",
	"red":           "ff0000",
	"green":         "008000",
	"blue":          "0000ff",
	"crimson":       "dc143c",
	"darkslategrey": "2f4f4f",
	"darkslategray": "2f4f4f",
	"indigo":        "4b0082",
	"grey":          "808080",
	"gray":          "808080",
	"lightgrey":     "d3d3d3",
	"tab:blue":      "1f77b4",
	"brown":         "a52a2a",
	"purple":        "800080",
	"orange":        "ffa500",
}

// NamedColor resolves a colour name or a "#rrggbb" hex string.
func NamedColor(name string) (drawing.Color, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return drawing.ColorBlack, nil
	}
	if strings.HasPrefix(n, "#") && len(n) == 7 {
		return drawing.ColorFromHex(n[1:]), nil
	}
	if hex, ok := namedColors[n]; ok {
		return drawing.ColorFromHex(hex), nil
	}
	return drawing.Color{}, fmt.Errorf("unknown colour %q", name)
}

func mustColor(name string) drawing.Color {
	c, err := NamedColor(name)
	if err != nil {
		return drawing.ColorBlack
	}
	return c
}

// Colormap maps values in [0, 1] onto colours.
type Colormap struct {
	Name    string
	anchors []drawing.Color
}

var colormaps = map[string][]string{
	"coolwarm": {"3b4cc0", "688aef", "99baff", "c9d8ef", "edd1c2", "f7a789", "e26a53", "b40426"},
	"bupu":     {"f7fcfd", "e0ecf4", "bfd3e6", "9ebcda", "8c96c6", "8c6bb1", "88419d", "810f7c", "4d004b"},
	"bwr":      {"0000ff", "ffffff", "ff0000"},
	"puor":     {"7f3b08", "b35806", "e08214", "fdb863", "fee0b6", "f7f7f7", "d8daeb", "b2abd2", "8073ac", "542788", "2d004b"},
	"greens":   {"f7fcf5", "c7e9c0", "74c476", "238b45", "00441b"},
	"blues":    {"f7fbff", "c6dbef", "6baed6", "2171b5", "08306b"},
}

// LookupColormap finds a colormap by name. A "_r" suffix reverses it.
func LookupColormap(name string) (Colormap, error) {
	n := strings.ToLower(name)
	reversed := strings.HasSuffix(n, "_r")
	n = strings.TrimSuffix(n, "_r")
	hexes, ok := colormaps[n]
	if !ok {
		return Colormap{}, fmt.Errorf("unknown colormap %q", name)
	}
	cm := Colormap{Name: name, anchors: make([]drawing.Color, len(hexes))}
	for i, h := range hexes {
		idx := i
		if reversed {
			idx = len(hexes) - 1 - i
		}
		cm.anchors[idx] = drawing.ColorFromHex(h)
	}
	return cm, nil
}

// At returns the colour for t, clamped to [0, 1].
func (c Colormap) At(t float64) drawing.Color {
	if len(c.anchors) == 0 {
		return drawing.ColorBlack
	}
	if math.IsNaN(t) || t <= 0 {
		return c.anchors[0]
	}
	if t >= 1 {
		return c.anchors[len(c.anchors)-1]
	}
	pos := t * float64(len(c.anchors)-1)
	i := int(pos)
	f := pos - float64(i)
	a, b := c.anchors[i], c.anchors[i+1]
	mix := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f)) }
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
