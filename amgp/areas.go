package amgp

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/met130/amgp-go/plot"
)

//go:embed areas.yaml
var defaultAreasYAML []byte

// ErrBadArea is returned when an area is neither a known code nor a literal
// "W, E, S, N" box.
var ErrBadArea = errors.New("invalid area")

// Areas maps area codes to their map extents.
type Areas map[string]plot.Extent

// DefaultAreas returns the built-in area table.
func DefaultAreas() (Areas, error) {
	raw := map[string][]float64{}
	if err := yaml.Unmarshal(defaultAreasYAML, &raw); err != nil {
		return nil, fmt.Errorf("parse default areas: %w", err)
	}
	areas := Areas{}
	for code, box := range raw {
		if len(box) != 4 {
			return nil, fmt.Errorf("%w: default area %q needs 4 values", ErrBadArea, code)
		}
		areas[code] = plot.Extent{West: box[0], East: box[1], South: box[2], North: box[3]}
	}
	return areas, nil
}

// Merge overlays areas given as "W, E, S, N" strings, the preset file form.
func (a Areas) Merge(raw map[string]string) error {
	for code, s := range raw {
		e, err := ParseExtent(s)
		if err != nil {
			return fmt.Errorf("area %q: %w", code, err)
		}
		a[code] = e
	}
	return nil
}

// Resolve turns an area code into an extent. A known code may carry any
// number of '+' (zoom in) and '-' (zoom out) characters; anything else must
// be a literal "W, E, S, N" box.
func (a Areas) Resolve(code string) (plot.Extent, error) {
	base := strings.NewReplacer("+", "", "-", "").Replace(code)
	if e, ok := a[base]; ok {
		n := strings.Count(code, "+") - strings.Count(code, "-")
		return Zoom(e, n), nil
	}
	return ParseExtent(code)
}

// ZoomScale converts a net zoom count into the fraction of the box width
// trimmed from each side: (1 - 2^-n) / 2. Negative n grows the box.
func ZoomScale(n int) float64 {
	return (1 - math.Pow(2, float64(-n))) / 2
}

// Zoom shrinks (n > 0) or grows (n < 0) the box toward its centre. Each step
// halves or doubles the width and height.
func Zoom(e plot.Extent, n int) plot.Extent {
	f := ZoomScale(n)
	return plot.Extent{
		West:  e.West - (e.West-e.East)*f,
		East:  e.East + (e.West-e.East)*f,
		South: e.South - (e.South-e.North)*f,
		North: e.North + (e.South-e.North)*f,
	}
}

// ParseExtent parses "W, E, S, N".
func ParseExtent(s string) (plot.Extent, error) {
	parts := splitList(s, ",")
	if len(parts) != 4 {
		return plot.Extent{}, fmt.Errorf("%w: %q is not a known area or 'W, E, S, N'", ErrBadArea, s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return plot.Extent{}, fmt.Errorf("%w: %q is not a number", ErrBadArea, p)
		}
		v[i] = f
	}
	return plot.Extent{West: v[0], East: v[1], South: v[2], North: v[3]}, nil
}

// FormatExtent renders an extent the way the preset file stores it.
func FormatExtent(e plot.Extent) string {
	return fmt.Sprintf("%g, %g, %g, %g", e.West, e.East, e.South, e.North)
}

// DataWindow widens the map box into the box requested from the gridded
// data server, in 0-360 longitudes for western hemisphere edges.
func DataWindow(e plot.Extent) plot.Extent {
	const grow, shrink = 1.1, 0.9
	w := e
	if w.West < 0 {
		w.West = 360 + w.West*grow
	}
	if w.East < 0 {
		w.East = 360 + w.East*shrink
	}
	w.South = e.South * shrink
	w.North = e.North * grow
	return w
}

// PanelSize is the side of the square figure in inches: the mean of the
// integer longitude and latitude spans, times scale.
func PanelSize(e plot.Extent, scale float64) (int, error) {
	dLon := int(e.East) - int(e.West)
	dLat := int(e.North) - int(e.South)
	avg := floorDiv(dLon+dLat, 2)
	size := int(math.Floor(float64(avg) * scale))
	if size <= 0 {
		return 0, fmt.Errorf("%w: area %s with scale %g gives a %d inch panel", ErrBadArea, FormatExtent(e), scale, size)
	}
	return size, nil
}

// ProjectionFor returns the projection for a settings code. Empty and
// "custom" select a Lambert conformal projection centred on the area.
func ProjectionFor(code string, e plot.Extent) string {
	if code == "" || code == "custom" {
		lon := floorDiv(int(e.East)+int(e.West), 2)
		lat := floorDiv(int(e.North)+int(e.South), 2)
		return plot.LambertConformal(float64(lon), float64(lat))
	}
	return code
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
