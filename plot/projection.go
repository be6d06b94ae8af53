package plot

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom/proj"
)

const earthRadius = 6370997.0

// LambertConformal returns a proj4 definition of a Lambert conformal conic
// projection centred on lon, lat with standard parallels at 33 and 45 N.
func LambertConformal(lon, lat float64) string {
	return fmt.Sprintf("+proj=lcc +lat_1=33 +lat_2=45 +lat_0=%g +lon_0=%g +x_0=0 +y_0=0 +a=%g +b=%g +units=m +no_defs",
		lat, lon, earthRadius, earthRadius)
}

// ProjString translates a projection code into a proj4 definition. Known
// codes are lcc, merc (or mer), ps, and pc (or platecarree, data); a string
// starting with "+proj=" is used as is. ps is a north polar conformal
// projection, drawn as a Lambert conic tangent at 85N.
func ProjString(code string, area Extent) (string, error) {
	lon := math.Floor((area.East + area.West) / 2)
	lat := math.Floor((area.North + area.South) / 2)
	switch c := strings.ToLower(strings.TrimSpace(code)); {
	case c == "lcc" || c == "lambert" || c == "lambertconformal":
		return LambertConformal(lon, lat), nil
	case c == "merc" || c == "mer" || c == "mercator":
		return fmt.Sprintf("+proj=merc +lon_0=%g +x_0=0 +y_0=0 +a=%g +b=%g +units=m +no_defs", lon, earthRadius, earthRadius), nil
	case c == "ps" || c == "polarstereo":
		return fmt.Sprintf("+proj=lcc +lat_1=85 +lat_2=85 +lat_0=90 +lon_0=%g +x_0=0 +y_0=0 +a=%g +b=%g +units=m +no_defs",
			lon, earthRadius, earthRadius), nil
	case c == "pc" || c == "platecarree" || c == "data":
		return "+proj=longlat +a=6370997 +b=6370997 +no_defs", nil
	case strings.HasPrefix(c, "+proj="):
		return strings.TrimSpace(code), nil
	}
	return "", fmt.Errorf("unknown projection %q", code)
}

// Projection converts between geographic coordinates in degrees and map
// coordinates.
type Projection struct {
	def     string
	forward proj.Transformer
	inverse proj.Transformer
}

// NewProjection parses a proj4 definition.
func NewProjection(def string) (*Projection, error) {
	dst, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("parse projection %q: %w", def, err)
	}
	src, err := proj.Parse("+proj=longlat +a=6370997 +b=6370997 +no_defs")
	if err != nil {
		return nil, err
	}
	fwd, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("projection %q: %w", def, err)
	}
	inv, err := dst.NewTransform(src)
	if err != nil {
		return nil, fmt.Errorf("projection %q: %w", def, err)
	}
	return &Projection{def: def, forward: fwd, inverse: inv}, nil
}

func (p *Projection) String() string { return p.def }

// Forward projects a longitude and latitude.
func (p *Projection) Forward(lon, lat float64) (x, y float64, err error) {
	x, y, err = p.forward(lon, lat)
	if err == nil && (math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0)) {
		err = fmt.Errorf("point %g, %g cannot be projected", lon, lat)
	}
	return x, y, err
}

// Inverse returns the longitude and latitude of a map coordinate.
func (p *Projection) Inverse(x, y float64) (lon, lat float64, err error) {
	lon, lat, err = p.inverse(x, y)
	if err == nil && (math.IsNaN(lon) || math.IsNaN(lat)) {
		err = fmt.Errorf("map point %g, %g has no geographic position", x, y)
	}
	return lon, lat, err
}

// Bounds projects the outline of an extent and returns the enclosing box in
// map coordinates.
func (p *Projection) Bounds(e Extent) (xmin, ymin, xmax, ymax float64, err error) {
	const steps = 64
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	add := func(lon, lat float64) error {
		x, y, err := p.Forward(lon, lat)
		if err != nil {
			return err
		}
		xmin, xmax = math.Min(xmin, x), math.Max(xmax, x)
		ymin, ymax = math.Min(ymin, y), math.Max(ymax, y)
		return nil
	}
	for k := 0; k <= steps; k++ {
		t := float64(k) / steps
		lon := e.West + (e.East-e.West)*t
		lat := e.South + (e.North-e.South)*t
		for _, pt := range [][2]float64{{lon, e.South}, {lon, e.North}, {e.West, lat}, {e.East, lat}} {
			if err := add(pt[0], pt[1]); err != nil {
				return 0, 0, 0, 0, err
			}
		}
	}
	if xmax <= xmin || ymax <= ymin {
		return 0, 0, 0, 0, fmt.Errorf("extent %v projects to an empty box", e)
	}
	return xmin, ymin, xmax, ymax, nil
}
