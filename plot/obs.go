package plot

import (
	"fmt"
	"math"
	"strconv"
)

// Station is one observation site with its decoded values.
type Station struct {
	ID       string
	Lon, Lat float64
	Values   map[string]float64
	Text     map[string]string
	// U and V are wind components in knots.
	U, V    float64
	HasWind bool
}

// Format controls how a station field is printed. The zero Format prints a
// numeric value rounded to an integer.
type Format struct {
	Name string
	Func func(float64) string
}

var (
	// CurrentWeather prints the station's text value for the field.
	CurrentWeather = Format{Name: "current_weather"}
	// SkyCover draws the sky cover circle for a value in octas.
	SkyCover = Format{Name: "sky_cover"}
)

// FormatFunc wraps a numeric formatter.
func FormatFunc(fn func(float64) string) Format {
	return Format{Name: "func", Func: fn}
}

// PlotObs draws station plots. Fields, Colors, Locations and Formats are
// parallel; locations are compass points (NW, N, NE, W, C, E, SW, S, SE).
type PlotObs struct {
	Stations  []Station
	Fields    []string
	Colors    []string
	Locations []string
	Formats   []Format
	// ReducePoints thins stations so none lie within ReducePoints*150 km of
	// an earlier one. Zero keeps all stations.
	ReducePoints float64
	// VectorField draws a wind barb at each station.
	VectorField bool
}

var locationOffsets = map[string][2]float64{
	"C":  {0, 0},
	"N":  {0, -1},
	"NE": {1, -1},
	"E":  {1, 0},
	"SE": {1, 1},
	"S":  {0, 1},
	"SW": {-1, 1},
	"W":  {-1, 0},
	"NW": {-1, -1},
	"W2": {-2, 0},
	"E2": {2, 0},
}

const reduceRadiusKm = 150.0

// greatCircleKm is the haversine distance between two points.
func greatCircleKm(lon1, lat1, lon2, lat2 float64) float64 {
	const r = 6371.0
	toRad := math.Pi / 180
	dLat := (lat2 - lat1) * toRad
	dLon := (lon2 - lon1) * toRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * r * math.Asin(math.Min(1, math.Sqrt(a)))
}

// ReduceStations keeps stations in order, dropping any closer than radiusKm
// to one already kept.
func ReduceStations(stations []Station, radiusKm float64) []Station {
	if radiusKm <= 0 {
		return stations
	}
	var kept []Station
	for _, s := range stations {
		near := false
		for _, k := range kept {
			if greatCircleKm(s.Lon, s.Lat, k.Lon, k.Lat) < radiusKm {
				near = true
				break
			}
		}
		if !near {
			kept = append(kept, s)
		}
	}
	return kept
}

func (p *PlotObs) draw(c *canvas) error {
	n := len(p.Fields)
	if len(p.Colors) != n || len(p.Locations) != n || len(p.Formats) != n {
		return fmt.Errorf("station plot: %d fields, %d colours, %d locations, %d formats",
			n, len(p.Colors), len(p.Locations), len(p.Formats))
	}

	var visible []Station
	for _, s := range p.Stations {
		if x, y, ok := c.toPixel(s.Lon, s.Lat); ok && c.inside(x, y) {
			visible = append(visible, s)
		}
	}
	visible = ReduceStations(visible, p.ReducePoints*reduceRadiusKm)

	mag := textScale(c.scale)
	_, textH := textSize("0", mag)
	spacing := float64(textH) * 1.1
	for _, s := range visible {
		x, y, _ := c.toPixel(s.Lon, s.Lat)
		for k, field := range p.Fields {
			off, ok := locationOffsets[p.Locations[k]]
			if !ok {
				return fmt.Errorf("station plot: unknown location %q", p.Locations[k])
			}
			col, err := NamedColor(p.Colors[k])
			if err != nil {
				return err
			}
			px, py := x+off[0]*spacing*1.4, y+off[1]*spacing
			anchor := AnchorCenter
			if off[0] < 0 {
				anchor = AnchorRight
			} else if off[0] > 0 {
				anchor = AnchorLeft
			}

			f := p.Formats[k]
			switch f.Name {
			case SkyCover.Name:
				if v, ok := s.Values[field]; ok && !math.IsNaN(v) {
					c.skyCover(px, py, float64(textH)/2, v)
				}
			case CurrentWeather.Name:
				c.text(px, py, s.Text[field], col, anchor, nil)
			default:
				v, ok := s.Values[field]
				if !ok || math.IsNaN(v) {
					continue
				}
				label := strconv.Itoa(int(math.Round(v)))
				if f.Func != nil {
					label = f.Func(v)
				}
				c.text(px, py, label, col, anchor, nil)
			}
		}
		if p.VectorField && s.HasWind {
			c.barb(s.Lon, s.Lat, s.U, s.V, mustColor("black"))
		}
	}
	return nil
}

// skyCover draws the station circle filled by octas; 9 (sky obscured) draws
// a cross.
func (c *canvas) skyCover(x, y, r, octas float64) {
	black := mustColor("black")
	c.circle(x, y, r, black, 1)
	if octas >= 9 {
		d := r * 0.7
		c.gc.SetStrokeColor(black)
		c.gc.BeginPath()
		c.gc.MoveTo(x-d, y-d)
		c.gc.LineTo(x+d, y+d)
		c.gc.MoveTo(x-d, y+d)
		c.gc.LineTo(x+d, y-d)
		c.gc.Stroke()
		return
	}
	c.wedge(x, y, r, math.Min(octas, 8)/8, black)
}
