package plot

import (
	"encoding/json"
	"fmt"

	"github.com/ctessum/geom"
)

// LayerSources are the Natural Earth line datasets behind each basemap layer.
var LayerSources = map[string]string{
	"states":    "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_50m_admin_1_states_provinces_lines.geojson",
	"coastline": "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_50m_coastline.geojson",
	"borders":   "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_50m_admin_0_boundary_lines_land.geojson",
}

// DefaultLayers is the basemap drawn under every map.
var DefaultLayers = []string{"states", "coastline", "borders"}

// Layer is a set of basemap lines in longitude/latitude.
type Layer struct {
	Name  string
	Lines geom.MultiLineString
	Color string
	Width float64
}

type featureCollection struct {
	Features []struct {
		Geometry struct {
			Type        string          `json:"type"`
			Coordinates json.RawMessage `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ParseLayer decodes the line geometries of a GeoJSON feature collection.
// Polygons contribute their rings; points are ignored.
func ParseLayer(name string, data []byte) (*Layer, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("layer %s: %w", name, err)
	}
	l := &Layer{Name: name, Color: "black", Width: 0.6}
	if name == "states" {
		l.Color = "grey"
		l.Width = 0.5
	}
	for _, f := range fc.Features {
		var err error
		switch f.Geometry.Type {
		case "LineString":
			var c [][]float64
			if err = json.Unmarshal(f.Geometry.Coordinates, &c); err == nil {
				l.Lines = append(l.Lines, toLineString(c))
			}
		case "MultiLineString", "Polygon":
			var c [][][]float64
			if err = json.Unmarshal(f.Geometry.Coordinates, &c); err == nil {
				for _, part := range c {
					l.Lines = append(l.Lines, toLineString(part))
				}
			}
		case "MultiPolygon":
			var c [][][][]float64
			if err = json.Unmarshal(f.Geometry.Coordinates, &c); err == nil {
				for _, poly := range c {
					for _, ring := range poly {
						l.Lines = append(l.Lines, toLineString(ring))
					}
				}
			}
		}
		if err != nil {
			return nil, fmt.Errorf("layer %s: %s geometry: %w", name, f.Geometry.Type, err)
		}
	}
	return l, nil
}

func toLineString(coords [][]float64) geom.LineString {
	ls := make(geom.LineString, 0, len(coords))
	for _, c := range coords {
		if len(c) >= 2 {
			ls = append(ls, geom.Point{X: c[0], Y: c[1]})
		}
	}
	return ls
}

func (l *Layer) draw(c *canvas) error {
	col, err := NamedColor(l.Color)
	if err != nil {
		return err
	}
	// Pad the view box so lines leaving the map are still drawn to the edge.
	view := &geom.Bounds{
		Min: geom.Point{X: c.area.West - 5, Y: c.area.South - 5},
		Max: geom.Point{X: c.area.East + 5, Y: c.area.North + 5},
	}
	for _, ls := range l.Lines {
		if len(ls) < 2 || !ls.Bounds().Overlaps(view) {
			continue
		}
		pts := make([][2]float64, len(ls))
		for k, p := range ls {
			pts[k] = [2]float64{p.X, p.Y}
		}
		c.polyline(pts, col, l.Width, nil)
	}
	return nil
}

// graticule draws latitude and longitude lines every 10 degrees.
func (c *canvas) graticule() {
	col := mustColor("lightgrey")
	for lon := -180.0; lon <= 180; lon += 10 {
		if lon < c.area.West-10 || lon > c.area.East+10 {
			continue
		}
		var pts [][2]float64
		for lat := -80.0; lat <= 80; lat++ {
			pts = append(pts, [2]float64{lon, lat})
		}
		c.polyline(pts, col, 0.5, []float64{2, 2})
	}
	for lat := -80.0; lat <= 80; lat += 10 {
		if lat < c.area.South-10 || lat > c.area.North+10 {
			continue
		}
		var pts [][2]float64
		for lon := c.area.West - 10; lon <= c.area.East+10; lon++ {
			pts = append(pts, [2]float64{lon, lat})
		}
		c.polyline(pts, col, 0.5, []float64{2, 2})
	}
}
