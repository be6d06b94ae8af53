package plot

import (
	"fmt"
	"image/color"
	"math"
)

// BarbPlot draws wind barbs from gridded wind components in knots.
type BarbPlot struct {
	U, V *Field
	// Skip draws every Skip-th grid point in each direction.
	Skip  int
	Color string
}

func (p *BarbPlot) draw(c *canvas) error {
	if p.U == nil || p.V == nil {
		return fmt.Errorf("barb plot: %w", ErrEmptyField)
	}
	ny, nx := p.U.Dims()
	if vy, vx := p.V.Dims(); vy != ny || vx != nx {
		return fmt.Errorf("barb plot: u is %dx%d but v is %dx%d", ny, nx, vy, vx)
	}
	col, err := NamedColor(p.Color)
	if err != nil {
		return err
	}
	skip := p.Skip
	if skip < 1 {
		skip = 1
	}
	for i := 0; i < ny; i += skip {
		for j := 0; j < nx; j += skip {
			u, v := p.U.At(i, j), p.V.At(i, j)
			if math.IsNaN(u) || math.IsNaN(v) {
				continue
			}
			lon, lat := p.U.LonLat(float64(i), float64(j))
			c.barb(lon, lat, u, v, col)
		}
	}
	return nil
}

// barbParts splits a speed in knots, rounded to the nearest 5, into 50 knot
// flags, 10 knot barbs and 5 knot half barbs.
func barbParts(speed float64) (flags, full, half int) {
	s := int(math.Round(speed/5)) * 5
	flags = s / 50
	s -= flags * 50
	full = s / 10
	s -= full * 10
	half = s / 5
	return flags, full, half
}

// barb draws one wind barb at a geographic point. The staff points toward
// the direction the wind blows from; feathers sit on its clockwise side.
func (c *canvas) barb(lon, lat, u, v float64, col color.Color) {
	x0, y0, ok := c.toPixel(lon, lat)
	if !ok || !c.inside(x0, y0) {
		return
	}
	length := 18 * c.scale
	speed := math.Hypot(u, v)
	if speed < 2.5 {
		c.circle(x0, y0, length/6, col, 1)
		return
	}

	// Direction on the map: project a short step upwind.
	const step = 0.1
	coslat := math.Max(math.Cos(lat*math.Pi/180), 0.01)
	x1, y1, ok := c.toPixel(lon-u/speed*step/coslat, lat-v/speed*step)
	if !ok {
		return
	}
	dx, dy := x1-x0, y1-y0
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return
	}
	dx, dy = dx/norm, dy/norm
	// Clockwise normal in screen space (y grows downward).
	nx, ny := -dy, dx

	tipX, tipY := x0+dx*length, y0+dy*length
	c.gc.SetStrokeColor(col)
	c.gc.SetFillColor(col)
	c.gc.SetLineWidth(c.scale)
	c.gc.BeginPath()
	c.gc.MoveTo(x0, y0)
	c.gc.LineTo(tipX, tipY)
	c.gc.Stroke()

	flags, full, half := barbParts(speed)
	spacing := length / 8
	feather := length * 0.4
	pos := 0.0
	at := func(d float64) (float64, float64) { return tipX - dx*d, tipY - dy*d }
	for k := 0; k < flags; k++ {
		ax, ay := at(pos)
		bx, by := at(pos + spacing*1.5)
		c.gc.BeginPath()
		c.gc.MoveTo(ax, ay)
		c.gc.LineTo(ax+nx*feather, ay+ny*feather)
		c.gc.LineTo(bx, by)
		c.gc.Close()
		c.gc.Fill()
		pos += spacing * 2
	}
	for k := 0; k < full; k++ {
		ax, ay := at(pos)
		c.gc.BeginPath()
		c.gc.MoveTo(ax, ay)
		c.gc.LineTo(ax+nx*feather+dx*spacing, ay+ny*feather+dy*spacing)
		c.gc.Stroke()
		pos += spacing
	}
	if half > 0 {
		if flags == 0 && full == 0 {
			pos += spacing
		}
		ax, ay := at(pos)
		c.gc.BeginPath()
		c.gc.MoveTo(ax, ay)
		c.gc.LineTo(ax+nx*feather/2+dx*spacing/2, ay+ny*feather/2+dy*spacing/2)
		c.gc.Stroke()
	}
}
