package plot

import (
	"fmt"
	"math"
	"strconv"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/recorder"
)

type gridPoint [2]float64 // row, col in fractional grid indices

// indexGrid exposes a field to the gonum contour tracer in grid index
// coordinates: column j is x, row i is y. Missing values are replaced by
// fill so the tracer never sees NaN; the segments they produce are
// dropped afterwards.
type indexGrid struct {
	f    *Field
	fill float64
}

func (g indexGrid) Dims() (c, r int) {
	ny, nx := g.f.Dims()
	return nx, ny
}

func (g indexGrid) Z(c, r int) float64 {
	v := g.f.At(r, c)
	if math.IsNaN(v) {
		return g.fill
	}
	return v
}

func (g indexGrid) X(c int) float64 { return float64(c) }
func (g indexGrid) Y(r int) float64 { return float64(r) }

// isolines traces the lines where the field equals level. The result is a
// set of polylines in grid index space; closed lines repeat their first
// point at the end. Lines are split where they cross cells with a missing
// corner.
func isolines(f *Field, level float64) [][]gridPoint {
	ny, nx := f.Dims()
	lo, hi, ok := f.Range()
	if !ok || nx < 2 || ny < 2 || level < lo || level > hi {
		return nil
	}

	// The plot axes span the grid and the canvas has one unit per grid
	// step, so recorded paths come back in grid indices.
	plt := gplot.New()
	plt.X.Min, plt.X.Max = 0, float64(nx-1)
	plt.Y.Min, plt.Y.Max = 0, float64(ny-1)
	rec := &recorder.Canvas{}
	dc := draw.Canvas{
		Canvas:    rec,
		Rectangle: vg.Rectangle{Max: vg.Point{X: vg.Length(nx - 1), Y: vg.Length(ny - 1)}},
	}
	cp := plotter.NewContour(indexGrid{f: f, fill: lo}, []float64{level}, nil)
	cp.Plot(dc, plt)

	var lines [][]gridPoint
	for _, a := range rec.Actions {
		st, ok := a.(*recorder.Stroke)
		if !ok {
			continue
		}
		var line []gridPoint
		for _, pc := range st.Path {
			if pc.Type != vg.MoveComp && pc.Type != vg.LineComp {
				continue
			}
			line = append(line, gridPoint{float64(pc.Pos.Y), float64(pc.Pos.X)})
		}
		lines = append(lines, splitMissing(f, line)...)
	}
	return lines
}

// splitMissing cuts a line wherever a segment lies in a cell that has a
// missing corner.
func splitMissing(f *Field, line []gridPoint) [][]gridPoint {
	var out [][]gridPoint
	var cur []gridPoint
	flush := func() {
		if len(cur) >= 2 {
			out = append(out, cur)
		}
		cur = nil
	}
	for k := 1; k < len(line); k++ {
		a, b := line[k-1], line[k]
		if !cellComplete(f, (a[0]+b[0])/2, (a[1]+b[1])/2) {
			flush()
			continue
		}
		if len(cur) == 0 {
			cur = append(cur, a)
		}
		cur = append(cur, b)
	}
	flush()
	return out
}

func cellComplete(f *Field, row, col float64) bool {
	ny, nx := f.Dims()
	i := int(math.Min(math.Floor(row), float64(ny-2)))
	j := int(math.Min(math.Floor(col), float64(nx-2)))
	if i < 0 || j < 0 {
		return false
	}
	for _, v := range []float64{f.At(i, j), f.At(i, j+1), f.At(i+1, j), f.At(i+1, j+1)} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// ContourPlot draws contour lines of a field.
type ContourPlot struct {
	Field     *Field
	Contours  []float64
	LineColor string
	// LineStyle is "solid" (the default) or "dashed".
	LineStyle string
	LineWidth float64
	CLabels   bool
	// LabelFormat formats contour labels; nil prints the value rounded.
	LabelFormat func(float64) string
	// Smooth refines the grid this many times before contouring.
	Smooth int
}

// Range returns contour levels from start up to, but excluding, stop.
func Range(start, stop, step float64) []float64 {
	if step == 0 {
		return nil
	}
	n := int(math.Ceil((stop - start) / step))
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func (p *ContourPlot) draw(c *canvas) error {
	if p.Field == nil {
		return fmt.Errorf("contour plot: %w", ErrEmptyField)
	}
	col, err := NamedColor(p.LineColor)
	if err != nil {
		return err
	}
	width := p.LineWidth
	if width == 0 {
		width = 1.5
	}
	var dash []float64
	if p.LineStyle == "dashed" {
		dash = []float64{6, 4}
	}
	format := p.LabelFormat
	if format == nil {
		format = func(v float64) string { return strconv.FormatFloat(math.Round(v), 'f', 0, 64) }
	}

	f := p.Field.Upsample(p.Smooth)
	lo, hi, ok := f.Range()
	if !ok {
		return nil
	}
	for _, level := range p.Contours {
		if level < lo || level > hi {
			continue
		}
		for _, line := range isolines(f, level) {
			pts := make([][2]float64, len(line))
			for k, gp := range line {
				lon, lat := f.LonLat(gp[0], gp[1])
				pts[k] = [2]float64{lon, lat}
			}
			c.polyline(pts, col, width, dash)
			if p.CLabels && len(pts) >= 4 {
				mid := pts[len(pts)/2]
				if x, y, ok := c.toPixel(mid[0], mid[1]); ok && c.inside(x, y) {
					c.text(x, y, format(level), col, AnchorCenter, mustColor("white"))
				}
			}
		}
	}
	return nil
}
