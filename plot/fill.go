package plot

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strconv"

	xdraw "golang.org/x/image/draw"
)

// FilledContourPlot colours the area between contour levels. Values below
// the first or above the last level are left blank.
type FilledContourPlot struct {
	Field    *Field
	Contours []float64
	Colormap string
	// Colorbar is "horizontal" to add a colour bar under the map.
	Colorbar string
	// Units labels the colour bar.
	Units string
}

// bin returns the index of the band holding v, or -1.
func (p *FilledContourPlot) bin(v float64) int {
	n := len(p.Contours)
	if n < 2 || math.IsNaN(v) || v < p.Contours[0] || v > p.Contours[n-1] {
		return -1
	}
	i := sort.SearchFloat64s(p.Contours, v)
	if i == 0 {
		return 0
	}
	if i >= n {
		return n - 2
	}
	return i - 1
}

func (p *FilledContourPlot) bandColor(cm Colormap, band int) color.Color {
	bands := len(p.Contours) - 1
	if bands <= 1 {
		return cm.At(0.5)
	}
	return cm.At(float64(band) / float64(bands-1))
}

func (p *FilledContourPlot) draw(c *canvas) error {
	if p.Field == nil {
		return fmt.Errorf("filled contour plot: %w", ErrEmptyField)
	}
	if len(p.Contours) < 2 {
		return fmt.Errorf("filled contour plot needs at least two levels")
	}
	cm, err := LookupColormap(p.Colormap)
	if err != nil {
		return err
	}
	// Evaluate on blocks of pixels; each block takes the value at its centre.
	block := int(math.Max(1, math.Round(c.scale)))
	b := c.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += block {
		for x := b.Min.X; x < b.Max.X; x += block {
			lon, lat, ok := c.fromPixel(float64(x)+float64(block)/2, float64(y)+float64(block)/2)
			if !ok {
				continue
			}
			v, ok := p.Field.Sample(lon, lat)
			if !ok {
				continue
			}
			band := p.bin(v)
			if band < 0 {
				continue
			}
			r := image.Rect(x, y, x+block, y+block).Intersect(b)
			xdraw.Draw(c.img, r, image.NewUniform(p.bandColor(cm, band)), image.Point{}, xdraw.Src)
		}
	}
	return nil
}

// drawColorbar paints a horizontal colour bar into r with tick labels under
// it.
func (p *FilledContourPlot) drawColorbar(dst *image.RGBA, r image.Rectangle, mag int) error {
	cm, err := LookupColormap(p.Colormap)
	if err != nil {
		return err
	}
	bands := len(p.Contours) - 1
	if bands < 1 {
		return nil
	}
	_, textH := textSize("0", mag)
	bar := image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y-textH*2)
	for k := 0; k < bands; k++ {
		x0 := bar.Min.X + bar.Dx()*k/bands
		x1 := bar.Min.X + bar.Dx()*(k+1)/bands
		xdraw.Draw(dst, image.Rect(x0, bar.Min.Y, x1, bar.Max.Y), image.NewUniform(p.bandColor(cm, k)), image.Point{}, xdraw.Src)
	}

	ticks := 10
	if bands < ticks {
		ticks = bands
	}
	black := mustColor("black")
	for t := 0; t <= ticks; t++ {
		k := bands * t / ticks
		x := float64(bar.Min.X) + float64(bar.Dx())*float64(k)/float64(bands)
		drawText(dst, x, float64(bar.Max.Y+textH/2+2), formatTick(p.Contours[k]), black, mag, AnchorCenter, nil)
	}
	if p.Units != "" {
		drawText(dst, float64(bar.Min.X+bar.Dx()/2), float64(bar.Max.Y+textH+textH/2+2), p.Units, black, mag, AnchorCenter, nil)
	}
	return nil
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
