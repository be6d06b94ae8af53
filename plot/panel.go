// Package plot renders weather maps from declarative panel descriptions:
// a MapPanel names the area, projection, basemap layers and a list of
// plots; a PanelContainer lays panels out and writes the image.
package plot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2/drawing"
	xdraw "golang.org/x/image/draw"
)

// ErrTooLarge is returned when a figure would exceed maxPixels per side.
var ErrTooLarge = errors.New("figure too large")

const maxPixels = 20000

// Extent is a longitude/latitude box in degrees.
type Extent struct {
	West, East, South, North float64
}

// Plot is anything a MapPanel can draw.
type Plot interface {
	draw(c *canvas) error
}

// MapPanel is one map.
type MapPanel struct {
	Area Extent
	// Projection is a proj4 definition, see ProjString.
	Projection string
	Layers     []*Layer
	Title      string
	Plots      []Plot
}

// PanelContainer lays out square panels of Size inches side by side.
type PanelContainer struct {
	Size   float64
	Panels []*MapPanel
}

// Render draws every panel at dpi and returns the figure.
func (pc *PanelContainer) Render(dpi int) (*image.RGBA, error) {
	if len(pc.Panels) == 0 {
		return nil, errors.New("no panels to render")
	}
	if dpi <= 0 || pc.Size <= 0 {
		return nil, fmt.Errorf("invalid figure size %g in at %d dpi", pc.Size, dpi)
	}
	side := int(math.Round(pc.Size * float64(dpi)))
	if side > maxPixels || side*len(pc.Panels) > maxPixels {
		return nil, fmt.Errorf("%w: %d pixels at %d dpi", ErrTooLarge, side*len(pc.Panels), dpi)
	}
	fig := image.NewRGBA(image.Rect(0, 0, side*len(pc.Panels), side))
	xdraw.Draw(fig, fig.Bounds(), image.NewUniform(drawing.ColorWhite), image.Point{}, xdraw.Src)
	for k, p := range pc.Panels {
		cell := image.Rect(k*side, 0, (k+1)*side, side)
		if err := p.render(fig, cell, dpi); err != nil {
			return nil, fmt.Errorf("panel %d: %w", k+1, err)
		}
	}
	return fig, nil
}

func (p *MapPanel) render(fig *image.RGBA, cell image.Rectangle, dpi int) error {
	proj, err := NewProjection(p.Projection)
	if err != nil {
		return err
	}
	scale := math.Max(1, float64(dpi)/100)
	mag := textScale(scale)
	_, textH := textSize("0", mag)
	pad := int(10 * scale)

	var bars []*FilledContourPlot
	for _, pl := range p.Plots {
		if f, ok := pl.(*FilledContourPlot); ok && f.Colorbar == "horizontal" {
			bars = append(bars, f)
		}
	}
	top := cell.Min.Y + pad
	if p.Title != "" {
		top += textH + pad
	}
	barH := textH * 4
	bottom := cell.Max.Y - pad - len(bars)*(barH+pad)

	xmin, ymin, xmax, ymax, err := proj.Bounds(p.Area)
	if err != nil {
		return err
	}
	availW, availH := cell.Dx()-2*pad, bottom-top
	if availW <= 0 || availH <= 0 {
		return fmt.Errorf("%w: no room left for the map", ErrTooLarge)
	}
	aspect := (xmax - xmin) / (ymax - ymin)
	w, h := availW, int(float64(availW)/aspect)
	if h > availH {
		h, w = availH, int(float64(availH)*aspect)
	}
	c, err := newCanvas(w, h, proj, p.Area, dpi)
	if err != nil {
		return err
	}

	for _, pl := range p.Plots {
		if _, ok := pl.(*FilledContourPlot); ok {
			if err := pl.draw(c); err != nil {
				return err
			}
		}
	}
	c.graticule()
	for _, l := range p.Layers {
		if err := l.draw(c); err != nil {
			return err
		}
	}
	for _, pl := range p.Plots {
		if _, ok := pl.(*FilledContourPlot); ok {
			continue
		}
		if err := pl.draw(c); err != nil {
			return err
		}
	}
	c.border()

	left := cell.Min.X + (cell.Dx()-w)/2
	mapRect := image.Rect(left, top, left+w, top+h)
	xdraw.Draw(fig, mapRect, c.img, image.Point{}, xdraw.Src)

	if p.Title != "" {
		drawText(fig, float64(cell.Min.X+cell.Dx()/2), float64(cell.Min.Y+pad+textH/2), p.Title, color.Black, mag, AnchorCenter, nil)
	}
	y := mapRect.Max.Y + pad
	for _, b := range bars {
		r := image.Rect(mapRect.Min.X+w/10, y, mapRect.Max.X-w/10, y+barH)
		if err := b.drawColorbar(fig, r, mag); err != nil {
			return err
		}
		y += barH + pad
	}
	return nil
}

func (c *canvas) border() {
	b := c.img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	c.gc.SetStrokeColor(drawing.ColorBlack)
	c.gc.SetLineWidth(c.scale)
	c.gc.BeginPath()
	c.gc.MoveTo(0, 0)
	c.gc.LineTo(w, 0)
	c.gc.LineTo(w, h)
	c.gc.LineTo(0, h)
	c.gc.Close()
	c.gc.Stroke()
}

// Save renders the figure and writes it as PNG.
func (pc *PanelContainer) Save(path string, dpi int) error {
	img, err := pc.Render(dpi)
	if err != nil {
		return err
	}
	return WritePNG(path, img)
}

// WritePNG writes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// SaveGIF writes frames as an animated GIF that loops forever, showing each
// frame for delay. Frames are scaled to the size of the first one.
func SaveGIF(path string, frames []image.Image, delay time.Duration) error {
	if len(frames) == 0 {
		return errors.New("no frames for gif")
	}
	bounds := frames[0].Bounds()
	anim := &gif.GIF{LoopCount: 0}
	centis := int(delay / (10 * time.Millisecond))
	for _, fr := range frames {
		pal := image.NewPaletted(bounds, palette.Plan9)
		if fr.Bounds().Eq(bounds) {
			xdraw.FloydSteinberg.Draw(pal, bounds, fr, bounds.Min)
		} else {
			xdraw.ApproxBiLinear.Scale(pal, bounds, fr, fr.Bounds(), xdraw.Src, nil)
		}
		anim.Image = append(anim.Image, pal)
		anim.Delay = append(anim.Delay, centis)
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
