package plot

import (
	"image"
	"image/color"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	xdraw "golang.org/x/image/draw"
)

// canvas draws one map panel: img covers the map area only, so anything
// outside the projected extent is clipped by the raster bounds.
type canvas struct {
	img  *image.RGBA
	gc   *drawing.RasterGraphicContext
	proj *Projection
	area Extent

	xmin, ymin, xmax, ymax float64
	// px is the number of pixels per map unit.
	px float64
	// scale sizes lines and text for the output resolution.
	scale float64
}

func newCanvas(w, h int, p *Projection, area Extent, dpi int) (*canvas, error) {
	xmin, ymin, xmax, ymax, err := p.Bounds(area)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return nil, err
	}
	c := &canvas{
		img:   img,
		gc:    gc,
		proj:  p,
		area:  area,
		xmin:  xmin,
		ymin:  ymin,
		xmax:  xmax,
		ymax:  ymax,
		px:    float64(w) / (xmax - xmin),
		scale: math.Max(1, float64(dpi)/100),
	}
	c.fill(drawing.ColorWhite)
	return c, nil
}

func (c *canvas) fill(col color.Color) {
	xdraw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, xdraw.Src)
}

// toPixel projects a geographic point into canvas pixels.
func (c *canvas) toPixel(lon, lat float64) (float64, float64, bool) {
	x, y, err := c.proj.Forward(lon, lat)
	if err != nil {
		return 0, 0, false
	}
	return (x - c.xmin) * c.px, (c.ymax - y) * c.px, true
}

// fromPixel returns the geographic position of a canvas pixel.
func (c *canvas) fromPixel(px, py float64) (float64, float64, bool) {
	x := c.xmin + px/c.px
	y := c.ymax - py/c.px
	lon, lat, err := c.proj.Inverse(x, y)
	if err != nil {
		return 0, 0, false
	}
	return lon, lat, true
}

func (c *canvas) inside(px, py float64) bool {
	b := c.img.Bounds()
	return px >= 0 && py >= 0 && px < float64(b.Dx()) && py < float64(b.Dy())
}

// polyline strokes a line through geographic points. Points that cannot be
// projected split the line.
func (c *canvas) polyline(pts [][2]float64, col color.Color, width float64, dash []float64) {
	c.gc.SetStrokeColor(col)
	c.gc.SetLineWidth(width * c.scale)
	if len(dash) > 0 {
		scaled := make([]float64, len(dash))
		for i, d := range dash {
			scaled[i] = d * c.scale
		}
		c.gc.SetLineDash(scaled, 0)
	} else {
		c.gc.SetLineDash(nil, 0)
	}
	c.gc.BeginPath()
	started := false
	for _, p := range pts {
		x, y, ok := c.toPixel(p[0], p[1])
		if !ok {
			started = false
			continue
		}
		if !started {
			c.gc.MoveTo(x, y)
			started = true
			continue
		}
		c.gc.LineTo(x, y)
	}
	c.gc.Stroke()
	c.gc.SetLineDash(nil, 0)
}

// circle strokes a circle of radius r pixels.
func (c *canvas) circle(x, y, r float64, col color.Color, width float64) {
	c.gc.SetStrokeColor(col)
	c.gc.SetLineWidth(width * c.scale)
	c.gc.BeginPath()
	c.gc.ArcTo(x, y, r, r, 0, 2*math.Pi)
	c.gc.Close()
	c.gc.Stroke()
}

// wedge fills the part of a circle from 12 o'clock clockwise through frac of
// a full turn.
func (c *canvas) wedge(x, y, r, frac float64, col color.Color) {
	if frac <= 0 {
		return
	}
	c.gc.SetFillColor(col)
	c.gc.BeginPath()
	if frac >= 1 {
		c.gc.ArcTo(x, y, r, r, 0, 2*math.Pi)
	} else {
		c.gc.MoveTo(x, y)
		c.gc.LineTo(x, y-r)
		c.gc.ArcTo(x, y, r, r, -math.Pi/2, frac*2*math.Pi)
	}
	c.gc.Close()
	c.gc.Fill()
}

// Anchor positions text relative to the point it is drawn at.
type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorLeft
	AnchorRight
)

var textFace font.Face = basicfont.Face7x13

// textScale is the integer magnification applied to the bitmap face.
func textScale(scale float64) int {
	s := int(math.Round(scale))
	if s < 1 {
		return 1
	}
	return s
}

// textSize returns the pixel size of s at the given magnification.
func textSize(s string, mag int) (w, h int) {
	adv := font.MeasureString(textFace, s).Ceil()
	return adv * mag, textFace.Metrics().Height.Ceil() * mag
}

// drawText renders s centred vertically on y. A non-nil background fills the
// text box first, which keeps contour labels readable.
func drawText(dst *image.RGBA, x, y float64, s string, col color.Color, mag int, anchor Anchor, background color.Color) {
	if s == "" {
		return
	}
	adv := font.MeasureString(textFace, s).Ceil()
	lineH := textFace.Metrics().Height.Ceil()
	src := image.NewRGBA(image.Rect(0, 0, adv, lineH))
	if background != nil {
		xdraw.Draw(src, src.Bounds(), image.NewUniform(background), image.Point{}, xdraw.Src)
	}
	d := &font.Drawer{
		Dst:  src,
		Src:  image.NewUniform(col),
		Face: textFace,
		Dot:  fixed.Point26_6{X: 0, Y: textFace.Metrics().Ascent},
	}
	d.DrawString(s)

	w, h := adv*mag, lineH*mag
	left := int(math.Round(x))
	switch anchor {
	case AnchorCenter:
		left -= w / 2
	case AnchorRight:
		left -= w
	}
	top := int(math.Round(y)) - h/2
	xdraw.NearestNeighbor.Scale(dst, image.Rect(left, top, left+w, top+h), src, src.Bounds(), xdraw.Over, nil)
}

func (c *canvas) text(x, y float64, s string, col color.Color, anchor Anchor, background color.Color) {
	drawText(c.img, x, y, s, col, textScale(c.scale), anchor, background)
}
