package amgp

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/browser"

	"github.com/met130/amgp-go/plot"
)

// GIFFrameDelay is how long each frame of a batch animation is shown.
const GIFFrameDelay = 1500 * time.Millisecond

const (
	assignmentDir = "Assignment_Maps"
	testDir       = "Test_Maps"
	tempDir       = "Temp"
)

// ErrBadRecall is returned for a recall spec that does not have ten fields.
var ErrBadRecall = errors.New("invalid recall spec")

// SaveOptions are the answers to the run prompts.
type SaveOptions struct {
	Save     bool
	Assigned bool
	NoShow   bool
	// Title replaces the map descriptor in the filename, and names the
	// temporary file of an unsaved map.
	Title string
}

func outputDir(mapsDir string, assigned bool) string {
	if assigned {
		return filepath.Join(mapsDir, assignmentDir)
	}
	return filepath.Join(mapsDir, testDir)
}

// MapPath names the file a product is saved to.
func MapPath(mapsDir, author string, p *Product, assigned bool, override string) string {
	mt, req := p.Time, p.Request
	d := Descriptor(p.Type, override)
	var day, name string
	switch p.Type {
	case UpperAirContourMap:
		day = DayStamp(mt.Gridded)
		name = fmt.Sprintf("%s, %02dH, %s %dmb %s, %d DPI - %s.png", NumStamp(mt.Gridded), req.Delta, req.Area, req.Level.HPa, d, req.DPI, author)
	case SurfaceContourMap:
		day = DayStamp(mt.Gridded)
		name = fmt.Sprintf("%s, %02dH, %s %s, %d DPI - %s.png", NumStamp(mt.Gridded), req.Delta, req.Area, d, req.DPI, author)
	case UpperAirObsMap:
		day = DayStamp(mt.Obs)
		name = fmt.Sprintf("%s, %s %dmb %s, %d DPI - %s.png", NumStamp(mt.Upper), req.Area, req.Level.HPa, d, req.DPI, author)
	default:
		day = DayStamp(mt.Obs)
		name = fmt.Sprintf("%s, %s %s, %d DPI - %s.png", NumStamp(mt.Obs), req.Area, d, req.DPI, author)
	}
	return filepath.Join(outputDir(mapsDir, assigned), day, name)
}

// TempPath names the file an unsaved map is written to.
func TempPath(mapsDir, override string) string {
	if override == "" {
		override = "temp"
	}
	return filepath.Join(mapsDir, tempDir, override+".png")
}

// SaveMap renders the product and writes it either to its permanent path or
// to the temp folder, then opens it unless NoShow is set. It returns the
// path written and the rendered image.
func (g *Generator) SaveMap(p *Product, opts SaveOptions) (string, image.Image, error) {
	img, err := p.Container().Render(p.Request.DPI)
	if err != nil {
		return "", nil, fmt.Errorf("render: %w", err)
	}
	path := TempPath(g.Config.MapsDir, opts.Title)
	if opts.Save {
		path = MapPath(g.Config.MapsDir, g.Config.Author, p, opts.Assigned, opts.Title)
	}
	if err := plot.WritePNG(path, img); err != nil {
		return "", nil, err
	}
	g.Metrics.MapsSaved.Inc()
	logger().Infof("map written to %s", path)
	if !opts.NoShow {
		ShowImage(path)
	}
	return path, img, nil
}

// ShowImage opens a file in the system viewer. Failure is only logged.
func ShowImage(path string) {
	if err := browser.OpenFile(path); err != nil {
		logger().Warnf("cannot open %s: %s", path, err)
	}
}

// GIFPath names a batch animation.
func GIFPath(mapsDir string, assigned bool, name string) string {
	return filepath.Join(outputDir(mapsDir, assigned), name+".gif")
}

// SaveGIF writes batch frames as an animation.
func (g *Generator) SaveGIF(frames []image.Image, assigned bool, name string) (string, error) {
	path := GIFPath(g.Config.MapsDir, assigned, name)
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return "", err
	}
	if err := plot.SaveGIF(path, frames, GIFFrameDelay); err != nil {
		return "", err
	}
	g.Metrics.MapsSaved.Inc()
	return path, nil
}

// ClearTemp empties the temp folder of the maps directory.
func ClearTemp(mapsDir string) error {
	err := CleanDir(filepath.Join(mapsDir, tempDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// CleanDir removes everything inside dir and keeps dir itself.
func CleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// DeleteDir removes dir and everything in it.
func DeleteDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// RecallPath rebuilds the path of a saved map from
// "YYYY, MM, DD, HH, area, level, dpi, assigned, contour, fh", where
// assigned and contour are y or n and level is "surface" or hPa.
func RecallPath(mapsDir, author, spec string) (string, error) {
	parts := splitList(spec, ",")
	if len(parts) != 10 {
		return "", fmt.Errorf("%w: expected 10 fields, got %d", ErrBadRecall, len(parts))
	}
	var nums [4]int
	for i := range nums {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a number", ErrBadRecall, parts[i])
		}
		nums[i] = n
	}
	t := time.Date(nums[0], time.Month(nums[1]), nums[2], nums[3], 0, 0, 0, time.UTC)
	area, level, dpi := parts[4], parts[5], parts[6]
	assigned := strings.EqualFold(parts[7], "y")
	contour := strings.EqualFold(parts[8], "y")
	fh, err := strconv.Atoi(parts[9])
	if err != nil {
		return "", fmt.Errorf("%w: forecast hour %q", ErrBadRecall, parts[9])
	}

	surface := strings.EqualFold(level, "surface")
	var desc string
	switch {
	case surface && contour:
		desc = fmt.Sprintf("%s Surface Contour Map", area)
	case surface:
		desc = fmt.Sprintf("%s Surface Map", area)
	case contour:
		desc = fmt.Sprintf("%s %smb Contour Map", area, strings.TrimSuffix(level, "mb"))
	default:
		desc = fmt.Sprintf("%s %smb Map", area, strings.TrimSuffix(level, "mb"))
	}
	var name string
	if contour {
		name = fmt.Sprintf("%s, %02dH, %s, %s DPI - %s.png", NumStamp(t), fh, desc, dpi, author)
	} else {
		name = fmt.Sprintf("%s, %s, %s DPI - %s.png", NumStamp(t), desc, dpi, author)
	}
	return filepath.Join(outputDir(mapsDir, assigned), DayStamp(t), name), nil
}
