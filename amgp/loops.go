package amgp

import (
	"context"
	"fmt"
	"image"
	"io"
)

// ForecastHours lists delta, delta+6, ... delta+6*fcloop.
func ForecastHours(delta, fcloop int) []int {
	out := []int{delta}
	for k := 1; k <= fcloop; k++ {
		out = append(out, delta+6*k)
	}
	return out
}

// DateOffsets lists the hour offsets 0, jump, ... jump*dloop. A negative
// dloop steps backwards.
func DateOffsets(jump, dloop int) []int {
	out := []int{0}
	step := 1
	if dloop < 0 {
		step, dloop = -1, -dloop
	}
	for k := 1; k <= dloop; k++ {
		out = append(out, step*k*jump)
	}
	return out
}

// BatchOptions controls how a batch run stores its maps.
type BatchOptions struct {
	// Save writes each map to its permanent path; otherwise maps go to the
	// temp folder, numbered in run order.
	Save     bool
	Assigned bool
	// GIF, when set, collects every map as a frame of an animation with
	// this name instead of saving each map.
	GIF string
	// Factors overrides the preset factors.
	Factors string
	// Show opens each saved map.
	Show bool
	// Rewind moves the data times of every map back by this many hours.
	Rewind int
}

// RunBatch runs s over every forecast hour, date offset and level of m, in
// that nesting order. It returns the paths written.
func (g *Generator) RunBatch(ctx context.Context, s Settings, m MultiSettings, opts BatchOptions, out io.Writer) ([]string, error) {
	base, err := ParseDate(m.Date)
	if err != nil {
		return nil, err
	}
	levels := m.LevelList()
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: no levels to run", ErrBadEdit)
	}

	var (
		paths  []string
		frames []image.Image
		n      int
	)
	for _, fh := range ForecastHours(m.Delta, m.FCLoop) {
		for _, offset := range DateOffsets(m.Jump, m.DLoop) {
			mt, err := base.Shift(offset)
			if err != nil {
				return paths, err
			}
			for _, lvl := range levels {
				fh := fh
				ov := Overrides{Date: mt.String(), FCHour: &fh, Level: lvl, Factors: opts.Factors, Rewind: opts.Rewind}
				p, err := g.Run(ctx, s, "", ov)
				if err != nil {
					g.Metrics.RunErrors.Inc()
					return paths, fmt.Errorf("%s, %dH, %s: %w", NumStamp(mt.Obs), fh, lvl, err)
				}
				if opts.GIF != "" {
					img, err := p.Container().Render(p.Request.DPI)
					if err != nil {
						return paths, err
					}
					frames = append(frames, img)
					fmt.Fprintln(out, "<run> Map panel created successfully")
					continue
				}
				save := SaveOptions{Save: opts.Save, Assigned: opts.Assigned, NoShow: !opts.Show}
				if !opts.Save {
					save.Title = fmt.Sprintf("%03d", n)
				}
				n++
				path, _, err := g.SaveMap(p, save)
				if err != nil {
					return paths, err
				}
				paths = append(paths, path)
				fmt.Fprintf(out, "<run> Map saved to %s\n", path)
			}
		}
	}

	if opts.GIF != "" {
		path, err := g.SaveGIF(frames, opts.Assigned, opts.GIF)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
		fmt.Fprintln(out, "<run> Gif created successfully")
	}
	return paths, nil
}
