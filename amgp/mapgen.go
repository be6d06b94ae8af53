package amgp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/met130/amgp-go/plot"
)

// MapType classifies a map for its title and filename.
type MapType int

const (
	SurfaceObsMap MapType = iota
	UpperAirObsMap
	SurfaceContourMap
	UpperAirContourMap
)

// Contour reports whether the map carries gridded layers.
func (t MapType) Contour() bool {
	return t == SurfaceContourMap || t == UpperAirContourMap
}

// Overrides replace preset values for one run, as batch loops and quickrun
// do. Zero values leave the preset untouched.
type Overrides struct {
	Date    string
	FCHour  *int
	Level   string
	Factors string
	// Rewind moves every data time back by this many hours. Run adds to it
	// when a recent map's data is missing.
	Rewind int
}

func (o Overrides) apply(s Settings) Settings {
	if o.Date != "" {
		s.Date = o.Date
	}
	if o.FCHour != nil {
		s.Delta = strconv.Itoa(*o.FCHour)
	}
	if o.Level != "" {
		s.Level = o.Level
	}
	if o.Factors != "" {
		s.Factors = o.Factors
	}
	return s
}

// Product is a built map ready to be rendered.
type Product struct {
	Panel    *plot.MapPanel
	Size     int // inches, square
	Time     MapTime
	Type     MapType
	Request  Request
	Settings Settings
}

// Container wraps the panel for rendering.
func (p *Product) Container() *plot.PanelContainer {
	return &plot.PanelContainer{Size: float64(p.Size), Panels: []*plot.MapPanel{p.Panel}}
}

// Generator builds maps from settings. The station table and basemap are
// loaded once and shared by every map of a session.
type Generator struct {
	Config  *Config
	Areas   Areas
	Fetcher *Fetcher
	Metrics *Metrics

	stations StationTable
	layers   []*plot.Layer
	basemap  bool
}

// NewGenerator wires a generator from the config.
func NewGenerator(cfg *Config, refresh bool, m *Metrics) (*Generator, error) {
	areas, err := cfg.AreaTable()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.HTTPTimeout()
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = NewMetrics()
	}
	return &Generator{
		Config:  cfg,
		Areas:   areas,
		Fetcher: NewFetcher(cfg.CacheDir, timeout, refresh, m),
		Metrics: m,
	}, nil
}

func (g *Generator) stationTable(ctx context.Context) (StationTable, error) {
	if g.stations != nil {
		return g.stations, nil
	}
	b, err := g.Fetcher.Get(ctx, stationsSource, g.Config.StationsURL)
	if err != nil {
		return nil, fmt.Errorf("station table: %w", err)
	}
	t, err := ParseStationTable(b)
	if err != nil {
		return nil, err
	}
	logger().Debugf("loaded %d station locations", len(t))
	g.stations = t
	return t, nil
}

// basemapLayers loads the basemap; a layer that cannot be loaded is left out
// with a warning.
func (g *Generator) basemapLayers(ctx context.Context) []*plot.Layer {
	if g.basemap {
		return g.layers
	}
	for _, name := range plot.DefaultLayers {
		b, err := g.Fetcher.Get(ctx, "basemap", plot.LayerSources[name])
		if err != nil {
			logger().Warnf("basemap layer %s unavailable: %s", name, err)
			continue
		}
		l, err := plot.ParseLayer(name, b)
		if err != nil {
			logger().Warnf("basemap layer %s: %s", name, err)
			continue
		}
		g.layers = append(g.layers, l)
	}
	g.basemap = true
	return g.layers
}

// A "recent" map whose newest data is not posted yet is retried this many
// hours further back, up to rewindLimit hours.
const (
	rewindStep  = 6
	rewindLimit = 12
)

// Run builds one map from s. title, when not empty, replaces the map
// descriptor in the title.
func (g *Generator) Run(ctx context.Context, s Settings, title string, ov Overrides) (*Product, error) {
	p, err := g.build(ctx, s, title, ov)
	for errors.Is(err, ErrNotFound) && isRecent(ov.apply(s).Date) && ov.Rewind < rewindLimit {
		ov.Rewind += rewindStep
		logger().Warnf("data not posted yet, rewinding %d hours: %s", ov.Rewind, err)
		p, err = g.build(ctx, s, title, ov)
	}
	return p, err
}

func isRecent(date string) bool {
	parts := splitList(date, ",")
	return len(parts) > 0 && parts[0] == "recent"
}

func (g *Generator) build(ctx context.Context, s Settings, title string, ov Overrides) (*Product, error) {
	s = ov.apply(s)
	req, err := s.Resolve()
	if err != nil {
		return nil, err
	}
	mt, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	area, err := g.Areas.Resolve(req.Area)
	if err != nil {
		return nil, err
	}
	size, err := PanelSize(area, req.Scale)
	if err != nil {
		return nil, err
	}
	proj, err := plot.ProjString(ProjectionFor(req.Projection, area), area)
	if err != nil {
		return nil, err
	}

	factors := newFactorSet(req.Factors)
	sources := SelectSources(mt, clock.Now().UTC(), req.Delta, ov.Rewind)
	if factors.any(true) {
		if sources.Grid.Kind == NoGrid {
			return nil, ErrNoGriddedData
		}
		if sources.Grid, err = ResolveGrid(ctx, g.Fetcher, sources.Grid, req.Delta); err != nil {
			return nil, err
		}
		logger().Infof("gridded source %s, valid %s", sources.Grid.Kind, NumStamp(sources.Grid.Valid))
	}
	mt = mt.rewound(ov.Rewind)
	datum := NewDatum(g.Fetcher, sources, DataWindow(area), mt, req.Level, g.stationTable)

	plots, err := griddedPlots(ctx, datum, req, factors)
	if err != nil {
		return nil, err
	}
	obs, err := observationPlot(ctx, datum, req, factors, sources.Surface.WeatherField)
	if err != nil {
		return nil, err
	}
	if obs != nil {
		plots = append(plots, obs)
	}
	if len(plots) == 0 {
		return nil, errors.New("no known factors to plot")
	}

	mapType := classify(req.Level, obs != nil, len(plots))
	panel := &plot.MapPanel{
		Area:       area,
		Projection: proj,
		Layers:     g.basemapLayers(ctx),
		Title:      Title(g.Config.Author, req, mt, mapType, title),
		Plots:      plots,
	}
	g.Metrics.MapsRendered.WithLabelValues(strconv.Itoa(int(mapType))).Inc()
	g.Metrics.LastRun.SetToCurrentTime()
	return &Product{
		Panel:    panel,
		Size:     size,
		Time:     mt,
		Type:     mapType,
		Request:  req,
		Settings: s,
	}, nil
}

func (mt MapTime) rewound(hours int) MapTime {
	back := -time.Duration(hours) * time.Hour
	mt.Obs = mt.Obs.Add(back)
	mt.Upper = mt.Upper.Add(back)
	mt.Gridded = mt.Gridded.Add(back)
	return mt
}

// classify picks the map type: anything beyond a lone station plot makes a
// contour map.
func classify(level Level, hasObs bool, nplots int) MapType {
	contour := !(hasObs && nplots == 1)
	switch {
	case contour && level.Surface:
		return SurfaceContourMap
	case contour:
		return UpperAirContourMap
	case level.Surface:
		return SurfaceObsMap
	}
	return UpperAirObsMap
}

// Descriptor is the map kind named in titles and filenames.
func Descriptor(t MapType, override string) string {
	if override != "" {
		return override
	}
	switch t {
	case SurfaceContourMap:
		return "Surface Contour Map"
	case UpperAirContourMap:
		return "Contour Map"
	case SurfaceObsMap:
		return "Surface Map"
	}
	return "Map"
}

// Title builds the panel title.
func Title(author string, req Request, mt MapTime, t MapType, override string) string {
	d := Descriptor(t, override)
	switch t {
	case SurfaceContourMap:
		return fmt.Sprintf("%s - %s %s %s, %d Hour Forecast", author, req.Area, d, AlpStamp(mt.Gridded), req.Delta)
	case UpperAirContourMap:
		return fmt.Sprintf("%s - %s %dmb %s %s, %d Hour Forecast", author, req.Area, req.Level.HPa, d, AlpStamp(mt.Gridded), req.Delta)
	case SurfaceObsMap:
		return fmt.Sprintf("%s - %s %s %s", author, req.Area, d, AlpStamp(mt.Obs))
	}
	return fmt.Sprintf("%s - %s %dmb %s %s", author, req.Area, req.Level.HPa, d, AlpStamp(mt.Upper))
}

func griddedPlots(ctx context.Context, d *Datum, req Request, factors factorSet) ([]plot.Plot, error) {
	if !factors.any(true) {
		return nil, nil
	}
	if req.Level.Surface {
		return surfaceGridded(ctx, d, req, factors)
	}
	return isobaricGridded(ctx, d, req, factors)
}

// derived bundles the fields several factors share so each is fetched and
// computed once.
type derived struct {
	d    *Datum
	temp *plot.Field
	u, v *plot.Field
}

func (x *derived) temperature(ctx context.Context) (*plot.Field, error) {
	if x.temp == nil {
		t, err := x.d.Temperature(ctx)
		if err != nil {
			return nil, err
		}
		x.temp = t
	}
	return x.temp, nil
}

func (x *derived) wind(ctx context.Context) (u, v *plot.Field, err error) {
	if x.u == nil {
		if x.u, x.v, err = x.d.Wind(ctx); err != nil {
			return nil, nil, err
		}
	}
	return x.u, x.v, nil
}

func (x *derived) windSpeedKnots(ctx context.Context) (*plot.Field, error) {
	u, v, err := x.wind(ctx)
	if err != nil {
		return nil, err
	}
	ws, err := WindSpeed(u, v)
	if err != nil {
		return nil, err
	}
	return ws.Apply(MSToKnots), nil
}

// advectionPerHour is temperature advection in degrees per hour, scaled by 3
// for display.
func (x *derived) advectionPerHour(ctx context.Context) (*plot.Field, error) {
	t, err := x.temperature(ctx)
	if err != nil {
		return nil, err
	}
	u, v, err := x.wind(ctx)
	if err != nil {
		return nil, err
	}
	adv, err := Advection(t, u, v)
	if err != nil {
		return nil, err
	}
	return adv.Apply(PerSecondToPerHour).Scale(3), nil
}

func (x *derived) vorticity(ctx context.Context) (*plot.Field, error) {
	u, v, err := x.wind(ctx)
	if err != nil {
		return nil, err
	}
	vort, err := Vorticity(u, v)
	if err != nil {
		return nil, err
	}
	return vort.Scale(1e5), nil
}

func (x *derived) barbs(ctx context.Context, skip int) (*plot.BarbPlot, error) {
	u, v, err := x.wind(ctx)
	if err != nil {
		return nil, err
	}
	return &plot.BarbPlot{U: u.Apply(MSToKnots), V: v.Apply(MSToKnots), Skip: skip, Color: "black"}, nil
}

// factorStep builds the layer of one gridded factor. Steps run in drawing
// order and only for requested factors.
type factorStep struct {
	name  string
	build func() (plot.Plot, error)
}

func buildSteps(steps []factorStep, factors factorSet) ([]plot.Plot, error) {
	var plots []plot.Plot
	for _, st := range steps {
		if !factors[st.name] {
			continue
		}
		p, err := st.build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
		plots = append(plots, p)
	}
	return plots, nil
}

func fillPlot(f *plot.Field, contours []float64, cmap, units string) *plot.FilledContourPlot {
	return &plot.FilledContourPlot{Field: f, Contours: contours, Colormap: cmap, Colorbar: "horizontal", Units: units}
}

func surfaceGridded(ctx context.Context, d *Datum, req Request, factors factorSet) ([]plot.Plot, error) {
	x := &derived{d: d}
	steps := []factorStep{
		{"temp_fill", func() (plot.Plot, error) {
			t, err := x.temperature(ctx)
			if err != nil {
				return nil, err
			}
			return fillPlot(t.Apply(KelvinToFahrenheit), plot.Range(-68, 133, 2), "coolwarm", "degF"), nil
		}},
		{"wind_speed_fill", func() (plot.Plot, error) {
			ws, err := x.windSpeedKnots(ctx)
			if err != nil {
				return nil, err
			}
			return fillPlot(ws, plot.Range(10, 201, 20), "BuPu", "knots"), nil
		}},
		{"temp_advect_fill", func() (plot.Plot, error) {
			adv, err := x.advectionPerHour(ctx)
			if err != nil {
				return nil, err
			}
			return fillPlot(adv, plot.Range(-29, 30, 0.1), "bwr", "degC/hour"), nil
		}},
		{"relative_vorticity_fill", func() (plot.Plot, error) {
			vort, err := x.vorticity(ctx)
			if err != nil {
				return nil, err
			}
			return fillPlot(vort, plot.Range(-40, 41, 2), "PuOr_r", "1e-5/s"), nil
		}},
		{"pressure_contours", func() (plot.Plot, error) {
			p, err := d.Field(ctx, VarMSLP, NoVertical, 0)
			if err != nil {
				return nil, err
			}
			return &plot.ContourPlot{
				Field:     p.Apply(PaToHPa),
				Contours:  plot.Range(0, 2000, 4),
				LineColor: "black",
				CLabels:   true,
				Smooth:    req.Smoothing,
			}, nil
		}},
		{"temp_contours", func() (plot.Plot, error) {
			t, err := x.temperature(ctx)
			if err != nil {
				return nil, err
			}
			return &plot.ContourPlot{
				Field:     t.Apply(KelvinToFahrenheit),
				Contours:  plot.Range(-100, 101, 10),
				LineColor: "red",
				LineStyle: "dashed",
				CLabels:   true,
				Smooth:    req.Smoothing,
			}, nil
		}},
		{"dew_contours", func() (plot.Plot, error) {
			td, err := d.Field(ctx, VarDewHAG, HeightAboveGround, tempHeightM)
			if err != nil {
				return nil, err
			}
			return &plot.ContourPlot{
				Field:     td.Apply(KelvinToFahrenheit),
				Contours:  plot.Range(-100, 101, 10),
				LineColor: "green",
				LineStyle: "dashed",
				CLabels:   true,
				Smooth:    req.Smoothing,
			}, nil
		}},
		{"gridded_barbs", func() (plot.Plot, error) {
			return x.barbs(ctx, req.BarbFactor)
		}},
	}
	return buildSteps(steps, factors)
}

func isobaricGridded(ctx context.Context, d *Datum, req Request, factors factorSet) ([]plot.Plot, error) {
	x := &derived{d: d}
	level := float64(req.Level.HPa)
	steps := []factorStep{
		{"temp_fill", func() (plot.Plot, error) {
			t, err := x.temperature(ctx)
			if err != nil {
				return nil, err
			}
			return fillPlot(t.Apply(KelvinToCelsius), plot.Range(-100, 101, 1), "coolwarm", "degC"), nil
		}},
		{"wind_speed_fill", func() (plot.Plot, error) {
			ws, err := x.windSpeedKnots(ctx)
			if err != nil {
				return nil, err
			}
			return fillPlot(ws, plot.Range(10, 241, 20), "BuPu", "knots"), nil
		}},
		{"temp_advect_fill", func() (plot.Plot, error) {
			adv, err := x.advectionPerHour(ctx)
			if err != nil {
				return nil, err
			}
			return fillPlot(adv, plot.Range(-29, 30, 0.1), "bwr", "degC/hour"), nil
		}},
		{"relative_vorticity_fill", func() (plot.Plot, error) {
			vort, err := x.vorticity(ctx)
			if err != nil {
				return nil, err
			}
			return fillPlot(vort, plot.Range(-80, 81, 2), "PuOr_r", "1e-5/s"), nil
		}},
		{"absolute_vorticity_fill", func() (plot.Plot, error) {
			av, err := d.Field(ctx, VarAbsVortIso, Isobaric, level)
			if err != nil {
				return nil, err
			}
			return fillPlot(av.Scale(1e5), plot.Range(-80, 81, 2), "PuOr_r", "1e-5/s"), nil
		}},
		{"height_contours", func() (plot.Plot, error) {
			h, err := d.Field(ctx, VarHeightIso, Isobaric, level)
			if err != nil {
				return nil, err
			}
			format, step := HeightFormat(req.Level.HPa)
			return &plot.ContourPlot{
				Field:       h,
				Contours:    plot.Range(0, 12000, step),
				LineColor:   "black",
				CLabels:     true,
				LabelFormat: format,
				Smooth:      req.Smoothing,
			}, nil
		}},
		{"temp_contours", func() (plot.Plot, error) {
			t, err := x.temperature(ctx)
			if err != nil {
				return nil, err
			}
			return &plot.ContourPlot{
				Field:     t.Apply(KelvinToCelsius),
				Contours:  plot.Range(-100, 101, 5),
				LineColor: "red",
				LineStyle: "dashed",
				CLabels:   true,
				Smooth:    req.Smoothing,
			}, nil
		}},
		{"dew_contours", func() (plot.Plot, error) {
			t, err := x.temperature(ctx)
			if err != nil {
				return nil, err
			}
			rh, err := d.Field(ctx, VarRHIso, Isobaric, level)
			if err != nil {
				return nil, err
			}
			td, err := DewpointField(t, rh)
			if err != nil {
				return nil, err
			}
			return &plot.ContourPlot{
				Field:     td,
				Contours:  plot.Range(-100, 101, 5),
				LineColor: "green",
				LineStyle: "dashed",
				CLabels:   true,
				Smooth:    req.Smoothing,
			}, nil
		}},
		{"gridded_barbs", func() (plot.Plot, error) {
			return x.barbs(ctx, req.BarbFactor)
		}},
	}
	return buildSteps(steps, factors)
}

// observationPlot builds the station plot, or returns nil when no
// observation factor is requested.
func observationPlot(ctx context.Context, d *Datum, req Request, factors factorSet, weatherField string) (*plot.PlotObs, error) {
	if !factors.any(false) {
		return nil, nil
	}
	surface := req.Level.Surface
	obs := &plot.PlotObs{ReducePoints: req.PRFactor}
	field := func(name, color, loc string, f plot.Format) {
		obs.Fields = append(obs.Fields, name)
		obs.Colors = append(obs.Colors, color)
		obs.Locations = append(obs.Locations, loc)
		obs.Formats = append(obs.Formats, f)
	}

	if factors["temperature"] {
		if surface {
			field(FieldTempF, "crimson", "NW", plot.Format{})
		} else {
			field(FieldTemperature, "crimson", "NW", plot.Format{})
		}
	}
	if factors["dewpoint"] {
		if surface {
			field(FieldDewF, "green", "SW", plot.Format{})
		} else {
			field(FieldDewpoint, "green", "SW", plot.Format{})
		}
	} else if factors["dewpoint_depression"] {
		field(FieldDewDepressC, "green", "SW", plot.Format{})
	}
	if factors["height"] && !surface {
		format, _ := HeightFormat(req.Level.HPa)
		field(FieldHeight, "darkslategrey", "NE", plot.FormatFunc(format))
	}
	if factors["pressure"] && surface {
		field(FieldSLP, "darkslategrey", "NE", plot.FormatFunc(MSLPFormat))
	}
	if factors["current_weather"] && surface {
		field(weatherField, "indigo", "W", plot.CurrentWeather)
	}
	obs.VectorField = factors["barbs"]
	if factors["cloud_coverage"] && surface {
		field(FieldCloudCover, "black", "C", plot.SkyCover)
	}

	var err error
	if surface {
		obs.Stations, err = d.SurfaceStations(ctx)
	} else {
		obs.Stations, err = d.SoundingStations(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("observations: %w", err)
	}
	return obs, nil
}
