package amgp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/met130/amgp-go/plot"
)

// Data server locations. Variables so tests can point them at a local server.
var (
	SurfaceArchiveURL = "http://bergeron.valpo.edu/archive_surface_data"
	SurfaceCurrentURL = "http://bergeron.valpo.edu/current_surface_data"
	UpperAirURL       = "https://mesonet.agron.iastate.edu/json/raob.py"
	UCARThreddsURL    = "https://thredds.ucar.edu/thredds"
	NCEIThreddsURL    = "https://www.ncei.noaa.gov/thredds"
)

const recentWindow = 14 * 24 * time.Hour

var (
	gfsAnalysisStart = time.Date(2004, 3, 2, 0, 0, 0, 0, time.UTC)
	narrStart        = time.Date(1979, 1, 1, 0, 0, 0, 0, time.UTC)
	surfaceLiveYear  = 2019
)

// SurfaceKind tells which decoder a surface source needs.
type SurfaceKind int

const (
	NoSurface SurfaceKind = iota
	SurfaceArchive
	SurfaceLive
)

// SurfaceSource is where surface observations for one time come from.
type SurfaceSource struct {
	Kind SurfaceKind
	URL  string
	// WeatherField names the present weather column of the decoded reports.
	WeatherField string
	// Fresh is set when the file may still be growing on the server.
	Fresh bool
}

// GridKind identifies the gridded collection a cycle is read from.
type GridKind int

const (
	NoGrid GridKind = iota
	GFSLive
	GFSAnalysis
	GFSForecast
	NARR
)

func (k GridKind) String() string {
	switch k {
	case GFSLive:
		return "gfs-live"
	case GFSAnalysis:
		return "gfs-analysis"
	case GFSForecast:
		return "gfs-forecast"
	case NARR:
		return "narr"
	}
	return "none"
}

// GridSource is a gridded dataset on a THREDDS server, read through the
// NetCDF Subset Service.
type GridSource struct {
	Kind    GridKind
	Dataset string // NCSS dataset URL without query
	Cycle   time.Time
	Valid   time.Time
}

// Sources is the full set of data locations for one map.
type Sources struct {
	Surface  SurfaceSource
	UpperAir string
	Grid     GridSource
}

// SelectSurface picks the surface source for an observation time.
func SelectSurface(obs, now time.Time) SurfaceSource {
	switch {
	case obs.Year() < surfaceLiveYear:
		return SurfaceSource{
			Kind:         SurfaceArchive,
			URL:          fmt.Sprintf("%s/%s/%s_metar.csv", SurfaceArchiveURL, obs.Format("2006"), obs.Format("20060102")),
			WeatherField: "present_weather",
		}
	case now.Sub(obs) < recentWindow:
		return SurfaceSource{
			Kind:         SurfaceLive,
			URL:          fmt.Sprintf("%s/%s_sao.wmo", SurfaceCurrentURL, obs.Format("2006010215")),
			WeatherField: "current_wx1_symbol",
			Fresh:        now.Sub(obs) < 3*time.Hour,
		}
	}
	return SurfaceSource{Kind: NoSurface}
}

// UpperAirSource returns the sounding service URL for a sounding time.
func UpperAirSource(t time.Time) string {
	q := url.Values{"ts": {t.Format("200601021504")}}
	return UpperAirURL + "?" + q.Encode()
}

// SelectGrid picks the gridded collection for a model cycle. Whether the live
// collection is used depends on how old the observation time is, the same
// test SelectSurface applies. The archived GFS forecast fallback is resolved
// later by ResolveGrid since it needs the server's directory index.
func SelectGrid(cycle, obs, now time.Time, fcHour int) GridSource {
	valid := cycle.Add(time.Duration(fcHour) * time.Hour)
	switch {
	case now.Sub(obs) < recentWindow:
		return GridSource{
			Kind:    GFSLive,
			Dataset: fmt.Sprintf("%s/ncss/grib/NCEP/GFS/Global_onedeg/GFS_Global_onedeg_%s_%s.grib2", UCARThreddsURL, cycle.Format("20060102"), cycle.Format("1504")),
			Cycle:   cycle,
			Valid:   valid,
		}
	case !cycle.Before(gfsAnalysisStart):
		return GridSource{
			Kind:    GFSAnalysis,
			Dataset: fmt.Sprintf("%s/ncss/model-gfs-g3-anl-files-old/%s/%s/%s", NCEIThreddsURL, cycle.Format("200601"), cycle.Format("20060102"), gfsAnalysisFile(cycle)),
			Cycle:   cycle,
			Valid:   valid,
		}
	case !cycle.Before(narrStart):
		return GridSource{
			Kind:    NARR,
			Dataset: fmt.Sprintf("%s/ncss/model-narr-a-files/%s/%s/narr-a_221_%s00_000.grb", NCEIThreddsURL, cycle.Format("200601"), cycle.Format("20060102"), cycle.Format("20060102_15")),
			Cycle:   cycle,
			Valid:   valid,
		}
	}
	return GridSource{Kind: NoGrid}
}

func gfsAnalysisFile(cycle time.Time) string {
	return fmt.Sprintf("gfsanl_3_%s00_000.grb", cycle.Format("20060102_15"))
}

func gfsForecastFile(cycle time.Time, fcHour int) string {
	return fmt.Sprintf("gfs_3_%s00_%03d.grb2", cycle.Format("20060102_15"), fcHour)
}

var gribFile = regexp.MustCompile(`\.grb2?$`)

// ResolveGrid checks that an archived GFS analysis is listed by the server
// and otherwise switches to the archived GFS forecast file for the same
// cycle and forecast hour.
func ResolveGrid(ctx context.Context, f *Fetcher, g GridSource, fcHour int) (GridSource, error) {
	if g.Kind != GFSAnalysis {
		return g, nil
	}
	day := fmt.Sprintf("%s/%s", g.Cycle.Format("200601"), g.Cycle.Format("20060102"))
	index := fmt.Sprintf("%s/catalog/model-gfs-g3-anl-files-old/%s/catalog.html", NCEIThreddsURL, day)
	names, err := f.ListIndex(ctx, "ncei-index", index, gribFile)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return g, err
	}
	want := gfsAnalysisFile(g.Cycle)
	for _, n := range names {
		if n == want {
			return g, nil
		}
	}
	logger().Infof("%s not listed, falling back to the archived forecast", want)
	g.Kind = GFSForecast
	g.Dataset = fmt.Sprintf("%s/ncss/model-gfs-003-files-old/%s/%s", NCEIThreddsURL, day, gfsForecastFile(g.Cycle, fcHour))
	return g, nil
}

// VerticalKind is the vertical coordinate of a gridded variable.
type VerticalKind int

const (
	NoVertical VerticalKind = iota
	HeightAboveGround
	Isobaric
)

// NCSSQuery builds the subset request for one variable. Isobaric levels are
// sent in Pa for GFS collections and hPa for NARR.
func (g GridSource) NCSSQuery(variable string, window plot.Extent, vk VerticalKind, vertical float64) string {
	q := url.Values{
		"var":         {variable},
		"north":       {strconv.FormatFloat(window.North, 'f', 2, 64)},
		"south":       {strconv.FormatFloat(window.South, 'f', 2, 64)},
		"west":        {strconv.FormatFloat(window.West, 'f', 2, 64)},
		"east":        {strconv.FormatFloat(window.East, 'f', 2, 64)},
		"horizStride": {"1"},
		"time":        {g.Valid.UTC().Format(time.RFC3339)},
		"accept":      {"netcdf3"},
	}
	if g.Kind == NARR {
		// NARR is on a Lambert grid; ask for the 2-D lat/lon arrays too
		q.Set("addLatLon", "true")
	}
	switch vk {
	case Isobaric:
		if g.Kind != NARR {
			vertical *= 100
		}
		q.Set("vertCoord", strconv.FormatFloat(vertical, 'f', -1, 64))
	case HeightAboveGround:
		q.Set("vertCoord", strconv.FormatFloat(vertical, 'f', -1, 64))
	}
	return g.Dataset + "?" + q.Encode()
}

// SelectSources picks every data location for a map time. rewind moves all
// three times back by that many hours.
func SelectSources(mt MapTime, now time.Time, fcHour, rewind int) Sources {
	back := -time.Duration(rewind) * time.Hour
	obs := mt.Obs.Add(back)
	upper := mt.Upper.Add(back)
	cycle := mt.Gridded.Add(back)

	s := Sources{
		Surface:  SelectSurface(obs, now),
		UpperAir: UpperAirSource(upper),
	}
	if !mt.NoGridded {
		s.Grid = SelectGrid(cycle, obs, now, fcHour)
	}
	if s.Surface.Kind == NoSurface {
		logger().Warnf("the date you have selected has no surface data available")
	}
	if s.Grid.Kind == NoGrid {
		logger().Warnf("the date you have selected has no gridded data available")
	}
	return s
}
