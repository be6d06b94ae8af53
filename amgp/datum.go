package amgp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/met130/amgp-go/plot"
)

// ErrNoGriddedData is returned when gridded factors are requested for a time
// without a gridded source.
var ErrNoGriddedData = errors.New("no gridded data for this date")

const surfaceTimeWindow = 15 * time.Minute

// Gridded variable names as published by the THREDDS GRIB collections.
const (
	VarTempHAG    = "Temperature_height_above_ground"
	VarDewHAG     = "Dewpoint_temperature_height_above_ground"
	VarUHAG       = "u-component_of_wind_height_above_ground"
	VarVHAG       = "v-component_of_wind_height_above_ground"
	VarMSLP       = "Pressure_reduced_to_MSL_msl"
	VarTempIso    = "Temperature_isobaric"
	VarUIso       = "u-component_of_wind_isobaric"
	VarVIso       = "v-component_of_wind_isobaric"
	VarHeightIso  = "Geopotential_height_isobaric"
	VarRHIso      = "Relative_humidity_isobaric"
	VarAbsVortIso = "Absolute_vorticity_isobaric"
)

const (
	tempHeightM    = 2
	windHeightM    = 10
	surfaceSource  = "surface"
	soundingSource = "upper-air"
	stationsSource = "stations"
)

// Datum downloads the data one map needs, on first use.
type Datum struct {
	fetcher  *Fetcher
	sources  Sources
	window   plot.Extent
	mapTime  MapTime
	level    Level
	stations func(ctx context.Context) (StationTable, error)

	fields map[string]*plot.Field
}

// NewDatum prepares data access for one map.
func NewDatum(f *Fetcher, s Sources, window plot.Extent, mt MapTime, level Level, stations func(ctx context.Context) (StationTable, error)) *Datum {
	return &Datum{
		fetcher:  f,
		sources:  s,
		window:   window,
		mapTime:  mt,
		level:    level,
		stations: stations,
		fields:   map[string]*plot.Field{},
	}
}

// Field fetches one gridded variable at a vertical coordinate.
func (d *Datum) Field(ctx context.Context, variable string, vk VerticalKind, vertical float64) (*plot.Field, error) {
	key := fmt.Sprintf("%s@%g", variable, vertical)
	if f, ok := d.fields[key]; ok {
		return f, nil
	}
	if d.sources.Grid.Kind == NoGrid {
		return nil, ErrNoGriddedData
	}
	u := d.sources.Grid.NCSSQuery(variable, d.window, vk, vertical)
	b, err := d.fetcher.Get(ctx, d.sources.Grid.Kind.String(), u)
	if err != nil {
		return nil, err
	}
	f, err := DecodeGridBytes(b, variable)
	if err != nil {
		return nil, err
	}
	d.fields[key] = f
	return f, nil
}

// levelField fetches a variable at the map level: 2 m or 10 m above ground
// at the surface, the pressure level otherwise.
func (d *Datum) levelField(ctx context.Context, surfaceVar string, surfaceHeight float64, isoVar string) (*plot.Field, error) {
	if d.level.Surface {
		return d.Field(ctx, surfaceVar, HeightAboveGround, surfaceHeight)
	}
	return d.Field(ctx, isoVar, Isobaric, float64(d.level.HPa))
}

// Temperature in kelvin at the map level.
func (d *Datum) Temperature(ctx context.Context) (*plot.Field, error) {
	return d.levelField(ctx, VarTempHAG, tempHeightM, VarTempIso)
}

// Wind returns u and v in m/s at the map level.
func (d *Datum) Wind(ctx context.Context) (u, v *plot.Field, err error) {
	if u, err = d.levelField(ctx, VarUHAG, windHeightM, VarUIso); err != nil {
		return nil, nil, err
	}
	if v, err = d.levelField(ctx, VarVHAG, windHeightM, VarVIso); err != nil {
		return nil, nil, err
	}
	return u, v, nil
}

// SurfaceStations downloads and decodes surface reports near the
// observation time.
func (d *Datum) SurfaceStations(ctx context.Context) ([]plot.Station, error) {
	src := d.sources.Surface
	if src.Kind == NoSurface {
		return nil, nil
	}
	obsTime := d.mapTime.Obs
	var (
		b   []byte
		err error
	)
	if src.Fresh {
		b, err = d.fetcher.GetFresh(ctx, surfaceSource, src.URL)
	} else {
		b, err = d.fetcher.Get(ctx, surfaceSource, src.URL)
	}
	if err != nil {
		return nil, err
	}

	var obs []SurfaceObs
	switch src.Kind {
	case SurfaceArchive:
		if obs, err = ParseSurfaceArchive(b); err != nil {
			return nil, err
		}
	case SurfaceLive:
		text := strings.ToValidUTF8(string(b), "\\")
		obs = ParseMETARBulletin(text, obsTime.Year(), obsTime.Month())
	}

	table, err := d.stations(ctx)
	if err != nil {
		return nil, err
	}
	obs = table.AddLocations(obs)
	obs = NearestInWindow(obs, obsTime, surfaceTimeWindow)
	logger().Infof("%d surface stations near %s", len(obs), NumStamp(obsTime))
	return SurfaceStations(obs, src.WeatherField), nil
}

// SoundingStations downloads the soundings at the map level.
func (d *Datum) SoundingStations(ctx context.Context) ([]plot.Station, error) {
	b, err := d.fetcher.Get(ctx, soundingSource, d.sources.UpperAir)
	if err != nil {
		return nil, err
	}
	table, err := d.stations(ctx)
	if err != nil {
		return nil, err
	}
	obs, err := ParseSoundings(b, d.level.HPa, table)
	if err != nil {
		return nil, err
	}
	logger().Infof("%d sounding stations at %d hPa", len(obs), d.level.HPa)
	return SoundingStations(obs), nil
}
