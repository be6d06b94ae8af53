package amgp

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/met130/amgp-go/plot"
)

const missingValue = -9999

// csvColumns maps header names to column indices.
type csvColumns map[string]int

func (c csvColumns) str(row []string, names ...string) string {
	for _, n := range names {
		if i, ok := c[n]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

func (c csvColumns) float(row []string, names ...string) float64 {
	s := c.str(row, names...)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v == missingValue {
		return math.NaN()
	}
	return v
}

func readCSV(data []byte) (csvColumns, *csv.Reader, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := csvColumns{}
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	return cols, r, nil
}

// ParseSurfaceArchive decodes an archived day of surface reports. The file
// carries decoded values with -9999 for missing data and temperatures in C.
func ParseSurfaceArchive(data []byte) ([]SurfaceObs, error) {
	cols, r, err := readCSV(data)
	if err != nil {
		return nil, err
	}
	var out []SurfaceObs
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read surface archive: %w", err)
		}
		ob := newSurfaceObs(cols.str(row, "station_id", "station"))
		if ob.Station == "" {
			continue
		}
		ts := cols.str(row, "date_time")
		t, err := parseArchiveTime(ts)
		if err != nil {
			continue
		}
		ob.Time = t
		ob.Lat = cols.float(row, "latitude")
		ob.Lon = cols.float(row, "longitude")
		ob.TempC = cols.float(row, "air_temperature")
		ob.DewC = cols.float(row, "dew_point_temperature")
		ob.WindDir = cols.float(row, "wind_direction")
		ob.WindSpeed = cols.float(row, "wind_speed")
		ob.U = cols.float(row, "eastward_wind")
		ob.V = cols.float(row, "northward_wind")
		if math.IsNaN(ob.U) && !math.IsNaN(ob.WindSpeed) && !math.IsNaN(ob.WindDir) {
			ob.U, ob.V = WindComponents(ob.WindSpeed, ob.WindDir)
		}
		ob.SkyCover = cols.float(row, "cloud_coverage")
		ob.SLP = cols.float(row, "air_pressure_at_sea_level")
		ob.Altimeter = cols.float(row, "altimeter")
		ob.Weather = cols.str(row, "present_weather", "current_wx1")
		if ob.Weather == strconv.Itoa(missingValue) {
			ob.Weather = ""
		}
		out = append(out, ob)
	}
	return out, nil
}

func parseArchiveTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad report time %q", s)
}

// StationTable holds station locations by identifier.
type StationTable map[string][2]float64 // lon, lat

// ParseStationTable reads a station CSV with stid, lat and lon columns.
func ParseStationTable(data []byte) (StationTable, error) {
	cols, r, err := readCSV(data)
	if err != nil {
		return nil, err
	}
	if _, ok := cols["stid"]; !ok {
		return nil, errors.New("station table has no stid column")
	}
	table := StationTable{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read station table: %w", err)
		}
		id := strings.ToUpper(cols.str(row, "stid"))
		lat := cols.float(row, "lat")
		lon := cols.float(row, "lon")
		if id == "" || math.IsNaN(lat) || math.IsNaN(lon) {
			continue
		}
		if _, dup := table[id]; !dup {
			table[id] = [2]float64{lon, lat}
		}
	}
	return table, nil
}

// Lookup finds a station, also trying the identifier with a leading K added
// or removed since tables differ on ICAO prefixes.
func (t StationTable) Lookup(id string) (lon, lat float64, ok bool) {
	id = strings.ToUpper(id)
	candidates := []string{id}
	if len(id) == 4 && strings.HasPrefix(id, "K") {
		candidates = append(candidates, id[1:])
	}
	if len(id) == 3 {
		candidates = append(candidates, "K"+id)
	}
	for _, c := range candidates {
		if p, found := t[c]; found {
			return p[0], p[1], true
		}
	}
	return 0, 0, false
}

// AddLocations fills in missing positions from the table and drops reports
// that still have none.
func (t StationTable) AddLocations(obs []SurfaceObs) []SurfaceObs {
	out := obs[:0]
	for _, ob := range obs {
		if math.IsNaN(ob.Lat) || math.IsNaN(ob.Lon) {
			lon, lat, ok := t.Lookup(ob.Station)
			if !ok {
				continue
			}
			ob.Lon, ob.Lat = lon, lat
		}
		out = append(out, ob)
	}
	return out
}

// NearestInWindow keeps, per station, the report closest to at and no more
// than window away. The result is sorted by station.
func NearestInWindow(obs []SurfaceObs, at time.Time, window time.Duration) []SurfaceObs {
	best := map[string]SurfaceObs{}
	for _, ob := range obs {
		d := absDuration(ob.Time.Sub(at))
		if d > window {
			continue
		}
		if cur, ok := best[ob.Station]; !ok || d < absDuration(cur.Time.Sub(at)) {
			best[ob.Station] = ob
		}
	}
	out := make([]SurfaceObs, 0, len(best))
	for _, ob := range best {
		out = append(out, ob)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Station < out[j].Station })
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Surface station field names.
const (
	FieldTempF       = "tmpf"
	FieldDewF        = "dwpf"
	FieldSLP         = "air_pressure_at_sea_level"
	FieldCloudCover  = "cloud_coverage"
	FieldDewDepressC = "dewpoint_depression"
)

// SurfaceStations converts reports into plot stations. weatherField names
// the text field the present weather is stored under.
func SurfaceStations(obs []SurfaceObs, weatherField string) []plot.Station {
	out := make([]plot.Station, 0, len(obs))
	for _, ob := range obs {
		s := plot.Station{
			ID:  ob.Station,
			Lon: ob.Lon,
			Lat: ob.Lat,
			Values: map[string]float64{
				FieldTempF:       CelsiusToFahrenheit(ob.TempC),
				FieldDewF:        CelsiusToFahrenheit(ob.DewC),
				FieldDewDepressC: ob.TempC - ob.DewC,
				FieldSLP:         ob.SLP,
				FieldCloudCover:  ob.SkyCover,
			},
			Text: map[string]string{weatherField: ob.Weather},
		}
		if !math.IsNaN(ob.U) && !math.IsNaN(ob.V) {
			s.U, s.V, s.HasWind = ob.U, ob.V, true
		}
		out = append(out, s)
	}
	return out
}
