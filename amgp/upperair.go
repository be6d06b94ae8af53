package amgp

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/met130/amgp-go/plot"
)

// droppedSoundingStations have bad positions in the sounding service.
var droppedSoundingStations = map[string]bool{"KVER": true}

// SoundingObs is one station's record at the requested pressure level.
type SoundingObs struct {
	Station    string
	Lat, Lon   float64
	Pressure   float64 // hPa
	Height     float64 // m
	TempC      float64
	DewC       float64
	DewDepress float64
	U, V       float64 // knots
}

type raobResponse struct {
	Profiles []struct {
		Station string `json:"station"`
		Valid   string `json:"valid"`
		Profile []struct {
			Pres *float64 `json:"pres"`
			Hght *float64 `json:"hght"`
			Tmpc *float64 `json:"tmpc"`
			Dwpc *float64 `json:"dwpc"`
			Drct *float64 `json:"drct"`
			Sknt *float64 `json:"sknt"`
		} `json:"profile"`
	} `json:"profiles"`
}

func optional(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// ParseSoundings decodes the sounding service JSON and returns the record
// of each station at level hPa. Stations not in the table are dropped.
func ParseSoundings(data []byte, level int, stations StationTable) ([]SoundingObs, error) {
	var resp raobResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse soundings: %w", err)
	}
	var out []SoundingObs
	for _, p := range resp.Profiles {
		if droppedSoundingStations[p.Station] {
			continue
		}
		lon, lat, ok := stations.Lookup(p.Station)
		if !ok {
			continue
		}
		for _, r := range p.Profile {
			if r.Pres == nil || math.Abs(*r.Pres-float64(level)) > 0.01 {
				continue
			}
			ob := SoundingObs{
				Station:  p.Station,
				Lat:      lat,
				Lon:      lon,
				Pressure: *r.Pres,
				Height:   optional(r.Hght),
				TempC:    optional(r.Tmpc),
				DewC:     optional(r.Dwpc),
				U:        math.NaN(),
				V:        math.NaN(),
			}
			ob.DewDepress = ob.TempC - ob.DewC
			if r.Drct != nil && r.Sknt != nil {
				ob.U, ob.V = WindComponents(*r.Sknt, *r.Drct)
			}
			out = append(out, ob)
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Station < out[j].Station })
	return out, nil
}

// Upper-air station field names.
const (
	FieldTemperature = "temperature"
	FieldDewpoint    = "dewpoint"
	FieldHeight      = "height"
)

// SoundingStations converts sounding records into plot stations.
func SoundingStations(obs []SoundingObs) []plot.Station {
	out := make([]plot.Station, 0, len(obs))
	for _, ob := range obs {
		s := plot.Station{
			ID:  ob.Station,
			Lon: ob.Lon,
			Lat: ob.Lat,
			Values: map[string]float64{
				FieldTemperature: ob.TempC,
				FieldDewpoint:    ob.DewC,
				FieldDewDepressC: ob.DewDepress,
				FieldHeight:      ob.Height,
			},
		}
		if !math.IsNaN(ob.U) && !math.IsNaN(ob.V) {
			s.U, s.V, s.HasWind = ob.U, ob.V, true
		}
		out = append(out, s)
	}
	return out
}
