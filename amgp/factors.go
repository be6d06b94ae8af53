package amgp

import (
	"fmt"
	"io"
	"strconv"
)

// FactorInfo describes one entry of the factor catalogue.
type FactorInfo struct {
	Name        string
	Description string
	Gridded     bool
}

// Factors lists every factor a preset may name, in display order.
var Factors = []FactorInfo{
	{"temperature", "Observation station temps", false},
	{"dewpoint", "Observation station dewpoints", false},
	{"dewpoint_depression", "Observation station dewpoint depressions", false},
	{"height", "Observation station pressure heights (upper-air only)", false},
	{"pressure", "Observation station pressures (surface only)", false},
	{"current_weather", "Observation station weather (surface only)", false},
	{"barbs", "Observation station wind", false},
	{"cloud_coverage", "Observation station cloud coverage (surface only)", false},
	{"height_contours", "Gridded pressure height contours (upper-air only)", true},
	{"temp_contours", "Gridded temperature contours", true},
	{"temp_fill", "Gridded temperature coloration fill", true},
	{"wind_speed_fill", "Gridded winds as a plot fill", true},
	{"temp_advect_fill", "Gridded temperature advection", true},
	{"relative_vorticity_fill", "Gridded relative vorticity", true},
	{"absolute_vorticity_fill", "Gridded absolute vorticity (upper-air only)", true},
	{"pressure_contours", "Gridded pressure contours (surface only)", true},
	{"dew_contours", "Gridded dewpoint contours", true},
	{"gridded_barbs", "Gridded winds", true},
}

// factorAliases maps older factor names onto current ones.
var factorAliases = map[string]string{
	"wind_fill": "wind_speed_fill",
}

// PrintFactors writes the catalogue with the "<factors>" tag.
func PrintFactors(w io.Writer) {
	for _, f := range Factors {
		fmt.Fprintf(w, "<factors> '%s' - %s\n", f.Name, f.Description)
	}
}

// factorSet is the set of requested factors after alias resolution.
type factorSet map[string]bool

func newFactorSet(names []string) factorSet {
	known := map[string]bool{}
	for _, f := range Factors {
		known[f.Name] = true
	}
	set := factorSet{}
	for _, n := range names {
		if a, ok := factorAliases[n]; ok {
			n = a
		}
		if !known[n] {
			logger().Warnf("ignoring unknown factor %q", n)
			continue
		}
		set[n] = true
	}
	return set
}

func (s factorSet) any(gridded bool) bool {
	for _, f := range Factors {
		if f.Gridded == gridded && s[f.Name] {
			return true
		}
	}
	return false
}

// HeightFormat returns the label formatter and contour interval in metres
// for geopotential heights at a pressure level.
func HeightFormat(level int) (func(float64) string, float64) {
	round := func(v float64) string { return strconv.FormatFloat(v, 'f', 0, 64) }
	dropFirst := func(s string) string {
		if len(s) > 1 {
			return s[1:]
		}
		return s
	}
	dropLast := func(s string) string {
		if len(s) > 1 {
			return s[:len(s)-1]
		}
		return s
	}
	switch level {
	case 975, 850, 700:
		return func(v float64) string { return dropFirst(round(v)) }, 30
	case 500:
		return func(v float64) string { return dropLast(round(v)) }, 60
	case 300:
		return func(v float64) string { return dropLast(round(v)) }, 120
	case 200:
		return func(v float64) string { return dropLast(dropFirst(round(v))) }, 120
	}
	return round, 60
}

// MSLPFormat prints sea level pressure as the last three digits of tenths of
// hPa, the station plot convention (1013.2 -> "132").
func MSLPFormat(v float64) string {
	s := strconv.FormatFloat(v*10, 'f', 0, 64)
	if len(s) > 3 {
		return s[len(s)-3:]
	}
	return s
}
