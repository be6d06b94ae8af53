package amgp

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SurfaceObs is one decoded surface report. Missing values are NaN.
type SurfaceObs struct {
	Station string
	Time    time.Time
	Lat     float64
	Lon     float64

	TempC     float64
	DewC      float64
	WindDir   float64 // degrees, NaN when variable
	WindSpeed float64 // knots
	WindGust  float64
	U, V      float64 // knots
	Weather   string
	SkyCover  float64 // octas, 9 for an obscured sky
	Altimeter float64 // inHg
	SLP       float64 // hPa
}

func newSurfaceObs(station string) SurfaceObs {
	nan := math.NaN()
	return SurfaceObs{
		Station: station, Lat: nan, Lon: nan,
		TempC: nan, DewC: nan, WindDir: nan, WindSpeed: nan, WindGust: nan,
		U: nan, V: nan, SkyCover: nan, Altimeter: nan, SLP: nan,
	}
}

var (
	metarStation = regexp.MustCompile(`^[A-Z][A-Z0-9]{3}$`)
	metarTime    = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})Z$`)
	metarWind    = regexp.MustCompile(`^(\d{3}|VRB)(\d{2,3})(?:G(\d{2,3}))?(KT|MPS)$`)
	metarWeather = regexp.MustCompile(`^(-|\+|VC)?(MI|PR|BC|DR|BL|SH|TS|FZ)?((?:DZ|RA|SN|SG|IC|PL|GR|GS|UP|BR|FG|FU|VA|DU|SA|HZ|PY|PO|SQ|FC|SS|DS)+)$`)
	metarSky     = regexp.MustCompile(`^(CLR|SKC|NSC|NCD|FEW|SCT|BKN|OVC|VV)(\d{3}|///)?(CB|TCU)?$`)
	metarTemp    = regexp.MustCompile(`^(M?\d{2})/(M?\d{2})?$`)
	metarAltim   = regexp.MustCompile(`^A(\d{4})$`)
	metarQNH     = regexp.MustCompile(`^Q(\d{4})$`)
	metarSLP     = regexp.MustCompile(`^SLP(\d{3})$`)
	metarTenths  = regexp.MustCompile(`^T([01])(\d{3})([01])(\d{3})$`)
)

var skyOctas = map[string]float64{
	"CLR": 0, "SKC": 0, "NSC": 0, "NCD": 0,
	"FEW": 2, "SCT": 4, "BKN": 6, "OVC": 8, "VV": 9,
}

const hPaPerInHg = 33.8639

// ParseMETARBulletin decodes every report in a bulletin file. Reports end
// with '='; the day and time in each report are combined with year and month.
// Reports that cannot be decoded are skipped.
func ParseMETARBulletin(data string, year int, month time.Month) []SurfaceObs {
	var out []SurfaceObs
	for _, chunk := range strings.Split(data, "=") {
		if ob, ok := ParseMETAR(chunk, year, month); ok {
			out = append(out, ob)
		}
	}
	return out
}

// ParseMETAR decodes one report. Any bulletin header text before the station
// identifier is ignored.
func ParseMETAR(report string, year int, month time.Month) (SurfaceObs, bool) {
	tokens := strings.Fields(report)
	start := -1
	for k := 0; k+1 < len(tokens); k++ {
		if metarStation.MatchString(tokens[k]) && metarTime.MatchString(tokens[k+1]) {
			start = k
			break
		}
	}
	if start < 0 {
		return SurfaceObs{}, false
	}
	ob := newSurfaceObs(tokens[start])
	m := metarTime.FindStringSubmatch(tokens[start+1])
	day, _ := strconv.Atoi(m[1])
	hour, _ := strconv.Atoi(m[2])
	minute, _ := strconv.Atoi(m[3])
	if day < 1 || day > 31 || hour > 23 || minute > 59 {
		return SurfaceObs{}, false
	}
	ob.Time = time.Date(year, month, day, hour, minute, 0, 0, time.UTC)

	remarks := false
	for _, tok := range tokens[start+2:] {
		if tok == "RMK" {
			remarks = true
			continue
		}
		if remarks {
			decodeRemark(&ob, tok)
			continue
		}
		decodeGroup(&ob, tok)
	}
	if math.IsNaN(ob.SLP) && !math.IsNaN(ob.Altimeter) {
		ob.SLP = ob.Altimeter * hPaPerInHg
	}
	if !math.IsNaN(ob.WindSpeed) {
		dir := ob.WindDir
		if math.IsNaN(dir) {
			dir = 0
			if ob.WindSpeed > 0 {
				return ob, true
			}
		}
		ob.U, ob.V = WindComponents(ob.WindSpeed, dir)
	}
	return ob, true
}

func decodeGroup(ob *SurfaceObs, tok string) {
	if m := metarWind.FindStringSubmatch(tok); m != nil {
		speed, _ := strconv.ParseFloat(m[2], 64)
		gust := math.NaN()
		if m[3] != "" {
			gust, _ = strconv.ParseFloat(m[3], 64)
		}
		if m[4] == "MPS" {
			speed = MSToKnots(speed)
			gust = MSToKnots(gust)
		}
		ob.WindSpeed, ob.WindGust = speed, gust
		if m[1] != "VRB" {
			ob.WindDir, _ = strconv.ParseFloat(m[1], 64)
		}
		return
	}
	if m := metarSky.FindStringSubmatch(tok); m != nil {
		octas := skyOctas[m[1]]
		if math.IsNaN(ob.SkyCover) || octas > ob.SkyCover {
			ob.SkyCover = octas
		}
		return
	}
	if m := metarTemp.FindStringSubmatch(tok); m != nil {
		ob.TempC = metarDegrees(m[1])
		if m[2] != "" {
			ob.DewC = metarDegrees(m[2])
		}
		return
	}
	if m := metarAltim.FindStringSubmatch(tok); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		ob.Altimeter = v / 100
		return
	}
	if m := metarQNH.FindStringSubmatch(tok); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		ob.Altimeter = v / hPaPerInHg
		return
	}
	if ob.Weather == "" && metarWeather.MatchString(tok) {
		ob.Weather = tok
	}
}

func decodeRemark(ob *SurfaceObs, tok string) {
	if m := metarSLP.FindStringSubmatch(tok); m != nil {
		ob.SLP = SeaLevelPressure(m[1])
		return
	}
	if m := metarTenths.FindStringSubmatch(tok); m != nil {
		ob.TempC = tenths(m[1], m[2])
		ob.DewC = tenths(m[3], m[4])
	}
}

// SeaLevelPressure expands the three digit SLP remark into hPa.
func SeaLevelPressure(digits string) float64 {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return math.NaN()
	}
	if n < 500 {
		return 1000 + float64(n)/10
	}
	return 900 + float64(n)/10
}

func metarDegrees(s string) float64 {
	neg := strings.HasPrefix(s, "M")
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "M"), 64)
	if err != nil {
		return math.NaN()
	}
	if neg {
		return -v
	}
	return v
}

func tenths(sign, digits string) float64 {
	v, _ := strconv.ParseFloat(digits, 64)
	v /= 10
	if sign == "1" {
		return -v
	}
	return v
}
