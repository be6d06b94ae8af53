package amgp

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrBadEdit is returned for edit commands naming an unknown parameter or
// missing a value.
var ErrBadEdit = errors.New("that is not a valid parameter to edit")

// Settings is one preset: every value is kept as the string the user typed
// and only parsed when a map is run.
type Settings struct {
	Level      string `json:"level"`
	Date       string `json:"date"`
	Delta      string `json:"delta"`
	Factors    string `json:"factors"`
	Area       string `json:"area"`
	DPI        string `json:"dpi"`
	Scale      string `json:"scale"`
	PRFactor   string `json:"prfactor"`
	BarbFactor string `json:"barbfactor"`
	Smoothing  string `json:"smoothing"`
	Projection string `json:"projection"`
}

// DefaultSettings is used when the preset file has no "default" preset.
func DefaultSettings() Settings {
	return Settings{
		Level:      "surface",
		Date:       "recent",
		Delta:      "0",
		Factors:    "temperature, dewpoint, pressure, current_weather, barbs, cloud_coverage",
		Area:       "us",
		DPI:        "150",
		Scale:      "1.3",
		PRFactor:   "0.75",
		BarbFactor: "3",
		Smoothing:  "2",
		Projection: "",
	}
}

// FactorList splits the factor string.
func (s Settings) FactorList() []string {
	return splitList(s.Factors, ",")
}

// Request is a Settings record parsed into typed values.
type Request struct {
	Level      Level
	Date       string
	Delta      int
	Factors    []string
	Area       string
	DPI        int
	Scale      float64
	PRFactor   float64
	BarbFactor int
	Smoothing  int
	Projection string
}

// Level is either the surface or an isobaric level in hPa.
type Level struct {
	Surface bool
	HPa     int
}

// ParseLevel accepts "surface" or an integer pressure in hPa.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	if s == "surface" {
		return Level{Surface: true}, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil || p <= 0 || p > 1100 {
		return Level{}, fmt.Errorf("invalid level %q", s)
	}
	return Level{HPa: p}, nil
}

func (l Level) String() string {
	if l.Surface {
		return "surface"
	}
	return strconv.Itoa(l.HPa)
}

// Resolve parses the settings into a Request.
func (s Settings) Resolve() (Request, error) {
	var (
		r   Request
		err error
	)
	if r.Level, err = ParseLevel(s.Level); err != nil {
		return r, err
	}
	r.Date = s.Date
	if r.Delta, err = parseIntField("delta", s.Delta); err != nil {
		return r, err
	}
	r.Factors = s.FactorList()
	r.Area = s.Area
	if r.DPI, err = parseIntField("dpi", s.DPI); err != nil {
		return r, err
	}
	if r.Scale, err = parseFloatField("scale", s.Scale); err != nil {
		return r, err
	}
	if r.PRFactor, err = parseFloatField("prfactor", s.PRFactor); err != nil {
		return r, err
	}
	if r.BarbFactor, err = parseIntField("barbfactor", s.BarbFactor); err != nil {
		return r, err
	}
	if r.Smoothing, err = parseIntField("smoothing", s.Smoothing); err != nil {
		return r, err
	}
	r.Projection = s.Projection

	if r.Delta < 0 {
		return r, fmt.Errorf("delta must not be negative, got %d", r.Delta)
	}
	if r.DPI <= 0 {
		return r, fmt.Errorf("dpi must be positive, got %d", r.DPI)
	}
	if r.BarbFactor < 1 {
		r.BarbFactor = 1
	}
	return r, nil
}

func parseIntField(name, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", name, v)
	}
	return n, nil
}

func parseFloatField(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, v)
	}
	return f, nil
}

// editDate turns the words after "edit Date" into a date spec.
func editDate(args []string) (string, error) {
	switch {
	case len(args) >= 1 && args[0] == "recent":
		return "recent", nil
	case len(args) >= 2 && args[0] == "today":
		return fmt.Sprintf("today, %s", args[1]), nil
	case len(args) >= 4:
		return strings.Join(args[:4], ", "), nil
	}
	return "", fmt.Errorf("%w: Date needs 'recent', 'today HH' or 'YYYY MM DD HH'", ErrBadEdit)
}

// editList applies "add x y", "remove x y" or a plain replacement to a
// ", "-joined list.
func editList(current string, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: no values given", ErrBadEdit)
	}
	var out []string
	switch args[0] {
	case "add":
		out = append(splitList(current, ","), args[1:]...)
	case "remove":
		out = splitList(current, ",")
		for _, r := range args[1:] {
			idx := indexOf(out, r)
			if idx < 0 {
				return "", fmt.Errorf("%q is not a valid value to remove", r)
			}
			out = append(out[:idx], out[idx+1:]...)
		}
	default:
		out = args
	}
	return strings.Join(out, ", "), nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// Edit applies "edit {param} {value...}" to the settings.
func (s *Settings) Edit(param string, args []string) error {
	if param != "Factors" && param != "Date" && len(args) == 0 {
		return fmt.Errorf("%w: %s needs a value", ErrBadEdit, param)
	}
	switch param {
	case "Level":
		s.Level = args[0]
	case "Date":
		d, err := editDate(args)
		if err != nil {
			return err
		}
		s.Date = d
	case "Delta":
		s.Delta = args[0]
	case "Factors":
		f, err := editList(s.Factors, args)
		if err != nil {
			return err
		}
		s.Factors = f
	case "Area":
		s.Area = args[0]
	case "DPI":
		s.DPI = args[0]
	case "Scale":
		s.Scale = args[0]
	case "PRF":
		s.PRFactor = args[0]
	case "BF":
		s.BarbFactor = args[0]
	case "Smooth":
		s.Smoothing = args[0]
	case "Projection":
		s.Projection = args[0]
	default:
		return fmt.Errorf("%w: %q", ErrBadEdit, param)
	}
	return nil
}

// Print writes the settings in the "<loaded>" listing format.
func (s Settings) Print(w io.Writer) {
	fmt.Fprintf(w, "<loaded> Level: %s\n", s.Level)
	fmt.Fprintf(w, "<loaded> Date: %s\n", s.Date)
	fmt.Fprintf(w, "<loaded> Delta: %s\n", s.Delta)
	fmt.Fprintf(w, "<loaded> Factors: %s\n", s.Factors)
	fmt.Fprintf(w, "<loaded> Area: %s\n", s.Area)
	fmt.Fprintf(w, "<loaded> DPI: %s\n", s.DPI)
	fmt.Fprintf(w, "<loaded> Scale: %s\n", s.Scale)
	fmt.Fprintf(w, "<loaded> PRF (Point Reduction Scale): %s\n", s.PRFactor)
	fmt.Fprintf(w, "<loaded> BF (Barb Factor): %s\n", s.BarbFactor)
	fmt.Fprintf(w, "<loaded> Smooth: %s\n", s.Smoothing)
	fmt.Fprintf(w, "<loaded> Projection: %s\n", s.Projection)
}

// MultiSettings drives batch runs over forecast hours, dates and levels.
type MultiSettings struct {
	Date   string
	Delta  int
	Jump   int
	Levels string
	DLoop  int
	FCLoop int
}

// DefaultMultiSettings matches the values multi mode starts with.
func DefaultMultiSettings() MultiSettings {
	return MultiSettings{Date: "recent", Delta: 0, Jump: 3, Levels: "surface"}
}

// LevelList splits the level string.
func (m MultiSettings) LevelList() []string {
	return splitList(m.Levels, ",")
}

// Edit applies "edit {param} {value...}" in multi mode.
func (m *MultiSettings) Edit(param string, args []string) error {
	if param == "Date" {
		d, err := editDate(args)
		if err != nil {
			return err
		}
		m.Date = d
		return nil
	}
	if param == "Levels" {
		l, err := editList(m.Levels, args)
		if err != nil {
			return err
		}
		m.Levels = l
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: %s needs a value", ErrBadEdit, param)
	}
	var target *int
	switch param {
	case "DLoop":
		target = &m.DLoop
	case "Jump":
		target = &m.Jump
	case "Delta":
		target = &m.Delta
	case "FCLoop":
		target = &m.FCLoop
	default:
		return fmt.Errorf("%w: %q", ErrBadEdit, param)
	}
	n, err := parseIntField(param, args[0])
	if err != nil {
		return err
	}
	*target = n
	return nil
}

// Print writes the multi-run settings in the "<settings>" listing format.
func (m MultiSettings) Print(w io.Writer) {
	fmt.Fprintf(w, "<settings> Date: %s\n", m.Date)
	fmt.Fprintf(w, "<settings> DLoop: %d\n", m.DLoop)
	fmt.Fprintf(w, "<settings> Delta: %d\n", m.Delta)
	fmt.Fprintf(w, "<settings> Jump: %d\n", m.Jump)
	fmt.Fprintf(w, "<settings> Levels: %s\n", m.Levels)
	fmt.Fprintf(w, "<settings> FCLoop: %d\n", m.FCLoop)
}
