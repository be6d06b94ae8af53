package amgp

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMapper struct {
	runs    []Settings
	saves   []SaveOptions
	batches []BatchOptions
	multi   []MultiSettings
	err     error
}

func (f *fakeMapper) Run(_ context.Context, s Settings, title string, _ Overrides) (*Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.runs = append(f.runs, s)
	return &Product{Settings: s}, nil
}

func (f *fakeMapper) SaveMap(_ *Product, opts SaveOptions) (string, image.Image, error) {
	f.saves = append(f.saves, opts)
	return "map.png", nil, nil
}

func (f *fakeMapper) RunBatch(_ context.Context, _ Settings, m MultiSettings, opts BatchOptions, _ io.Writer) ([]string, error) {
	f.batches = append(f.batches, opts)
	f.multi = append(f.multi, m)
	return nil, f.err
}

func runSession(t *testing.T, m Mapper, input ...string) (*Session, string, string) {
	t.Helper()
	cfg := NewConfig()
	cfg.MapsDir = t.TempDir()
	path := filepath.Join(t.TempDir(), "config.json")
	areas, err := cfg.AreaTable()
	require.NoError(t, err)

	var out bytes.Buffer
	s, err := NewSession(cfg, path, areas, m, strings.NewReader(strings.Join(input, "\n")+"\n"), &out)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))
	return s, out.String(), path
}

// field edits from the prompt
func Test_Session_edit(t *testing.T) {
	s, out, _ := runSession(t, &fakeMapper{},
		"edit Level 500",
		"edit Factors add height",
		"edit Factors remove pressure",
		"edit Colour red",
		"quit")
	assert.Equal(t, "500", s.Loaded().Level)
	assert.Equal(t, "temperature, dewpoint, current_weather, barbs, cloud_coverage, height", s.Loaded().Factors)
	assert.Contains(t, out, "<loaded> Level: 500")
	assert.Contains(t, out, "<error> that is not a valid parameter to edit")
	assert.True(t, strings.HasSuffix(out, "<quit> The process was terminated.\n"))
}

// the prompt commands
func Test_Session_commands(t *testing.T) {
	useClock(t, time.Date(2024, 5, 10, 12, 30, 0, 0, time.UTC))

	_, out, _ := runSession(t, &fakeMapper{},
		"",
		"bogus",
		"time",
		"preset list",
		"preset nope",
		"area us+",
		"factors",
		"list",
		"quit")
	assert.Contains(t, out, "<error> That is not a valid command!")
	assert.Contains(t, out, "<time> It is currently 2024-05-10 12:30:00Z")
	assert.Contains(t, out, "<presets> default\n")
	assert.Contains(t, out, "<error> no such preset")
	assert.Contains(t, out, "<loaded> us+: -110.25, -80.75, 29.75, 43.25")
	assert.Contains(t, out, "<factors> 'gridded_barbs' - Gridded winds")
	assert.Contains(t, out, "<list> Type 'run' to run with the current settings.")
}

// saving settings as a preset
func Test_Session_save_preset(t *testing.T) {
	s, out, path := runSession(t, &fakeMapper{},
		"edit Area gl",
		"save lakes",
		"edit Area us",
		"preset lakes",
		"quit")
	assert.Contains(t, out, "as preset: lakes.")
	assert.Equal(t, "gl", s.Loaded().Area)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "lakes"}, cfg.PresetNames())
}

func Test_Session_run(t *testing.T) {
	m := &fakeMapper{}
	_, out, path := runSession(t, m,
		"run", "y", "y", "n", "Lab 3",
		"run", "n",
		"quit")
	require.Len(t, m.runs, 2)
	require.Len(t, m.saves, 2)
	assert.Equal(t, SaveOptions{Save: true, Assigned: true, NoShow: true, Title: "Lab 3"}, m.saves[0])
	assert.Equal(t, SaveOptions{}, m.saves[1])
	assert.Equal(t, 1, strings.Count(out, "<run> Map successfully saved!"))
	assert.Contains(t, out, "<run> Previous settings saved.")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	prev, err := cfg.Preset("prev")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), prev)
}

// a failed run keeps the prompt alive
func Test_Session_run_error(t *testing.T) {
	m := &fakeMapper{err: errors.New("no data")}
	_, out, _ := runSession(t, m, "run", "n", "quit")
	assert.Contains(t, out, "<error> no data")
	assert.Empty(t, m.saves)
}

// multi-panel sessions edit one panel at a time
func Test_Session_multi(t *testing.T) {
	m := &fakeMapper{}
	_, out, _ := runSession(t, m,
		"mode",
		"edit Jump 6",
		"edit Levels add 500",
		"edit Area us",
		"preset list",
		"run", "y", "n", "",
		"run", "n", "y",
		"mode",
		"quit")
	assert.Contains(t, out, "<menu> Switched to multi mode.")
	assert.Contains(t, out, "<settings> Jump: 6")
	assert.Contains(t, out, "<presets> To edit or add presets, please switch back to individual mode.")
	assert.Contains(t, out, "<menu> Switched to single mode.")

	require.Len(t, m.batches, 2)
	assert.Equal(t, BatchOptions{Save: true, GIF: "loop"}, m.batches[0])
	assert.Equal(t, BatchOptions{Save: true, Assigned: true}, m.batches[1])
	assert.Equal(t, 6, m.multi[0].Jump)
	assert.Equal(t, []string{"surface", "500"}, m.multi[0].LevelList())
}

func Test_Session_eof(t *testing.T) {
	_, out, _ := runSession(t, &fakeMapper{}, "paste")
	assert.Contains(t, out, "<loaded> Area: us")
	assert.NotContains(t, out, "<quit>")
}
