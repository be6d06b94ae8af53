package amgp

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a missing config file falls back to the defaults
func Test_LoadConfig_missing(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, Version, c.ConfigVer)
	assert.Equal(t, []string{"default"}, c.PresetNames())
	assert.Equal(t, defaultMapsDir, c.MapsDir)

	s, err := c.Preset("default")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

// presets survive a save and reload
func Test_Config_SavePreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := NewConfig()
	c.Areas["home"] = "-90, -80, 30, 40"

	s := DefaultSettings()
	s.Level = "500"
	s.Factors = "temperature, height, barbs"
	require.NoError(t, c.SavePreset(path, "upper", s))

	back, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "upper"}, back.PresetNames())
	got, err := back.Preset("upper")
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.Equal(t, "-90, -80, 30, 40", back.Areas["home"])

	_, err = back.Preset("nope")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

// fields left out of the file keep their defaults
func Test_LoadConfig_defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"config_ver": "0.2.0", "presets": {"x": {"level": "850"}}}`), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "x"}, c.PresetNames())
	assert.Equal(t, defaultAuthor, c.Author)
	d, err := c.HTTPTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)

	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func Test_Config_HTTPTimeout(t *testing.T) {
	c := NewConfig()
	c.Timeout = "soon"
	_, err := c.HTTPTimeout()
	assert.Error(t, err)
	c.Timeout = "-1s"
	_, err = c.HTTPTimeout()
	assert.Error(t, err)
}

// user areas join the built-in ones; bad extents fail
func Test_Config_AreaTable(t *testing.T) {
	c := NewConfig()
	c.Areas["home"] = "-90, -80, 30, 40"
	areas, err := c.AreaTable()
	require.NoError(t, err)
	assert.Contains(t, areas, "home")
	assert.Contains(t, areas, "us")

	c.Areas["bad"] = "north"
	_, err = c.AreaTable()
	assert.ErrorIs(t, err, ErrBadArea)
}

// config versions other than ours warn
func Test_Config_CheckVersion(t *testing.T) {
	cases := []struct {
		cfg     string
		warning bool
		err     bool
	}{
		{"0.2.0", false, false},
		{"0.2.5", true, false},
		{"0.1.9", true, false},
		{"0.3.0", false, true},
		{"1.0.0", false, true},
	}
	for _, tc := range cases {
		c := &Config{ConfigVer: tc.cfg}
		w, err := c.CheckVersion("0.2.0")
		if tc.err {
			assert.ErrorIs(t, err, ErrVersion, tc.cfg)
		} else {
			assert.NoError(t, err, tc.cfg)
		}
		assert.Equal(t, tc.warning, w != "", tc.cfg)
	}

	c := &Config{ConfigVer: "0.3.0"}
	_, err := c.CheckVersion("1.0.0")
	assert.ErrorIs(t, err, ErrVersion)
}
