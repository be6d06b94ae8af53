package amgp

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAuthor      = "Bailey, Sam"
	defaultMapsDir     = "Maps"
	defaultCacheDir    = ".amgp_cache"
	defaultStationsURL = "https://mesonet.agron.iastate.edu/sites/networks.php?network=_ALL_&format=csv&nohtml=on"
	defaultTimeout     = "2m"
)

var (
	// ErrUnknownPreset is returned when a preset name is not in the file.
	ErrUnknownPreset = errors.New("no such preset")
	// ErrVersion is returned when the preset file cannot be used with this
	// program version.
	ErrVersion = errors.New("incompatible config version")
)

// Config is the preset file.
type Config struct {
	ConfigVer   string              `json:"config_ver"`
	Presets     map[string]Settings `json:"presets"`
	Areas       map[string]string   `json:"areas"`
	Author      string              `json:"author,omitempty"`
	MapsDir     string              `json:"maps_dir,omitempty"`
	CacheDir    string              `json:"cache_dir,omitempty"`
	StationsURL string              `json:"stations_url,omitempty"`
	Timeout     string              `json:"timeout,omitempty"`
}

// NewConfig returns a config holding only the default preset.
func NewConfig() *Config {
	c := &Config{ConfigVer: Version}
	c.applyDefaults()
	c.Presets["default"] = DefaultSettings()
	return c
}

// LoadConfig reads the preset file at path. A missing file yields NewConfig.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger().Warnf("config %s not found, using built-in defaults", path)
		return NewConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := &Config{}
	if err := json.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyDefaults()
	if _, ok := c.Presets["default"]; !ok {
		c.Presets["default"] = DefaultSettings()
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Presets == nil {
		c.Presets = map[string]Settings{}
	}
	if c.Areas == nil {
		c.Areas = map[string]string{}
	}
	if c.Author == "" {
		c.Author = defaultAuthor
	}
	if c.MapsDir == "" {
		c.MapsDir = defaultMapsDir
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.StationsURL == "" {
		c.StationsURL = defaultStationsURL
	}
	if c.Timeout == "" {
		c.Timeout = defaultTimeout
	}
}

// Save writes the config back to path.
func (c *Config) Save(path string) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SavePreset stores s under name and writes the file.
func (c *Config) SavePreset(path, name string, s Settings) error {
	c.Presets[name] = s
	return c.Save(path)
}

// Preset returns a copy of the named preset.
func (c *Config) Preset(name string) (Settings, error) {
	s, ok := c.Presets[name]
	if !ok {
		return Settings{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return s, nil
}

// PresetNames lists preset names in sorted order.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for n := range c.Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HTTPTimeout parses the configured fetch timeout.
func (c *Config) HTTPTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q", c.Timeout)
	}
	return d, nil
}

// AreaTable merges the config areas over the built-in table.
func (c *Config) AreaTable() (Areas, error) {
	areas, err := DefaultAreas()
	if err != nil {
		return nil, err
	}
	if err := areas.Merge(c.Areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// CheckVersion compares the file version with the program version. An error
// means the file cannot be used; a non-empty warning should be shown.
func (c *Config) CheckVersion(program string) (warning string, err error) {
	if c.ConfigVer == program {
		return "", nil
	}
	cfg := versionParts(c.ConfigVer)
	prg := versionParts(program)
	switch {
	case cfg[0] > prg[0]:
		return "", fmt.Errorf("%w: your installed AMGP version is out of date, config version %s found", ErrVersion, c.ConfigVer)
	case cfg[0] < prg[0]:
		return "", fmt.Errorf("%w: the config we found is out of date, config version %s found", ErrVersion, c.ConfigVer)
	case cfg[1] > prg[1]:
		return "", fmt.Errorf("%w: your installed AMGP version is out of date, config version %s found", ErrVersion, c.ConfigVer)
	case cfg[1] < prg[1]:
		return fmt.Sprintf("the loaded config file is of an earlier version (%s), consider updating it", c.ConfigVer), nil
	}
	return fmt.Sprintf("the loaded config file is of a different compatible version (%s)", c.ConfigVer), nil
}

func versionParts(v string) [3]int {
	var out [3]int
	for i, p := range strings.SplitN(v, ".", 3) {
		n, _ := strconv.Atoi(p)
		out[i] = n
	}
	return out
}
