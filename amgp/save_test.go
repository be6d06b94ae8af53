package amgp

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/met130/amgp-go/plot"
)

func testProduct(t MapType, level Level) *Product {
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	return &Product{
		Type: t,
		Time: MapTime{Obs: at.Add(3 * time.Hour), Upper: at, Gridded: at},
		Request: Request{
			Level: level,
			Delta: 6,
			Area:  "us",
			DPI:   150,
		},
	}
}

// saved map names follow the date and layers
func Test_MapPath(t *testing.T) {
	cases := []struct {
		t     MapType
		level Level
		want  string
	}{
		{SurfaceObsMap, Level{Surface: true}, "Maps/Test_Maps/2024-05-10/2024-05-10-15Z, us Surface Map, 150 DPI - Doe.png"},
		{UpperAirObsMap, Level{HPa: 500}, "Maps/Test_Maps/2024-05-10/2024-05-10-12Z, us 500mb Map, 150 DPI - Doe.png"},
		{SurfaceContourMap, Level{Surface: true}, "Maps/Test_Maps/2024-05-10/2024-05-10-12Z, 06H, us Surface Contour Map, 150 DPI - Doe.png"},
		{UpperAirContourMap, Level{HPa: 850}, "Maps/Test_Maps/2024-05-10/2024-05-10-12Z, 06H, us 850mb Contour Map, 150 DPI - Doe.png"},
	}
	for _, tc := range cases {
		got := MapPath("Maps", "Doe", testProduct(tc.t, tc.level), false, "")
		assert.Equal(t, filepath.FromSlash(tc.want), got)
	}

	got := MapPath("Maps", "Doe", testProduct(SurfaceObsMap, Level{Surface: true}), true, "Fronts")
	assert.Equal(t, filepath.FromSlash("Maps/Assignment_Maps/2024-05-10/2024-05-10-15Z, us Fronts, 150 DPI - Doe.png"), got)
}

func Test_RecallPath(t *testing.T) {
	got, err := RecallPath("Maps", "Doe", "2024, 5, 10, 12, us, 850mb, 150, n, y, 6")
	require.NoError(t, err)
	assert.Equal(t, MapPath("Maps", "Doe", testProduct(UpperAirContourMap, Level{HPa: 850}), false, ""), got)

	got, err = RecallPath("Maps", "Doe", "2024, 5, 10, 12, us, surface, 150, y, y, 6")
	require.NoError(t, err)
	assert.Equal(t, MapPath("Maps", "Doe", testProduct(SurfaceContourMap, Level{Surface: true}), true, ""), got)

	got, err = RecallPath("Maps", "Doe", "2024, 5, 10, 12, us, 500, 150, n, n, 0")
	require.NoError(t, err)
	assert.Equal(t, MapPath("Maps", "Doe", testProduct(UpperAirObsMap, Level{HPa: 500}), false, ""), got)

	_, err = RecallPath("Maps", "Doe", "2024, 5, 10, 12, us")
	assert.ErrorIs(t, err, ErrBadRecall)
	_, err = RecallPath("Maps", "Doe", "2024, May, 10, 12, us, 500, 150, n, n, 0")
	assert.ErrorIs(t, err, ErrBadRecall)
}

func Test_TempPath(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("Maps/Temp/temp.png"), TempPath("Maps", ""))
	assert.Equal(t, filepath.FromSlash("Maps/Temp/007.png"), TempPath("Maps", "007"))
	assert.Equal(t, filepath.FromSlash("Maps/Test_Maps/loop.gif"), GIFPath("Maps", false, "loop"))
}

// clean empties a directory
func Test_CleanDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.png"), []byte("x"), 0o644))

	require.NoError(t, CleanDir(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, DeleteDir(dir))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	assert.Error(t, DeleteDir(dir))
}

// temporary maps are cleared
func Test_ClearTemp(t *testing.T) {
	maps := t.TempDir()
	// nothing to clear yet
	require.NoError(t, ClearTemp(maps))

	tmp := TempPath(maps, "")
	require.NoError(t, os.MkdirAll(filepath.Dir(tmp), os.ModePerm))
	require.NoError(t, os.WriteFile(tmp, []byte("png"), 0o644))
	require.NoError(t, ClearTemp(maps))
	_, err := os.Stat(tmp)
	assert.True(t, os.IsNotExist(err))
}

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	cfg := NewConfig()
	cfg.MapsDir = filepath.Join(t.TempDir(), "Maps")
	cfg.CacheDir = ""
	cfg.Author = "Doe"
	g, err := NewGenerator(cfg, false, nil)
	require.NoError(t, err)
	return g
}

// maps are written under the save directory
func Test_Generator_SaveMap(t *testing.T) {
	g := testGenerator(t)
	p := testProduct(SurfaceObsMap, Level{Surface: true})
	area := plot.Extent{West: -90, East: -80, South: 35, North: 45}
	p.Panel = &plot.MapPanel{Area: area, Projection: plot.LambertConformal(-85, 40)}
	p.Size = 2
	p.Request.DPI = 40

	path, img, err := g.SaveMap(p, SaveOptions{NoShow: true, Title: "000"})
	require.NoError(t, err)
	assert.Equal(t, TempPath(g.Config.MapsDir, "000"), path)
	assert.Equal(t, 80, img.Bounds().Dx())
	assert.FileExists(t, path)

	path, _, err = g.SaveMap(p, SaveOptions{Save: true, NoShow: true})
	require.NoError(t, err)
	assert.Equal(t, MapPath(g.Config.MapsDir, "Doe", p, false, ""), path)
	assert.FileExists(t, path)
	assert.Equal(t, 2.0, testutil.ToFloat64(g.Metrics.MapsSaved))

	gif, err := g.SaveGIF([]image.Image{img, img}, true, "loop")
	require.NoError(t, err)
	assert.Equal(t, GIFPath(g.Config.MapsDir, true, "loop"), gif)
	assert.FileExists(t, gif)
}
