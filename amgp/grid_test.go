package amgp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nested numeric slices of any type flatten row-major
func Test_flatten(t *testing.T) {
	got, err := flatten([][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, got)

	got, err = flatten([][][]int16{{{-1, 2}}})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 2}, got)

	got, err = flatten(uint8(7))
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, got)

	_, err = flatten([]string{"a"})
	assert.Error(t, err)
}

// singleton dimensions are dropped
func Test_shape(t *testing.T) {
	v := [][][]float32{{{1, 2, 3}, {4, 5, 6}}}
	assert.Equal(t, []int{2, 3}, shape(v))
	assert.Equal(t, []int{4}, shape([]float64{1, 2, 3, 4}))
}

func Test_applyPacking_none(t *testing.T) {
	vals := []float64{1, 2}
	applyPacking(vals, nil)
	assert.Equal(t, []float64{1, 2}, vals)
	_, ok := attrFloat(nil, "scale_factor")
	assert.False(t, ok)
}

// scattered points on a regular spacing regrid onto themselves
func Test_Regrid(t *testing.T) {
	// a 3x3 block of points on a half degree spacing, in 0-360 longitudes
	var lats, lons, vals []float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			lats = append(lats, 40+0.5*float64(i))
			lons = append(lons, 270+0.5*float64(j))
			vals = append(vals, float64(10*i+j))
		}
	}
	f, err := Regrid(lats, lons, vals, 0.5)
	require.NoError(t, err)
	ny, nx := f.Dims()
	assert.Equal(t, 3, ny)
	assert.Equal(t, 3, nx)
	assert.Equal(t, []float64{40, 40.5, 41}, f.Lats)
	assert.Equal(t, []float64{-90, -89.5, -89}, f.Lons)
	assert.Equal(t, 12.0, f.At(1, 2))

	_, err = Regrid(nil, nil, nil, 0.5)
	assert.Error(t, err)
}

// cells far from every point stay missing
func Test_Regrid_gaps(t *testing.T) {
	lats := []float64{0, 0}
	lons := []float64{0, 4}
	f, err := Regrid(lats, lons, []float64{1, 2}, 1)
	require.NoError(t, err)
	_, nx := f.Dims()
	assert.Equal(t, 5, nx)
	assert.Equal(t, 1.0, f.At(0, 0))
	assert.Equal(t, 1.0, f.At(0, 1))
	assert.True(t, math.IsNaN(f.At(0, 2)))
	assert.Equal(t, 2.0, f.At(0, 3))
	assert.Equal(t, 2.0, f.At(0, 4))
}

// x/y grids carry 2-D lat/lon arrays and go through Regrid
func Test_gridField_curvilinear(t *testing.T) {
	var lats, lons, vals []float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			// slightly skewed, as on a Lambert grid
			lats = append(lats, 40+0.5*float64(i)+0.01*float64(j))
			lons = append(lons, 270+0.5*float64(j))
			vals = append(vals, float64(10*i+j))
		}
	}
	f, err := gridField("Temperature_isobaric", vals, lats, []int{3, 3}, lons, []int{3, 3})
	require.NoError(t, err)
	ny, nx := f.Dims()
	assert.Equal(t, 3, ny)
	assert.Equal(t, 3, nx)
	assert.Equal(t, []float64{40, 40.5, 41}, f.Lats)
	assert.Equal(t, []float64{-90, -89.5, -89}, f.Lons)
	assert.Equal(t, 0.0, f.At(0, 0))
	assert.Equal(t, 11.0, f.At(1, 1))
	assert.Equal(t, 22.0, f.At(2, 2))

	_, err = gridField("Temperature_isobaric", vals[:4], lats, []int{3, 3}, lons[:8], []int{8})
	assert.Error(t, err)
}

// 1-D axes give a regular field directly
func Test_gridField_regular(t *testing.T) {
	f, err := gridField("Pressure_reduced_to_MSL_msl", []float64{1, 2, 3, 4, 5, 6}, []float64{40, 41}, []int{2}, []float64{270, 271, 272}, []int{3})
	require.NoError(t, err)
	ny, nx := f.Dims()
	assert.Equal(t, 2, ny)
	assert.Equal(t, 3, nx)
	assert.Equal(t, 6.0, f.At(1, 2))

	_, err = gridField("x", []float64{1, 2}, []float64{40, 41}, []int{2}, []float64{270, 271, 272}, []int{3})
	assert.Error(t, err)
}
