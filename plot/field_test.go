package plot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rampField is 0..3 across longitudes on every latitude.
func rampField(t *testing.T) *Field {
	t.Helper()
	f, err := NewField([]float64{40, 41, 42}, []float64{-90, -89, -88, -87}, []float64{
		0, 1, 2, 3,
		0, 1, 2, 3,
		0, 1, 2, 3,
	})
	require.NoError(t, err)
	return f
}

// field construction errors
func Test_NewField(t *testing.T) {
	_, err := NewField(nil, []float64{1}, nil)
	assert.ErrorIs(t, err, ErrEmptyField)
	_, err = NewField([]float64{1, 2}, []float64{1}, []float64{1})
	assert.Error(t, err)

	f := rampField(t)
	ny, nx := f.Dims()
	assert.Equal(t, 3, ny)
	assert.Equal(t, 4, nx)
	assert.Equal(t, 2.0, f.At(1, 2))
}

func Test_Field_Apply_Scale_Range(t *testing.T) {
	f := rampField(t)
	g := f.Apply(func(v float64) float64 { return v + 10 })
	assert.Equal(t, 13.0, g.At(0, 3))
	assert.Equal(t, 3.0, f.At(0, 3))

	lo, hi, ok := f.Scale(2).Range()
	require.True(t, ok)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 6.0, hi)

	nan := f.Apply(func(float64) float64 { return math.NaN() })
	_, _, ok = nan.Range()
	assert.False(t, ok)
}

// bilinear sampling inside and outside the grid
func Test_Field_Sample(t *testing.T) {
	f := rampField(t)
	v, ok := f.Sample(-88.5, 41.25)
	require.True(t, ok)
	assert.InDelta(t, 1.5, v, 1e-12)

	// 0-360 longitudes are folded into the field's convention
	v, ok = f.Sample(271.5, 40)
	require.True(t, ok)
	assert.InDelta(t, 1.5, v, 1e-12)

	_, ok = f.Sample(-80, 41)
	assert.False(t, ok)
	_, ok = f.Sample(-89, 50)
	assert.False(t, ok)
}

// descending latitude axes
func Test_Field_descendingAxis(t *testing.T) {
	f, err := NewField([]float64{42, 41, 40}, []float64{0, 1}, []float64{2, 2, 1, 1, 0, 0})
	require.NoError(t, err)
	v, ok := f.Sample(0.5, 40.5)
	require.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-12)

	lon, lat := f.LonLat(1.5, 0.5)
	assert.InDelta(t, 0.5, lon, 1e-12)
	assert.InDelta(t, 40.5, lat, 1e-12)
}

// upsampling keeps the original points
func Test_Field_Upsample(t *testing.T) {
	f := rampField(t)
	assert.Same(t, f, f.Upsample(1))

	g := f.Upsample(2)
	ny, nx := g.Dims()
	assert.Equal(t, 5, ny)
	assert.Equal(t, 7, nx)
	assert.Equal(t, []float64{40, 40.5, 41, 41.5, 42}, g.Lats)
	assert.InDelta(t, 2.5, g.At(3, 5), 1e-12)
}

func Test_Field_LonLat(t *testing.T) {
	f, err := NewField([]float64{0, 1}, []float64{270, 271}, []float64{0, 0, 0, 0})
	require.NoError(t, err)
	lon, lat := f.LonLat(1, 0.5)
	assert.InDelta(t, -89.5, lon, 1e-12)
	assert.InDelta(t, 1.0, lat, 1e-12)

	row, col, ok := f.Position(-89.5, 0.25)
	require.True(t, ok)
	assert.InDelta(t, 0.25, row, 1e-12)
	assert.InDelta(t, 0.5, col, 1e-12)
}
