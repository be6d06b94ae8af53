package amgp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/met130/amgp-go/plot"
)

// temperature, speed and pressure unit conversions
func Test_unit_conversions(t *testing.T) {
	assert.InDelta(t, 0.0, KelvinToCelsius(273.15), 1e-9)
	assert.InDelta(t, 32.0, KelvinToFahrenheit(273.15), 1e-9)
	assert.InDelta(t, 212.0, CelsiusToFahrenheit(100), 1e-9)
	assert.InDelta(t, 19.438444924406, MSToKnots(10), 1e-9)
	assert.InDelta(t, 1013.25, PaToHPa(101325), 1e-9)
	assert.InDelta(t, 0.36, PerSecondToPerHour(1e-4), 1e-12)
}

// u/v components from direction and speed
func Test_WindComponents(t *testing.T) {
	// wind from the south blows north
	u, v := WindComponents(10, 180)
	assert.InDelta(t, 0.0, u, 1e-9)
	assert.InDelta(t, 10.0, v, 1e-9)

	u, v = WindComponents(10, 90)
	assert.InDelta(t, -10.0, u, 1e-9)
	assert.InDelta(t, 0.0, v, 1e-9)

	speed, dir := WindDirection(WindComponents(20, 315))
	assert.InDelta(t, 20.0, speed, 1e-9)
	assert.InDelta(t, 315.0, dir, 1e-9)

	speed, dir = WindDirection(0, 0)
	assert.Equal(t, 0.0, speed)
	assert.Equal(t, 0.0, dir)
}

// dewpoint from temperature and relative humidity
func Test_DewpointFromRH(t *testing.T) {
	assert.InDelta(t, 20.0, DewpointFromRH(20, 100), 1e-9)
	assert.InDelta(t, 9.26, DewpointFromRH(20, 50), 0.05)
	assert.InDelta(t, 6.112, SaturationVaporPressure(0), 1e-9)
	assert.True(t, math.IsNaN(DewpointFromRH(20, 0)))
	assert.True(t, math.IsNaN(DewpointFromRH(math.NaN(), 50)))
}

// testField builds a 3x3 field at the equator with one degree spacing.
func testField(t *testing.T, fn func(lon, lat float64) float64) *plot.Field {
	t.Helper()
	lats := []float64{-1, 0, 1}
	lons := []float64{0, 1, 2}
	var vals []float64
	for _, lat := range lats {
		for _, lon := range lons {
			vals = append(vals, fn(lon, lat))
		}
	}
	f, err := plot.NewField(lats, lons, vals)
	require.NoError(t, err)
	return f
}

func Test_WindSpeed(t *testing.T) {
	u := testField(t, func(_, _ float64) float64 { return 3 })
	v := testField(t, func(_, _ float64) float64 { return 4 })
	ws, err := WindSpeed(u, v)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, ws.At(1, 1), 1e-12)

	small, err := plot.NewField([]float64{0}, []float64{0}, []float64{1})
	require.NoError(t, err)
	_, err = WindSpeed(u, small)
	assert.Error(t, err)
}

func Test_DewpointField(t *testing.T) {
	tk := testField(t, func(_, _ float64) float64 { return 293.15 })
	rh := testField(t, func(_, _ float64) float64 { return 100 })
	td, err := DewpointField(tk, rh)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, td.At(0, 2), 1e-9)
}

// vorticity of a meridional wind growing eastward
func Test_Vorticity(t *testing.T) {
	perMetre := 1 / (earthRadius * math.Pi / 180)
	u := testField(t, func(_, _ float64) float64 { return 0 })
	v := testField(t, func(lon, _ float64) float64 { return lon })
	vort, err := Vorticity(u, v)
	require.NoError(t, err)
	assert.InDelta(t, perMetre, vort.At(1, 1), 1e-12)
	// one-sided difference on the edge
	assert.InDelta(t, perMetre, vort.At(1, 0), 1e-12)

	// zonal shear u = -lat gives positive vorticity
	u = testField(t, func(_, lat float64) float64 { return -lat })
	v = testField(t, func(_, _ float64) float64 { return 0 })
	vort, err = Vorticity(u, v)
	require.NoError(t, err)
	assert.InDelta(t, perMetre, vort.At(1, 1), 1e-12)
}

// advection of a north-south gradient by a southerly wind
func Test_Advection(t *testing.T) {
	perMetre := 1 / (earthRadius * math.Pi / 180)
	s := testField(t, func(_, lat float64) float64 { return 280 + lat })
	u := testField(t, func(_, _ float64) float64 { return 0 })
	v := testField(t, func(_, _ float64) float64 { return 10 })

	adv, err := Advection(s, u, v)
	require.NoError(t, err)
	// southerly wind carries the colder air north
	assert.InDelta(t, -10*perMetre, adv.At(1, 1), 1e-12)
}
