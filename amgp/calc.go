package amgp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/met130/amgp-go/plot"
)

const (
	earthRadius = 6371229.0 // m
	knotsPerMS  = 1.9438444924406
)

func KelvinToCelsius(k float64) float64 { return k - 273.15 }

func KelvinToFahrenheit(k float64) float64 { return (k-273.15)*9/5 + 32 }

func CelsiusToFahrenheit(c float64) float64 { return c*9/5 + 32 }

func MSToKnots(ms float64) float64 { return ms * knotsPerMS }

func PaToHPa(pa float64) float64 { return pa / 100 }

func PerSecondToPerHour(v float64) float64 { return v * 3600 }

// WindComponents converts a meteorological direction (degrees the wind blows
// from) and speed into eastward and northward components.
func WindComponents(speed, dir float64) (u, v float64) {
	rad := dir * math.Pi / 180
	return -speed * math.Sin(rad), -speed * math.Cos(rad)
}

// WindDirection returns the direction the wind blows from in degrees, 0-360,
// and its speed.
func WindDirection(u, v float64) (speed, dir float64) {
	speed = math.Hypot(u, v)
	if speed == 0 {
		return 0, 0
	}
	dir = math.Atan2(u, v)*180/math.Pi + 180
	if dir >= 360 {
		dir -= 360
	}
	return speed, dir
}

// SaturationVaporPressure is Bolton's formula in hPa for a temperature in C.
func SaturationVaporPressure(tc float64) float64 {
	return 6.112 * math.Exp(17.67*tc/(tc+243.5))
}

// DewpointFromRH returns the dewpoint in C from temperature in C and relative
// humidity in percent. Non-positive humidity gives NaN.
func DewpointFromRH(tc, rh float64) float64 {
	if rh <= 0 || math.IsNaN(rh) || math.IsNaN(tc) {
		return math.NaN()
	}
	e := SaturationVaporPressure(tc) * rh / 100
	l := math.Log(e / 6.112)
	return 243.5 * l / (17.67 - l)
}

func sameGrid(a, b *plot.Field) error {
	ay, ax := a.Dims()
	by, bx := b.Dims()
	if ay != by || ax != bx {
		return fmt.Errorf("grids differ: %dx%d and %dx%d", ay, ax, by, bx)
	}
	return nil
}

func withValues(like *plot.Field, vals *mat.Dense) *plot.Field {
	return &plot.Field{Lats: like.Lats, Lons: like.Lons, Values: vals}
}

// WindSpeed is the magnitude of the wind vector at each point.
func WindSpeed(u, v *plot.Field) (*plot.Field, error) {
	if err := sameGrid(u, v); err != nil {
		return nil, err
	}
	var uu, vv mat.Dense
	uu.MulElem(u.Values, u.Values)
	vv.MulElem(v.Values, v.Values)
	uu.Add(&uu, &vv)
	uu.Apply(func(_, _ int, x float64) float64 { return math.Sqrt(x) }, &uu)
	return withValues(u, &uu), nil
}

// DewpointField applies DewpointFromRH point by point; t is in kelvin and
// the result in C.
func DewpointField(t, rh *plot.Field) (*plot.Field, error) {
	if err := sameGrid(t, rh); err != nil {
		return nil, err
	}
	ny, nx := t.Dims()
	out := mat.NewDense(ny, nx, nil)
	for i := 0; i < ny; i++ {
		for j := 0; j < nx; j++ {
			out.Set(i, j, DewpointFromRH(KelvinToCelsius(t.At(i, j)), rh.At(i, j)))
		}
	}
	return withValues(t, out), nil
}

// gradients returns d/dx and d/dy of f in units per metre, using centred
// differences inside the grid and one-sided differences on the edges.
func gradients(f *plot.Field) (dx, dy *mat.Dense) {
	ny, nx := f.Dims()
	dx = mat.NewDense(ny, nx, nil)
	dy = mat.NewDense(ny, nx, nil)
	toRad := math.Pi / 180
	span := func(n, k int) (int, int) {
		lo, hi := k-1, k+1
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		return lo, hi
	}
	for i := 0; i < ny; i++ {
		coslat := math.Cos(f.Lats[i] * toRad)
		for j := 0; j < nx; j++ {
			if nx > 1 {
				j0, j1 := span(nx, j)
				dist := earthRadius * coslat * (f.Lons[j1] - f.Lons[j0]) * toRad
				if dist != 0 {
					dx.Set(i, j, (f.At(i, j1)-f.At(i, j0))/dist)
				}
			}
			if ny > 1 {
				i0, i1 := span(ny, i)
				dist := earthRadius * (f.Lats[i1] - f.Lats[i0]) * toRad
				if dist != 0 {
					dy.Set(i, j, (f.At(i1, j)-f.At(i0, j))/dist)
				}
			}
		}
	}
	return dx, dy
}

// Vorticity is the relative vorticity dv/dx - du/dy + u tan(lat)/R in 1/s.
func Vorticity(u, v *plot.Field) (*plot.Field, error) {
	if err := sameGrid(u, v); err != nil {
		return nil, err
	}
	dvdx, _ := gradients(v)
	_, dudy := gradients(u)
	ny, nx := u.Dims()
	out := mat.NewDense(ny, nx, nil)
	out.Sub(dvdx, dudy)
	for i := 0; i < ny; i++ {
		tan := math.Tan(u.Lats[i] * math.Pi / 180)
		for j := 0; j < nx; j++ {
			out.Set(i, j, out.At(i, j)+u.At(i, j)*tan/earthRadius)
		}
	}
	return withValues(u, out), nil
}

// Advection is -(u ds/dx + v ds/dy), in units of s per second.
func Advection(s, u, v *plot.Field) (*plot.Field, error) {
	if err := sameGrid(s, u); err != nil {
		return nil, err
	}
	if err := sameGrid(s, v); err != nil {
		return nil, err
	}
	dsdx, dsdy := gradients(s)
	var a, b mat.Dense
	a.MulElem(u.Values, dsdx)
	b.MulElem(v.Values, dsdy)
	a.Add(&a, &b)
	a.Scale(-1, &a)
	return withValues(s, &a), nil
}
