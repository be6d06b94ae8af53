package plot

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrEmptyField is returned for fields without any grid points.
var ErrEmptyField = errors.New("empty field")

// Field is a scalar on a regular latitude/longitude grid. Values holds one
// row per latitude and one column per longitude; missing points are NaN.
// Both axes must be monotonic, in either direction.
type Field struct {
	Lats   []float64
	Lons   []float64
	Values *mat.Dense
}

// NewField wraps row-major values of len(lats)*len(lons).
func NewField(lats, lons, values []float64) (*Field, error) {
	if len(lats) == 0 || len(lons) == 0 {
		return nil, ErrEmptyField
	}
	if len(values) != len(lats)*len(lons) {
		return nil, fmt.Errorf("field has %d values for a %dx%d grid", len(values), len(lats), len(lons))
	}
	return &Field{
		Lats:   append([]float64(nil), lats...),
		Lons:   append([]float64(nil), lons...),
		Values: mat.NewDense(len(lats), len(lons), append([]float64(nil), values...)),
	}, nil
}

// Dims returns the number of latitudes and longitudes.
func (f *Field) Dims() (ny, nx int) {
	return f.Values.Dims()
}

// At returns the value at latitude index i and longitude index j.
func (f *Field) At(i, j int) float64 {
	return f.Values.At(i, j)
}

// Apply returns a copy with fn applied to every value.
func (f *Field) Apply(fn func(float64) float64) *Field {
	out := f.like()
	out.Values.Apply(func(_, _ int, v float64) float64 { return fn(v) }, f.Values)
	return out
}

// Scale returns a copy multiplied by k.
func (f *Field) Scale(k float64) *Field {
	out := f.like()
	out.Values.Scale(k, f.Values)
	return out
}

func (f *Field) like() *Field {
	ny, nx := f.Dims()
	return &Field{
		Lats:   append([]float64(nil), f.Lats...),
		Lons:   append([]float64(nil), f.Lons...),
		Values: mat.NewDense(ny, nx, nil),
	}
}

// Range returns the smallest and largest non-missing values.
func (f *Field) Range() (lo, hi float64, ok bool) {
	var vals []float64
	for _, v := range f.Values.RawMatrix().Data {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, 0, false
	}
	return floats.Min(vals), floats.Max(vals), true
}

// axisPos returns the fractional index of v on a monotonic axis.
func axisPos(axis []float64, v float64) (float64, bool) {
	n := len(axis)
	if n == 1 {
		return 0, v == axis[0]
	}
	asc := axis[n-1] > axis[0]
	var i int
	if asc {
		if v < axis[0] || v > axis[n-1] {
			return 0, false
		}
		i = sort.Search(n, func(k int) bool { return axis[k] >= v })
	} else {
		if v > axis[0] || v < axis[n-1] {
			return 0, false
		}
		i = sort.Search(n, func(k int) bool { return axis[k] <= v })
	}
	if i == 0 {
		return 0, true
	}
	span := axis[i] - axis[i-1]
	if span == 0 {
		return float64(i), true
	}
	return float64(i-1) + (v-axis[i-1])/span, true
}

// axisValue is the inverse of axisPos.
func axisValue(axis []float64, pos float64) float64 {
	i := int(math.Floor(pos))
	if i < 0 {
		return axis[0]
	}
	if i >= len(axis)-1 {
		return axis[len(axis)-1]
	}
	t := pos - float64(i)
	return axis[i] + (axis[i+1]-axis[i])*t
}

// normLon moves lon into the longitude convention of the field.
func (f *Field) normLon(lon float64) float64 {
	lo, hi := f.Lons[0], f.Lons[len(f.Lons)-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	if lon < lo && lon+360 <= hi {
		return lon + 360
	}
	if lon > hi && lon-360 >= lo {
		return lon - 360
	}
	return lon
}

// Position converts a longitude and latitude into fractional grid indices.
func (f *Field) Position(lon, lat float64) (row, col float64, ok bool) {
	row, ok = axisPos(f.Lats, lat)
	if !ok {
		return 0, 0, false
	}
	col, ok = axisPos(f.Lons, f.normLon(lon))
	return row, col, ok
}

// LonLat converts fractional grid indices into a longitude and latitude.
// Longitudes are returned in -180..180.
func (f *Field) LonLat(row, col float64) (lon, lat float64) {
	lon = axisValue(f.Lons, col)
	if lon > 180 {
		lon -= 360
	}
	return lon, axisValue(f.Lats, row)
}

// Sample bilinearly interpolates the field at a point.
func (f *Field) Sample(lon, lat float64) (float64, bool) {
	row, col, ok := f.Position(lon, lat)
	if !ok {
		return 0, false
	}
	v := f.interp(row, col)
	return v, !math.IsNaN(v)
}

func (f *Field) interp(row, col float64) float64 {
	ny, nx := f.Dims()
	i0 := int(math.Floor(row))
	j0 := int(math.Floor(col))
	i1, j1 := i0+1, j0+1
	if i1 >= ny {
		i1 = i0
	}
	if j1 >= nx {
		j1 = j0
	}
	ti := row - float64(i0)
	tj := col - float64(j0)
	a := f.At(i0, j0)*(1-tj) + f.At(i0, j1)*tj
	b := f.At(i1, j0)*(1-tj) + f.At(i1, j1)*tj
	return a*(1-ti) + b*ti
}

// Upsample returns the field refined n times in each direction by bilinear
// interpolation. It is used to smooth contour lines.
func (f *Field) Upsample(n int) *Field {
	if n <= 1 {
		return f
	}
	ny, nx := f.Dims()
	my, mx := (ny-1)*n+1, (nx-1)*n+1
	lats := make([]float64, my)
	lons := make([]float64, mx)
	for i := range lats {
		lats[i] = axisValue(f.Lats, float64(i)/float64(n))
	}
	for j := range lons {
		lons[j] = axisValue(f.Lons, float64(j)/float64(n))
	}
	vals := mat.NewDense(my, mx, nil)
	for i := 0; i < my; i++ {
		for j := 0; j < mx; j++ {
			vals.Set(i, j, f.interp(float64(i)/float64(n), float64(j)/float64(n)))
		}
	}
	return &Field{Lats: lats, Lons: lons, Values: vals}
}
