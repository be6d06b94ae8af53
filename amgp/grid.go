package amgp

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/met130/amgp-go/plot"
)

// ErrNoCoordinates is returned when a gridded file lacks lat/lon variables.
var ErrNoCoordinates = errors.New("no latitude/longitude coordinates")

// curvilinearStep is the spacing of the regular grid that curvilinear
// (projected) datasets are resampled onto.
const curvilinearStep = 0.5

// DecodeGridBytes writes a subset response to a temporary file and decodes
// it; the NetCDF reader only opens files.
func DecodeGridBytes(data []byte, variable string) (*plot.Field, error) {
	f, err := os.CreateTemp("", "amgp-*.nc")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return DecodeGridFile(f.Name(), variable)
}

// DecodeGridFile reads one variable from a NetCDF file as a field. Leading
// singleton time and level dimensions are dropped; only the first
// horizontal slice is kept when more are present.
func DecodeGridFile(path, variable string) (*plot.Field, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer nc.Close()

	v, err := nc.GetVariable(variable)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", variable, err)
	}
	values, err := flatten(v.Values)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", variable, err)
	}
	applyPacking(values, v.Attributes)

	lat, latShape, err := coordinate(nc, "lat", "latitude")
	if err != nil {
		return nil, err
	}
	lon, lonShape, err := coordinate(nc, "lon", "longitude")
	if err != nil {
		return nil, err
	}

	return gridField(variable, values, lat, latShape, lon, lonShape)
}

// gridField places decoded values on their coordinates. 1-D lat/lon axes
// give a regular field directly; 2-D arrays (projected grids such as NARR)
// are resampled onto a regular grid.
func gridField(variable string, values, lat []float64, latShape []int, lon []float64, lonShape []int) (*plot.Field, error) {
	if len(latShape) == 1 && len(lonShape) == 1 {
		n := len(lat) * len(lon)
		if len(values) < n {
			return nil, fmt.Errorf("variable %s has %d values for a %dx%d grid", variable, len(values), len(lat), len(lon))
		}
		return plot.NewField(lat, lon, values[:n])
	}
	if len(lat) != len(lon) || len(values) < len(lat) {
		return nil, fmt.Errorf("variable %s: mismatched curvilinear coordinates", variable)
	}
	return Regrid(lat, lon, values[:len(lat)], curvilinearStep)
}

func coordinate(nc api.Group, names ...string) ([]float64, []int, error) {
	for _, n := range names {
		v, err := nc.GetVariable(n)
		if err != nil {
			continue
		}
		vals, err := flatten(v.Values)
		if err != nil {
			return nil, nil, fmt.Errorf("coordinate %s: %w", n, err)
		}
		return vals, shape(v.Values), nil
	}
	return nil, nil, ErrNoCoordinates
}

// flatten turns nested numeric slices of any depth into row-major float64s.
func flatten(values interface{}) ([]float64, error) {
	var out []float64
	var walk func(rv reflect.Value) error
	walk = func(rv reflect.Value) error {
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				if err := walk(rv.Index(i)); err != nil {
					return err
				}
			}
		case reflect.Float32, reflect.Float64:
			out = append(out, rv.Float())
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
			out = append(out, float64(rv.Int()))
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
			out = append(out, float64(rv.Uint()))
		default:
			return fmt.Errorf("unsupported value type %s", rv.Type())
		}
		return nil
	}
	if err := walk(reflect.ValueOf(values)); err != nil {
		return nil, err
	}
	return out, nil
}

func shape(values interface{}) []int {
	var dims []int
	rv := reflect.ValueOf(values)
	for rv.Kind() == reflect.Slice {
		dims = append(dims, rv.Len())
		if rv.Len() == 0 {
			break
		}
		rv = rv.Index(0)
	}
	// Drop singleton dimensions.
	out := dims[:0]
	for _, d := range dims {
		if d != 1 {
			out = append(out, d)
		}
	}
	return out
}

func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	raw, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	vals, err := flatten(raw)
	if err != nil || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// applyPacking honours _FillValue, missing_value, scale_factor and
// add_offset.
func applyPacking(values []float64, attrs api.AttributeMap) {
	fill, hasFill := attrFloat(attrs, "_FillValue")
	missing, hasMissing := attrFloat(attrs, "missing_value")
	scale, hasScale := attrFloat(attrs, "scale_factor")
	offset, hasOffset := attrFloat(attrs, "add_offset")
	for i, v := range values {
		if (hasFill && v == fill) || (hasMissing && v == missing) {
			values[i] = math.NaN()
			continue
		}
		if hasScale {
			v *= scale
		}
		if hasOffset {
			v += offset
		}
		values[i] = v
	}
}

// Regrid resamples scattered points onto a regular grid of the given step
// by nearest neighbour. Cells farther than one step from any point are NaN.
func Regrid(lats, lons, values []float64, step float64) (*plot.Field, error) {
	if len(lats) == 0 {
		return nil, plot.ErrEmptyField
	}
	latMin, latMax := math.Inf(1), math.Inf(-1)
	lonMin, lonMax := math.Inf(1), math.Inf(-1)
	type bucketKey struct{ i, j int }
	buckets := map[bucketKey][]int{}
	key := func(lat, lon float64) bucketKey {
		return bucketKey{int(math.Floor(lat / step)), int(math.Floor(lon / step))}
	}
	for k := range lats {
		lon := lons[k]
		if lon > 180 {
			lon -= 360
		}
		latMin, latMax = math.Min(latMin, lats[k]), math.Max(latMax, lats[k])
		lonMin, lonMax = math.Min(lonMin, lon), math.Max(lonMax, lon)
		b := key(lats[k], lon)
		buckets[b] = append(buckets[b], k)
	}
	lat0 := math.Ceil(latMin/step) * step
	lon0 := math.Ceil(lonMin/step) * step
	ny := int(math.Floor((latMax-lat0)/step)) + 1
	nx := int(math.Floor((lonMax-lon0)/step)) + 1
	if ny < 1 || nx < 1 {
		return nil, plot.ErrEmptyField
	}
	axisLat := make([]float64, ny)
	axisLon := make([]float64, nx)
	for i := range axisLat {
		axisLat[i] = lat0 + float64(i)*step
	}
	for j := range axisLon {
		axisLon[j] = lon0 + float64(j)*step
	}
	out := make([]float64, ny*nx)
	for i, lat := range axisLat {
		for j, lon := range axisLon {
			best, bestD := -1, step*step
			c := key(lat, lon)
			for di := -1; di <= 1; di++ {
				for dj := -1; dj <= 1; dj++ {
					for _, k := range buckets[bucketKey{c.i + di, c.j + dj}] {
						plon := lons[k]
						if plon > 180 {
							plon -= 360
						}
						d := (lats[k]-lat)*(lats[k]-lat) + (plon-lon)*(plon-lon)
						if d <= bestD {
							best, bestD = k, d
						}
					}
				}
			}
			if best < 0 {
				out[i*nx+j] = math.NaN()
			} else {
				out[i*nx+j] = values[best]
			}
		}
	}
	return plot.NewField(axisLat, axisLon, out)
}
