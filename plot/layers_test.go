package plot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGeoJSON = `{"type": "FeatureCollection", "features": [
 {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[-92, 41], [-88, 42], [-84, 41]]}},
 {"type": "Feature", "geometry": {"type": "MultiLineString", "coordinates": [[[-90, 38], [-90, 45]], [[-86, 38], [-86, 45]]]}},
 {"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[-89, 39], [-87, 39], [-87, 40], [-89, 39]]]}},
 {"type": "Feature", "geometry": {"type": "MultiPolygon", "coordinates": [[[[0, 0], [1, 0], [1, 1], [0, 0]]], [[[2, 2], [3, 2], [3, 3], [2, 2]]]]}},
 {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-88, 41]}}
]}`

// layer parsing
func Test_ParseLayer(t *testing.T) {
	l, err := ParseLayer("coastline", []byte(testGeoJSON))
	require.NoError(t, err)
	assert.Equal(t, "black", l.Color)
	assert.Equal(t, 0.6, l.Width)
	require.Len(t, l.Lines, 6)
	assert.Len(t, l.Lines[0], 3)
	assert.Equal(t, -88.0, l.Lines[0][1].X)
	assert.Equal(t, 42.0, l.Lines[0][1].Y)

	states, err := ParseLayer("states", []byte(`{"features": []}`))
	require.NoError(t, err)
	assert.Equal(t, "grey", states.Color)
	assert.Equal(t, 0.5, states.Width)

	_, err = ParseLayer("borders", []byte(`{"features": [{"geometry": {"type": "LineString", "coordinates": "x"}}]}`))
	assert.Error(t, err)
	_, err = ParseLayer("borders", []byte(`not json`))
	assert.Error(t, err)
}

func Test_LayerSources(t *testing.T) {
	for _, name := range DefaultLayers {
		assert.Contains(t, LayerSources, name)
	}
}
