package plot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// great circle distances
func Test_greatCircleKm(t *testing.T) {
	assert.InDelta(t, 111.19, greatCircleKm(0, 0, 0, 1), 0.01)
	assert.InDelta(t, 0, greatCircleKm(-88, 41, -88, 41), 1e-9)
	// Chicago to Indianapolis
	assert.InDelta(t, 285, greatCircleKm(-87.90, 41.98, -86.29, 39.72), 5)
}

// station thinning keeps a minimum spacing
func Test_ReduceStations(t *testing.T) {
	stations := []Station{
		{ID: "KORD", Lon: -87.90, Lat: 41.98},
		{ID: "KMDW", Lon: -87.75, Lat: 41.78},
		{ID: "KIND", Lon: -86.29, Lat: 39.72},
	}
	kept := ReduceStations(stations, 150)
	assert.Len(t, kept, 2)
	assert.Equal(t, "KORD", kept[0].ID)
	assert.Equal(t, "KIND", kept[1].ID)

	assert.Len(t, ReduceStations(stations, 0), 3)
	assert.Len(t, ReduceStations(stations, 500), 1)
}

// barb flags, full and half barbs
func Test_barbParts(t *testing.T) {
	cases := []struct {
		speed             float64
		flags, full, half int
	}{
		{0, 0, 0, 0},
		{5, 0, 0, 1},
		{13, 0, 1, 1},
		{17.4, 0, 1, 1},
		{17.6, 0, 2, 0},
		{65, 1, 1, 1},
		{110, 2, 1, 0},
	}
	for _, tc := range cases {
		flags, full, half := barbParts(tc.speed)
		assert.Equal(t, tc.flags, flags, "speed %g", tc.speed)
		assert.Equal(t, tc.full, full, "speed %g", tc.speed)
		assert.Equal(t, tc.half, half, "speed %g", tc.speed)
	}
}
