package plot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Range(t *testing.T) {
	assert.Equal(t, []float64{0, 4, 8}, Range(0, 12, 4))
	assert.Equal(t, []float64{0, 4, 8, 12}, Range(0, 13, 4))
	assert.Len(t, Range(-100, 101, 10), 21)
	assert.Nil(t, Range(5, 0, 1))
	assert.Nil(t, Range(0, 5, 0))
}

// a ramp across columns gives one vertical line
func Test_isolines_straight(t *testing.T) {
	f := rampField(t)
	lines := isolines(f, 1.25)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.GreaterOrEqual(t, len(line), 3)
	top, bottom := line[0][0], line[0][0]
	for _, p := range line {
		assert.InDelta(t, 1.25, p[1], 1e-9)
		top, bottom = math.Max(top, p[0]), math.Min(bottom, p[0])
	}
	assert.InDelta(t, 0, bottom, 1e-9)
	assert.InDelta(t, 2, top, 1e-9)
	assert.Empty(t, isolines(f, 10))
}

// lines stop at cells with a missing corner
func Test_isolines_split(t *testing.T) {
	f := rampField(t)
	f.Values.Set(2, 1, nan())
	lines := isolines(f, 1.25)
	require.NotEmpty(t, lines)
	for _, line := range lines {
		for _, p := range line {
			assert.LessOrEqual(t, p[0], 1+1e-9)
		}
	}
}

// a peak gives a closed ring
func Test_isolines_closed(t *testing.T) {
	f, err := NewField([]float64{0, 1, 2}, []float64{0, 1, 2}, []float64{
		0, 0, 0,
		0, 4, 0,
		0, 0, 0,
	})
	require.NoError(t, err)
	lines := isolines(f, 2)
	require.Len(t, lines, 1)
	line := lines[0]
	// a ring around the peak repeats its first point
	assert.GreaterOrEqual(t, len(line), 5)
	assert.Equal(t, line[0], line[len(line)-1])
	for _, p := range line {
		assert.Less(t, math.Abs(p[0]-1), 1.0)
		assert.Less(t, math.Abs(p[1]-1), 1.0)
	}
}

// no line through a cell with a missing corner
func Test_isolines_missing(t *testing.T) {
	f, err := NewField([]float64{0, 1}, []float64{0, 1}, []float64{0, 1, 0, nan()})
	require.NoError(t, err)
	assert.Empty(t, isolines(f, 0.5))
}

// a band includes its upper level; values outside the levels are -1
func Test_FilledContourPlot_bin(t *testing.T) {
	p := &FilledContourPlot{Contours: []float64{0, 10, 20}}
	assert.Equal(t, 0, p.bin(0))
	assert.Equal(t, 0, p.bin(5))
	assert.Equal(t, 1, p.bin(15))
	assert.Equal(t, 1, p.bin(20))
	assert.Equal(t, -1, p.bin(-1))
	assert.Equal(t, -1, p.bin(25))
	assert.Equal(t, -1, p.bin(nan()))
	assert.Equal(t, -1, (&FilledContourPlot{Contours: []float64{1}}).bin(1))
}
