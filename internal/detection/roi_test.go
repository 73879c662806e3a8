package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_Filter(t *testing.T) {
	w := Window{MinX: 10, MinY: 20, MaxX: 30, MaxY: 40}

	circles := []Circle{
		{X: 15, Y: 25, R: 6},
		{X: 10, Y: 25, R: 6}, // on MinX
		{X: 29, Y: 39, R: 6},
		{X: 30, Y: 25, R: 6}, // on MaxX
		{X: 15, Y: 20, R: 6}, // on MinY
		{X: 15, Y: 40, R: 6}, // on MaxY
		{X: 11, Y: 21, R: 7},
	}

	got := w.Filter(circles)
	assert.Equal(t, []Circle{
		{X: 15, Y: 25, R: 6},
		{X: 29, Y: 39, R: 6},
		{X: 11, Y: 21, R: 7},
	}, got)
}

func TestWindow_FilterIdempotent(t *testing.T) {
	w := Window{MinX: 0, MinY: 0, MaxX: 50, MaxY: 50}
	circles := []Circle{{X: 10, Y: 10}, {X: 60, Y: 10}, {X: 49, Y: 49}, {X: 0, Y: 5}}

	once := w.Filter(circles)
	twice := w.Filter(once)
	assert.Equal(t, once, twice)
}

func TestWindow_FilterEmpty(t *testing.T) {
	got := Window{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}.Filter(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestWindow_ExcludesDetectedCircle(t *testing.T) {
	s := createRingSlice(t, 40, 52, Point{20, 10}, Point{20, 40})
	result, err := DetectCircles(s, scenarioParams())
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)

	// Keep columns below 30 only: the circle at column 40 is dropped.
	w := Window{MinX: 0, MinY: 0, MaxX: 40, MaxY: 30}
	got := w.Filter(result.Circles)

	require.Len(t, got, 1)
	assert.Equal(t, 20, got[0].X)
	assert.Equal(t, 10, got[0].Y)

	// Keeping both preserves acceptance order.
	all := Window{MinX: 0, MinY: 0, MaxX: 40, MaxY: 52}.Filter(result.Circles)
	assert.Equal(t, result.Circles, all)
}
