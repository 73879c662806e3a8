package detection

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCircles_BlankSlice(t *testing.T) {
	s := createSlice(40, 40, background)

	result, err := DetectCircles(s, scenarioParams())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Count)
	assert.Empty(t, result.Circles)
	assert.Equal(t, 0, result.EdgePoints)
	assert.Empty(t, Distances(result.Circles, 1.5))
}

func TestDetectCircles_SingleRing(t *testing.T) {
	s := createRingSlice(t, 40, 40, Point{20, 20})

	result, err := DetectCircles(s, scenarioParams())
	require.NoError(t, err)

	want := []Circle{{X: 20, Y: 20, R: 6, Score: 1.0}}
	if diff := cmp.Diff(want, result.Circles); diff != "" {
		t.Errorf("circles mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectCircles_TwoRingsDistance(t *testing.T) {
	s := createRingSlice(t, 40, 52, Point{20, 10}, Point{20, 40})

	result, err := DetectCircles(s, scenarioParams())
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)

	assert.ElementsMatch(t, []Circle{
		{X: 20, Y: 10, R: 6, Score: 1.0},
		{X: 20, Y: 40, R: 6, Score: 1.0},
	}, result.Circles)

	assert.Equal(t, []float64{45.0}, Distances(result.Circles, 1.5))
}

func TestDetectCircles_TwoRingsTwentyPixelsApart(t *testing.T) {
	s := createRingSlice(t, 40, 40, Point{20, 10}, Point{20, 30})

	result, err := DetectCircles(s, scenarioParams())
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)

	assert.ElementsMatch(t, []Circle{
		{X: 20, Y: 10, R: 6, Score: 1.0},
		{X: 20, Y: 30, R: 6, Score: 1.0},
	}, result.Circles)

	// 20 px at 1.5 mm/px
	assert.Equal(t, []float64{30.0}, Distances(result.Circles, 1.5))
}

func TestDetectCircles_OverlappingRingsSuppressed(t *testing.T) {
	s := createRingSlice(t, 40, 46, Point{20, 20}, Point{20, 25})
	p := scenarioParams()
	p.CircumferenceThreshold = 0.8

	result, err := DetectCircles(s, p)
	require.NoError(t, err)

	require.Len(t, result.Circles, 1)
	c := result.Circles[0]
	assert.GreaterOrEqual(t, c.Score, 0.8)
	assert.LessOrEqual(t, math.Hypot(float64(c.X-20), float64(c.Y-22)), 6.0)
}

func TestDetectCircles_Deterministic(t *testing.T) {
	s := createNoisySlice(48, 48, 0.1, 7)
	p := scenarioParams()
	p.CircumferenceThreshold = 0.2

	first, err := DetectCircles(s, p)
	require.NoError(t, err)
	second, err := DetectCircles(s, p)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated run differs (-first +second):\n%s", diff)
	}
}

func TestDetectCircles_WorkersMatchSequential(t *testing.T) {
	s := createNoisySlice(64, 64, 0.08, 42)
	p := scenarioParams()
	p.CircumferenceThreshold = 0.15

	seq, err := DetectCircles(s, p)
	require.NoError(t, err)

	p.Workers = 4
	par, err := DetectCircles(s, p)
	require.NoError(t, err)

	if diff := cmp.Diff(seq, par); diff != "" {
		t.Errorf("parallel result differs (-seq +par):\n%s", diff)
	}
}

func TestDetectCircles_InvalidParams(t *testing.T) {
	s := createSlice(10, 10, background)
	p := scenarioParams()
	p.RMin, p.RMax = 8, 6

	result, err := DetectCircles(s, p)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{"defaults", func(*Params) {}, false},
		{"threshold zero", func(p *Params) { p.Threshold = 0 }, false},
		{"threshold NaN", func(p *Params) { p.Threshold = math.NaN() }, true},
		{"threshold negative", func(p *Params) { p.Threshold = -0.1 }, true},
		{"circumference zero", func(p *Params) { p.CircumferenceThreshold = 0 }, true},
		{"circumference one", func(p *Params) { p.CircumferenceThreshold = 1 }, false},
		{"circumference above one", func(p *Params) { p.CircumferenceThreshold = 1.01 }, true},
		{"rmin negative", func(p *Params) { p.RMin = -1 }, true},
		{"rmin above rmax", func(p *Params) { p.RMin, p.RMax = 9, 8 }, true},
		{"rmin equals rmax", func(p *Params) { p.RMin, p.RMax = 6, 6 }, false},
		{"steps zero", func(p *Params) { p.Steps = 0 }, true},
		{"steps at limit", func(p *Params) { p.Steps = MaxSteps }, false},
		{"steps above limit", func(p *Params) { p.Steps = MaxSteps + 1 }, true},
		{"radius span at limit", func(p *Params) { p.RMin, p.RMax = 1, MaxRadii }, false},
		{"radius span above limit", func(p *Params) { p.RMin, p.RMax = 1, MaxRadii + 1 }, true},
		{"large radius narrow span", func(p *Params) { p.RMin, p.RMax = 200, 201 }, false},
		{"workers negative", func(p *Params) { p.Workers = -2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
