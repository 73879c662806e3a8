package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/phantom-qa-mcp/internal/imaging"
)

func TestThresholdMask(t *testing.T) {
	s, err := imaging.SliceFromRows([][]float64{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
	})
	require.NoError(t, err)

	// limit = 0.5 * 8 = 4, strictly below
	m := ThresholdMask(s, 0.5)
	want := []bool{
		true, true, true,
		true, false, false,
		false, false, false,
	}
	assert.Equal(t, want, m.Bits)
}

func TestThresholdMask_ZeroMax(t *testing.T) {
	s := createSlice(10, 10, 0)

	m := ThresholdMask(s, 0.5)
	assert.Equal(t, 0, m.Count(), "v < 0 is false for every zero pixel")
}

func TestErode_Square(t *testing.T) {
	m := NewMask(7, 7)
	for i := range m.Bits {
		m.Bits[i] = true
	}

	tests := []struct {
		iterations int
		wantCount  int
	}{
		{1, 25},
		{2, 9},
		{3, 1},
		{4, 0},
	}
	for _, tt := range tests {
		got := Erode(m, tt.iterations)
		assert.Equal(t, tt.wantCount, got.Count(), "iterations=%d", tt.iterations)
	}

	assert.True(t, Erode(m, 3).At(3, 3))
	assert.Equal(t, 49, m.Count(), "input must not be modified")
}

func TestErode_UntilStable(t *testing.T) {
	m := NewMask(7, 7)
	for i := range m.Bits {
		m.Bits[i] = true
	}
	assert.Equal(t, 0, Erode(m, 0).Count())
}

func TestErode_CrossStructuringElement(t *testing.T) {
	// A plus sign keeps its centre under 4-connected erosion; an 8-connected
	// element would remove it because the diagonals are unset.
	m := NewMask(5, 5)
	for _, p := range []Point{{2, 2}, {1, 2}, {3, 2}, {2, 1}, {2, 3}} {
		m.Bits[p.Row*5+p.Col] = true
	}

	got := Erode(m, 1)
	assert.Equal(t, []Point{{Row: 2, Col: 2}}, got.Points())
}

func TestEdgeMask_SolidSquare(t *testing.T) {
	s := createSlice(20, 20, background)
	for r := 5; r <= 13; r++ {
		for c := 5; c <= 13; c++ {
			s.Set(r, c, fiducial)
		}
	}

	edges := EdgeMask(s, 0.5)

	// 9x9 square minus the 3x3 core that survives three erosions
	assert.Equal(t, 72, edges.Count())
	assert.True(t, edges.At(5, 5))
	assert.True(t, edges.At(7, 7))
	assert.False(t, edges.At(9, 9))
	assert.False(t, edges.At(4, 4))
}

func TestEdgeMask_Blank(t *testing.T) {
	edges := EdgeMask(createSlice(30, 30, background), 0.5)
	assert.Equal(t, 0, edges.Count())
	assert.Empty(t, edges.Points())
}

// With threshold > 1 every pixel is foreground. The grid border counts as
// background during erosion, so the edge mask is a 3 pixel frame.
func TestEdgeMask_FullyFilled(t *testing.T) {
	edges := EdgeMask(createSlice(10, 10, background), 2.0)

	assert.Equal(t, 100-16, edges.Count())
	assert.True(t, edges.At(0, 0))
	assert.True(t, edges.At(2, 5))
	assert.False(t, edges.At(3, 3))
	assert.False(t, edges.At(6, 6))
}

func TestEdgeMask_ThinRing(t *testing.T) {
	s := createRingSlice(t, 40, 40, Point{20, 20})

	fg := ThresholdMask(s, 0.5)
	edges := EdgeMask(s, 0.5)

	assert.Equal(t, fg.Count(), edges.Count(), "a one pixel ring erodes away completely")
	assert.True(t, edges.At(26, 20))
	assert.True(t, edges.At(20, 26))
	assert.False(t, edges.At(20, 20))
}

func TestMask_PointsRowMajor(t *testing.T) {
	m := NewMask(3, 3)
	m.Bits[5] = true // (1,2)
	m.Bits[1] = true // (0,1)
	m.Bits[6] = true // (2,0)

	assert.Equal(t, []Point{{0, 1}, {1, 2}, {2, 0}}, m.Points())
}
