package detection

import (
	"math/rand"
	"testing"

	"github.com/ironsheep/phantom-qa-mcp/internal/imaging"
)

const (
	background = 100.0
	fiducial   = 0.0
)

// createSlice creates a slice filled with a constant intensity.
func createSlice(rows, cols int, v float64) *imaging.Slice {
	s := imaging.NewSlice(rows, cols)
	for i := range s.Pix {
		s.Pix[i] = v
	}
	return s
}

// drawRing darkens exactly the pixels a radius-r template with the given
// number of steps samples around (cx, cy), producing a perfect discrete circle.
func drawRing(t *testing.T, s *imaging.Slice, cx, cy, r, steps int) {
	t.Helper()
	tmpl, err := NewTemplate(r, r, steps)
	if err != nil {
		t.Fatalf("NewTemplate failed: %v", err)
	}
	for _, o := range tmpl.Offsets {
		row, col := cx+o.DX, cy+o.DY
		if !s.In(row, col) {
			t.Fatalf("ring point (%d,%d) outside %dx%d slice", row, col, s.Rows, s.Cols)
		}
		s.Set(row, col, fiducial)
	}
}

// createRingSlice draws one radius-6 ring per centre on a bright background.
func createRingSlice(t *testing.T, rows, cols int, centres ...Point) *imaging.Slice {
	t.Helper()
	s := createSlice(rows, cols, background)
	for _, c := range centres {
		drawRing(t, s, c.Row, c.Col, 6, 100)
	}
	return s
}

// createNoisySlice scatters dark pixels over a bright background.
func createNoisySlice(rows, cols int, density float64, seed int64) *imaging.Slice {
	rng := rand.New(rand.NewSource(seed))
	s := createSlice(rows, cols, background)
	for i := range s.Pix {
		if rng.Float64() < density {
			s.Pix[i] = fiducial
		}
	}
	return s
}

func scenarioParams() Params {
	return Params{
		Threshold:              0.5,
		CircumferenceThreshold: 0.5,
		RMin:                   6,
		RMax:                   7,
		Steps:                  100,
	}
}
