package detection

import "github.com/ironsheep/phantom-qa-mcp/internal/imaging"

// ErosionIterations is the number of times the foreground mask is eroded
// before it is subtracted from itself to form the edge shell.
const ErosionIterations = 3

// Point is an integer pixel coordinate. Row is the x coordinate of the core
// and Col the y coordinate.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Mask is a boolean grid with the same shape as the slice it was derived from.
type Mask struct {
	Rows int
	Cols int
	Bits []bool
}

// NewMask allocates an all-false mask.
func NewMask(rows, cols int) *Mask {
	return &Mask{Rows: rows, Cols: cols, Bits: make([]bool, rows*cols)}
}

// At reports the mask value at (row, col). Coordinates outside the grid read
// as false, which is how erosion treats the border.
func (m *Mask) At(row, col int) bool {
	if row < 0 || row >= m.Rows || col < 0 || col >= m.Cols {
		return false
	}
	return m.Bits[row*m.Cols+col]
}

// Count returns the number of true pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Points enumerates the true pixels in row-major order.
func (m *Mask) Points() []Point {
	points := make([]Point, 0, m.Count())
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if m.Bits[r*m.Cols+c] {
				points = append(points, Point{Row: r, Col: c})
			}
		}
	}
	return points
}

func (m *Mask) clone() *Mask {
	out := &Mask{Rows: m.Rows, Cols: m.Cols, Bits: make([]bool, len(m.Bits))}
	copy(out.Bits, m.Bits)
	return out
}

func (m *Mask) equal(o *Mask) bool {
	if m.Rows != o.Rows || m.Cols != o.Cols {
		return false
	}
	for i := range m.Bits {
		if m.Bits[i] != o.Bits[i] {
			return false
		}
	}
	return true
}

// ThresholdMask marks the dark foreground of a slice: pixels strictly below
// threshold × max(slice).
//
// The comparison is applied literally. A slice whose maximum is zero compares
// every pixel against zero, so an all-zero slice yields an empty mask rather
// than an error.
func ThresholdMask(s *imaging.Slice, threshold float64) *Mask {
	limit := threshold * s.Max()
	m := NewMask(s.Rows, s.Cols)
	for i, v := range s.Pix {
		m.Bits[i] = v < limit
	}
	return m
}

// Erode applies binary erosion with the 4-connected cross structuring element.
//
// A pixel survives one pass only if it and its four direct neighbours are all
// set; neighbours outside the grid count as unset, so foreground touching the
// border is eroded from that side. The pass is repeated iterations times.
// With iterations < 1 erosion repeats until the mask stops changing.
func Erode(m *Mask, iterations int) *Mask {
	cur := m.clone()
	for i := 0; iterations < 1 || i < iterations; i++ {
		next := erodeOnce(cur)
		if iterations < 1 && next.equal(cur) {
			return next
		}
		cur = next
	}
	return cur
}

func erodeOnce(m *Mask) *Mask {
	out := NewMask(m.Rows, m.Cols)
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if !m.Bits[r*m.Cols+c] {
				continue
			}
			out.Bits[r*m.Cols+c] = m.At(r-1, c) && m.At(r+1, c) && m.At(r, c-1) && m.At(r, c+1)
		}
	}
	return out
}

// EdgeMask returns the boundary shell of the thresholded foreground: the
// foreground mask with its ErosionIterations-fold erosion removed.
//
// A constant slice with threshold <= 1 has no pixel below threshold × max and
// yields an empty edge mask.
func EdgeMask(s *imaging.Slice, threshold float64) *Mask {
	fg := ThresholdMask(s, threshold)
	eroded := Erode(fg, ErosionIterations)
	edges := NewMask(fg.Rows, fg.Cols)
	for i := range fg.Bits {
		edges.Bits[i] = fg.Bits[i] && !eroded.Bits[i]
	}
	return edges
}
