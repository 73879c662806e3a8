package imaging

import (
	"fmt"
	"image"
	"image/color"
)

// Slice is a single 2D plane of scalar intensities taken from a phantom scan.
//
// Pixels are stored row-major: the intensity at (row, col) lives at
// Pix[row*Cols+col]. Row is the vertical axis (0 = top) and Col the horizontal
// axis (0 = left), matching the layout of DICOM pixel data.
//
// A Slice is treated as immutable once constructed; analysis code never writes
// into Pix.
type Slice struct {
	Rows int
	Cols int
	Pix  []float64
}

// NewSlice allocates a zero-filled slice of the given shape.
func NewSlice(rows, cols int) *Slice {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Slice{Rows: rows, Cols: cols, Pix: make([]float64, rows*cols)}
}

// SliceFromRows builds a slice from a [row][col] grid. All rows must have the
// same length.
func SliceFromRows(grid [][]float64) (*Slice, error) {
	if len(grid) == 0 {
		return NewSlice(0, 0), nil
	}
	cols := len(grid[0])
	s := NewSlice(len(grid), cols)
	for r, row := range grid {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", r, len(row), cols)
		}
		copy(s.Pix[r*cols:(r+1)*cols], row)
	}
	return s, nil
}

// At returns the intensity at (row, col). No bounds checking is performed
// beyond the slice index check of the runtime.
func (s *Slice) At(row, col int) float64 {
	return s.Pix[row*s.Cols+col]
}

// Set writes an intensity. Only used while building a slice.
func (s *Slice) Set(row, col int, v float64) {
	s.Pix[row*s.Cols+col] = v
}

// In reports whether (row, col) lies inside the slice.
func (s *Slice) In(row, col int) bool {
	return row >= 0 && row < s.Rows && col >= 0 && col < s.Cols
}

// Max returns the largest intensity, or 0 for an empty slice.
func (s *Slice) Max() float64 {
	if len(s.Pix) == 0 {
		return 0
	}
	m := s.Pix[0]
	for _, v := range s.Pix[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Min returns the smallest intensity, or 0 for an empty slice.
func (s *Slice) Min() float64 {
	if len(s.Pix) == 0 {
		return 0
	}
	m := s.Pix[0]
	for _, v := range s.Pix[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// SliceFromImage converts a decoded raster image into a slice of 16-bit
// luminance values (0-65535), using the color.Gray16 model conversion.
func SliceFromImage(img image.Image) *Slice {
	bounds := img.Bounds()
	s := NewSlice(bounds.Dy(), bounds.Dx())
	for y := 0; y < s.Rows; y++ {
		for x := 0; x < s.Cols; x++ {
			g := color.Gray16Model.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.Gray16)
			s.Pix[y*s.Cols+x] = float64(g.Y)
		}
	}
	return s
}

// ToGray windows the slice linearly between its minimum and maximum onto the
// 0-255 range. A constant slice maps to black.
func (s *Slice) ToGray() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, s.Cols, s.Rows))
	lo, hi := s.Min(), s.Max()
	span := hi - lo
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			var v uint8
			if span > 0 {
				v = uint8((s.At(r, c)-lo)/span*255 + 0.5)
			}
			out.SetGray(c, r, color.Gray{Y: v})
		}
	}
	return out
}
