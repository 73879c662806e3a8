package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestSliceFromRows(t *testing.T) {
	s, err := SliceFromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	if err != nil {
		t.Fatalf("SliceFromRows failed: %v", err)
	}

	if s.Rows != 2 || s.Cols != 3 {
		t.Fatalf("shape: got %dx%d, want 2x3", s.Rows, s.Cols)
	}
	if got := s.At(1, 0); got != 4 {
		t.Errorf("At(1,0): got %v, want 4", got)
	}
	if got := s.Max(); got != 6 {
		t.Errorf("Max: got %v, want 6", got)
	}
	if got := s.Min(); got != 1 {
		t.Errorf("Min: got %v, want 1", got)
	}
}

func TestSliceFromRows_Ragged(t *testing.T) {
	_, err := SliceFromRows([][]float64{{1, 2}, {3}})
	if err == nil {
		t.Error("SliceFromRows should reject ragged rows")
	}
}

func TestSlice_Empty(t *testing.T) {
	s := NewSlice(0, 0)
	if s.Max() != 0 || s.Min() != 0 {
		t.Errorf("empty slice: got max %v min %v, want 0 0", s.Max(), s.Min())
	}
	if s.In(0, 0) {
		t.Error("empty slice should contain no coordinates")
	}
}

func TestSlice_In(t *testing.T) {
	s := NewSlice(4, 5)

	tests := []struct {
		row, col int
		want     bool
	}{
		{0, 0, true},
		{3, 4, true},
		{4, 0, false},
		{0, 5, false},
		{-1, 2, false},
	}
	for _, tt := range tests {
		if got := s.In(tt.row, tt.col); got != tt.want {
			t.Errorf("In(%d,%d): got %v, want %v", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestSliceFromImage_RowMajor(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 3, 2))
	img.SetGray16(2, 0, color.Gray16{Y: 1000}) // x=2 (col), y=0 (row)
	img.SetGray16(0, 1, color.Gray16{Y: 500})

	s := SliceFromImage(img)

	if s.Rows != 2 || s.Cols != 3 {
		t.Fatalf("shape: got %dx%d, want 2x3", s.Rows, s.Cols)
	}
	if got := s.At(0, 2); got != 1000 {
		t.Errorf("At(0,2): got %v, want 1000", got)
	}
	if got := s.At(1, 0); got != 500 {
		t.Errorf("At(1,0): got %v, want 500", got)
	}
}

func TestSliceFromImage_OffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(10, 20, 12, 22))
	img.SetGray(11, 21, color.Gray{Y: 255})

	s := SliceFromImage(img)
	if got := s.At(1, 1); got != 65535 {
		t.Errorf("At(1,1): got %v, want 65535", got)
	}
}

func TestSlice_ToGray(t *testing.T) {
	s, _ := SliceFromRows([][]float64{{10, 20}, {30, 40}})
	g := s.ToGray()

	if got := g.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("min pixel: got %d, want 0", got)
	}
	if got := g.GrayAt(1, 1).Y; got != 255 {
		t.Errorf("max pixel: got %d, want 255", got)
	}
	// (0,1) in slice coordinates is x=1, y=0 in the image.
	if got := g.GrayAt(1, 0).Y; got != 85 {
		t.Errorf("(row 0, col 1): got %d, want 85", got)
	}
}

func TestSlice_ToGrayConstant(t *testing.T) {
	s := NewSlice(3, 3)
	for i := range s.Pix {
		s.Pix[i] = 7
	}
	g := s.ToGray()
	for _, v := range g.Pix {
		if v != 0 {
			t.Fatalf("constant slice should render black, got %d", v)
		}
	}
}

// createGradientSlice builds a slice whose value at (row, col) is row*cols+col.
func createGradientSlice(rows, cols int) *Slice {
	s := NewSlice(rows, cols)
	for i := range s.Pix {
		s.Pix[i] = float64(i)
	}
	return s
}
