package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"
)

func decodePNG(t *testing.T, res *PNGResult) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	return img
}

func TestCrop(t *testing.T) {
	s := createGradientSlice(20, 30)

	// 4 rows by 6 columns: the PNG is 6 wide and 4 tall.
	res, err := Crop(s, Rect{X: 2, W: 4, Y: 10, H: 6}, 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	if res.Width != 6 || res.Height != 4 {
		t.Errorf("dimensions: got %dx%d, want 6x4", res.Width, res.Height)
	}
	if res.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", res.MimeType)
	}
	img := decodePNG(t, res)
	if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 4 {
		t.Errorf("decoded bounds: got %v", b)
	}
}

func TestCrop_Scale(t *testing.T) {
	s := createGradientSlice(20, 20)

	tests := []struct {
		name  string
		scale float64
		wantW int
		wantH int
	}{
		{"up", 4.0, 40, 20},
		{"down", 0.5, 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Crop(s, Rect{X: 0, W: 5, Y: 0, H: 10}, tt.scale)
			if err != nil {
				t.Fatalf("Crop failed: %v", err)
			}
			if res.Width != tt.wantW || res.Height != tt.wantH {
				t.Errorf("dimensions: got %dx%d, want %dx%d", res.Width, res.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCrop_PreservesOrientation(t *testing.T) {
	s := NewSlice(10, 10)
	s.Set(1, 7, 1000) // bright pixel at row 1, col 7

	res, err := Crop(s, Rect{X: 0, W: 3, Y: 5, H: 5}, 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	img := decodePNG(t, res)

	// In the crop the pixel sits at col 2, row 1: x=2, y=1.
	r, _, _, _ := img.At(2, 1).RGBA()
	if r>>8 != 255 {
		t.Errorf("bright pixel: got %d, want 255", r>>8)
	}
	r, _, _, _ = img.At(1, 2).RGBA()
	if r>>8 != 0 {
		t.Errorf("transposed position should be dark, got %d", r>>8)
	}
}

func TestCrop_Invalid(t *testing.T) {
	s := NewSlice(10, 10)

	tests := []struct {
		name  string
		r     Rect
		scale float64
	}{
		{"outside", Rect{X: 5, W: 6, Y: 0, H: 2}, 1},
		{"negative origin", Rect{X: -1, W: 2, Y: 0, H: 2}, 1},
		{"empty", Rect{X: 0, W: 0, Y: 0, H: 2}, 1},
		{"zero scale", Rect{X: 0, W: 2, Y: 0, H: 2}, 0},
		{"vanishing scale", Rect{X: 0, W: 2, Y: 0, H: 2}, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(s, tt.r, tt.scale); err == nil {
				t.Error("Crop should fail")
			}
		})
	}
}
