package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// PNGResult contains a rendered image encoded as base64 PNG.
type PNGResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG result.
func EncodePNG(img image.Image) (*PNGResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := img.Bounds()
	return &PNGResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Crop extracts a rectangle of a slice as a display PNG.
//
// The slice is windowed to 8-bit gray over its full intensity range before
// cropping, so crops of the same slice share one grey scale. A scale other
// than 1 resizes the crop with nearest-neighbour sampling, which keeps single
// pixels visible as blocks.
func Crop(s *Slice, r Rect, scale float64) (*PNGResult, error) {
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region: width and height must be positive")
	}
	if !r.Within(s) {
		return nil, fmt.Errorf("crop region %s outside %dx%d slice", r, s.Rows, s.Cols)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", scale)
	}

	// image.Rect takes (x0, y0, x1, y1) in display coordinates: column first.
	cropped := imaging.Crop(s.ToGray(), image.Rect(r.Y, r.X, r.Y+r.H, r.X+r.W))

	if scale != 1.0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 || newHeight < 1 {
			return nil, fmt.Errorf("scale %v shrinks crop to nothing", scale)
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.NearestNeighbor)
	}

	return EncodePNG(cropped)
}
