package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Bounds represents a rectangular bounding box in display pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Word is one recognized word with its location and confidence.
type Word struct {
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	Bounds Bounds `json:"bounds"`
}

// Result contains the text recognized in an image.
type Result struct {
	// FullText is all recognized text with original spacing and newlines.
	FullText string `json:"full_text"`

	// Words may be empty if bounding box extraction fails; FullText is still
	// set in that case.
	Words []Word `json:"words"`
}

// ReadTextFile performs OCR on an image file as stored on disk.
//
// language is a Tesseract language code such as "eng"; its data must be
// installed.
func ReadTextFile(imagePath string, language string) (*Result, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	return recognize(client, language)
}

// ReadText performs OCR on img, or on region of it when region is non-nil.
// The region is clamped to the image bounds. Word bounds are reported in the
// coordinates of the full image.
//
// Annotation text is small, so the input is upscaled 3x before recognition.
func ReadText(img image.Image, region *image.Rectangle, language string) (*Result, error) {
	r := img.Bounds()
	if region != nil {
		r = region.Intersect(r)
	}
	if r.Empty() {
		return nil, fmt.Errorf("nothing to read: region %v is empty", r)
	}

	const upscale = 3
	cropped := imaging.Crop(img, r)
	cropped = imaging.Resize(cropped, r.Dx()*upscale, r.Dy()*upscale, imaging.Lanczos)

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode region: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	res, err := recognize(client, language)
	if err != nil {
		return nil, err
	}
	for i := range res.Words {
		b := &res.Words[i].Bounds
		b.X1 = r.Min.X + b.X1/upscale
		b.Y1 = r.Min.Y + b.Y1/upscale
		b.X2 = r.Min.X + b.X2/upscale
		b.Y2 = r.Min.Y + b.Y2/upscale
	}
	return res, nil
}

func recognize(client *gosseract.Client, language string) (*Result, error) {
	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return &Result{FullText: text, Words: []Word{}}, nil
	}

	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		words = append(words, Word{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}
	return &Result{FullText: text, Words: words}, nil
}

// Version returns the linked Tesseract version.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}
