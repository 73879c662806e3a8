package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// createAnnotatedScreenshot mimics a console export: a dark field with a
// grey disc for the phantom and white annotation text in the top-left corner.
// Everything is drawn at 1x and then block-scaled for legibility.
func createAnnotatedScreenshot(text string, scale int) *image.RGBA {
	w, h := 160, 120
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(small, small.Bounds(), image.Black, image.Point{}, draw.Src)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := x-80, y-70
			if dx*dx+dy*dy <= 35*35 {
				small.Set(x, y, color.Gray{Y: 128})
			}
		}
	}
	drawText(small, 4, 14, text, color.White)

	img := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h*scale; y++ {
		for x := 0; x < w*scale; x++ {
			img.Set(x, y, small.At(x/scale, y/scale))
		}
	}
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "screenshot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestReadText_EmptyRegion(t *testing.T) {
	img := createAnnotatedScreenshot("T1 FLAT", 1)

	region := image.Rect(500, 500, 600, 600)
	if _, err := ReadText(img, &region, "eng"); err == nil {
		t.Error("ReadText should fail for a region outside the image")
	}
}

func TestReadTextFile_NonExistentFile(t *testing.T) {
	_, err := ReadTextFile("/nonexistent/path/image.png", "eng")
	if err == nil {
		t.Error("ReadTextFile should fail for non-existent file")
	}
}

func TestReadText_Annotation(t *testing.T) {
	img := createAnnotatedScreenshot("T2 DOMED", 3)
	region := image.Rect(0, 0, 160*3/2, 20*3)

	result, err := ReadText(img, &region, "eng")
	if err != nil {
		// Tesseract or its language data might not be installed
		t.Skipf("Tesseract not available: %v", err)
	}

	t.Logf("Extracted text: %q", result.FullText)
	for _, w := range result.Words {
		if w.Bounds.X2 > region.Max.X || w.Bounds.Y2 > region.Max.Y {
			t.Errorf("word %q bounds %+v outside region %v", w.Text, w.Bounds, region)
		}
		if w.Confidence < 0 || w.Confidence > 1 {
			t.Errorf("word %q confidence %v outside [0,1]", w.Text, w.Confidence)
		}
	}

	if !strings.Contains(strings.ToUpper(result.FullText), "DOMED") {
		t.Log("Warning: annotation not recognized; OCR quality depends on the installed language data")
	}
}

func TestReadTextFile(t *testing.T) {
	path := writePNG(t, createAnnotatedScreenshot("T1 FLAT", 3))

	result, err := ReadTextFile(path, "eng")
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	if result == nil {
		t.Fatal("ReadTextFile returned nil result")
	}
	if result.Words == nil {
		t.Error("Words should be non-nil")
	}
	t.Logf("Extracted text: %q", result.FullText)
}
