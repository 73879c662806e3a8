package report

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/phantom-qa-mcp/internal/detection"
	phantomimg "github.com/ironsheep/phantom-qa-mcp/internal/imaging"
)

// Fixed annotation colours. Circles get a per-circle palette instead.
var (
	noiseColor  = color.RGBA{255, 0, 0, 255}
	signalColor = color.RGBA{0, 255, 0, 255}
	windowColor = color.RGBA{255, 255, 0, 255}
	labelFG     = color.RGBA{255, 255, 255, 255}
	labelBG     = color.RGBA{0, 0, 0, 180}
)

// DefaultOverlayScale is the upscaling factor used when OverlayOptions.Scale
// is zero. Phantom slices are small; at 1:1 a radius-6 ring is hard to see.
const DefaultOverlayScale = 4

// OverlayOptions selects what RenderOverlay draws on top of the slice.
type OverlayOptions struct {
	// Scale is the integer upscaling factor. Zero means DefaultOverlayScale.
	Scale int

	// Contrast is a percentage change passed to bild's adjust.Contrast,
	// -100 to 100. Zero leaves the windowed slice unchanged.
	Contrast float64

	Circles    []detection.Circle
	Window     *detection.Window
	NoiseRects []phantomimg.Rect
	SignalRect *phantomimg.Rect

	// Labels draws each circle's index in acceptance order next to it.
	Labels bool
}

// RenderOverlay draws circles, the ROI window and the SNR rectangles over a
// grey rendering of the slice.
//
// # Rendering
//
//  1. The slice is windowed min-max onto 8-bit grey.
//  2. Optional contrast adjustment.
//  3. Nearest-neighbour upscaling by Scale, so each pixel becomes a block.
//  4. Window (yellow), noise rects (red), signal rect (green).
//  5. One ring and centre cross per circle, each in its own hue.
//
// Circle X is the row and Y the column, so a circle centred at (X, Y) is
// drawn at display position (Y, X).
func RenderOverlay(s *phantomimg.Slice, opts OverlayOptions) (*image.RGBA, error) {
	scale := opts.Scale
	if scale == 0 {
		scale = DefaultOverlayScale
	}
	if scale < 1 {
		return nil, fmt.Errorf("overlay scale must be at least 1, got %d", scale)
	}
	if opts.Contrast < -100 || opts.Contrast > 100 {
		return nil, fmt.Errorf("contrast must be between -100 and 100, got %v", opts.Contrast)
	}
	if s.Rows == 0 || s.Cols == 0 {
		return nil, fmt.Errorf("cannot render an empty slice")
	}

	var base image.Image = s.ToGray()
	if opts.Contrast != 0 {
		base = adjust.Contrast(base, opts.Contrast/100)
	}
	if scale > 1 {
		base = imaging.Resize(base, s.Cols*scale, s.Rows*scale, imaging.NearestNeighbor)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, s.Cols*scale, s.Rows*scale))
	draw.Draw(canvas, canvas.Bounds(), base, base.Bounds().Min, draw.Src)

	if w := opts.Window; w != nil {
		// The window bounds are exclusive; outline the first excluded pixels.
		strokeRect(canvas, w.MinX, w.MinY, w.MaxX-w.MinX+1, w.MaxY-w.MinY+1, scale, windowColor)
	}
	for _, r := range opts.NoiseRects {
		strokeRect(canvas, r.X, r.Y, r.W, r.H, scale, noiseColor)
	}
	if r := opts.SignalRect; r != nil {
		strokeRect(canvas, r.X, r.Y, r.W, r.H, scale, signalColor)
	}

	palette := CirclePalette(len(opts.Circles))
	for i, c := range opts.Circles {
		cx := c.Y*scale + scale/2
		cy := c.X*scale + scale/2
		strokeCircle(canvas, cx, cy, c.R*scale, palette[i])
		drawCross(canvas, cx, cy, scale, palette[i])
		if opts.Labels {
			drawLabel(canvas, cx+c.R*scale+2, cy-c.R*scale, strconv.Itoa(i), labelFG, labelBG)
		}
	}

	return canvas, nil
}

// RenderOverlayPNG renders the overlay and encodes it as a base64 PNG.
func RenderOverlayPNG(s *phantomimg.Slice, opts OverlayOptions) (*phantomimg.PNGResult, error) {
	img, err := RenderOverlay(s, opts)
	if err != nil {
		return nil, err
	}
	return phantomimg.EncodePNG(img)
}

// CirclePalette returns n colours with evenly spaced hues, starting at cyan.
func CirclePalette(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		h := math.Mod(180+360*float64(i)/float64(n), 360)
		r, g, b := colorful.Hsv(h, 0.85, 1.0).Clamped().RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// strokeRect outlines rows [row, row+h) and cols [col, col+w) of the
// original slice, in scaled display coordinates.
func strokeRect(img *image.RGBA, row, col, h, w, scale int, c color.RGBA) {
	if h <= 0 || w <= 0 {
		return
	}
	x0, y0 := col*scale, row*scale
	x1, y1 := (col+w)*scale-1, (row+h)*scale-1
	for x := x0; x <= x1; x++ {
		setPixel(img, x, y0, c)
		setPixel(img, x, y1, c)
	}
	for y := y0; y <= y1; y++ {
		setPixel(img, x0, y, c)
		setPixel(img, x1, y, c)
	}
}

func strokeCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	if radius <= 0 {
		setPixel(img, cx, cy, c)
		return
	}
	steps := int(2*math.Pi*float64(radius)) * 2
	for t := 0; t < steps; t++ {
		a := 2 * math.Pi * float64(t) / float64(steps)
		x := cx + int(math.Round(float64(radius)*math.Cos(a)))
		y := cy + int(math.Round(float64(radius)*math.Sin(a)))
		setPixel(img, x, y, c)
	}
}

func drawCross(img *image.RGBA, cx, cy, size int, c color.RGBA) {
	for d := -size; d <= size; d++ {
		setPixel(img, cx+d, cy, c)
		setPixel(img, cx, cy+d, c)
	}
}
