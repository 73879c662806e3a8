package profile

import "github.com/ironsheep/phantom-qa-mcp/internal/imaging"

// Noise rects sit in the top corners of the field of view, clear of the
// phantom. The second rect's column depends on the matrix width.
var (
	t1NoiseRects = []imaging.Rect{
		{X: 5, W: 10, Y: 5, H: 10},
		{X: 5, W: 10, Y: 112 - 15, H: 10},
	}
	t2NoiseRects = []imaging.Rect{
		{X: 5, W: 10, Y: 5, H: 10},
		{X: 5, W: 10, Y: 120 - 15, H: 10},
	}
)

// The T1 thresholds are a base fraction scaled by the fiducial attenuation.
// They are variables so the product is rounded in float64, not folded exactly
// as a constant: 0.35 * 0.4 is 0.13999999999999999, not 0.14.
var (
	fiducialAttenuation = 0.4
	t1FlatBase          = 0.3
	t1DomedBase         = 0.35
)

// Builtins returns fresh copies of the four shipped profiles.
func Builtins() []*Profile {
	return []*Profile{
		{
			Name:                         "T1 flat",
			Aliases:                      []string{"t1f"},
			Description:                  "T1-weighted scan of the flat phantom",
			Slice:                        18,
			Threshold:                    t1FlatBase * fiducialAttenuation,
			CircleCircumferenceThreshold: 0.4,
			MinPixelX:                    50,
			MinPixelY:                    40,
			MaxPixelX:                    60,
			MaxPixelY:                    115,
			MMPerPixel:                   1.6,
			NoiseRects:                   cloneRects(t1NoiseRects),
			SignalRect:                   imaging.Rect{X: 58, W: 5, Y: 53, H: 5},
		},
		{
			Name:                         "T2 domed",
			Aliases:                      []string{"t2d"},
			Description:                  "T2-weighted scan of the domed phantom",
			Slice:                        15,
			Threshold:                    0.25,
			CircleCircumferenceThreshold: 0.5,
			MinPixelX:                    55,
			MinPixelY:                    40,
			MaxPixelX:                    60,
			MaxPixelY:                    115,
			MMPerPixel:                   1.5,
			NoiseRects:                   cloneRects(t2NoiseRects),
			SignalRect:                   imaging.Rect{X: 59, W: 5, Y: 38, H: 5},
		},
		{
			Name:                         "T2 flat",
			Aliases:                      []string{"t2f"},
			Description:                  "T2-weighted scan of the flat phantom",
			Slice:                        17,
			Threshold:                    0.3,
			CircleCircumferenceThreshold: 0.4,
			MinPixelX:                    55,
			MinPixelY:                    40,
			MaxPixelX:                    60,
			MaxPixelY:                    115,
			MMPerPixel:                   1.5,
			NoiseRects:                   cloneRects(t2NoiseRects),
			SignalRect:                   imaging.Rect{X: 63, W: 5, Y: 40, H: 5},
		},
		{
			Name:                         "T1 domed",
			Aliases:                      []string{"t1d"},
			Description:                  "T1-weighted scan of the domed phantom",
			Slice:                        17,
			Threshold:                    t1DomedBase * fiducialAttenuation,
			CircleCircumferenceThreshold: 0.5,
			MinPixelX:                    50,
			MinPixelY:                    40,
			MaxPixelX:                    60,
			MaxPixelY:                    115,
			MMPerPixel:                   1.6,
			NoiseRects:                   cloneRects(t1NoiseRects),
			SignalRect:                   imaging.Rect{X: 56, W: 5, Y: 50, H: 5},
		},
	}
}

func cloneRects(rs []imaging.Rect) []imaging.Rect {
	out := make([]imaging.Rect, len(rs))
	copy(out, rs)
	return out
}
