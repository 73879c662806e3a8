// Package profile holds the named parameter sets used to analyze a phantom
// scan: which slice to read, how to threshold it, where fiducials may lie and
// where to measure noise and signal.
//
// Four profiles ship built in, one per phantom and sequence combination the
// detector was tuned on. Additional or replacement profiles load from a JSON
// file. A Registry only ever returns what was registered; there is no
// implicit "last one wins" selection.
package profile

import (
	"fmt"
	"strings"

	"github.com/ironsheep/phantom-qa-mcp/internal/detection"
	"github.com/ironsheep/phantom-qa-mcp/internal/imaging"
)

// Profile is one named analysis configuration.
//
// Pixel X is the horizontal display axis (image column) and pixel Y the
// vertical axis (row). The circle detector works in (row, col); use Window to
// convert.
type Profile struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description,omitempty"`

	// Slice is the zero-based index of the slice to analyze.
	Slice int `json:"slice"`

	Threshold                    float64 `json:"threshold"`
	CircleCircumferenceThreshold float64 `json:"circle_circumference_threshold"`

	// Fiducial centres must lie strictly inside these bounds.
	MinPixelX int `json:"min_pixel_x"`
	MinPixelY int `json:"min_pixel_y"`
	MaxPixelX int `json:"max_pixel_x"`
	MaxPixelY int `json:"max_pixel_y"`

	MMPerPixel float64 `json:"mm_per_pixel"`

	NoiseRects []imaging.Rect `json:"noise_rects"`
	SignalRect imaging.Rect   `json:"signal_rect"`

	// Radius range and angular sampling. Zero values take the detector
	// defaults.
	RMin  int `json:"rmin,omitempty"`
	RMax  int `json:"rmax,omitempty"`
	Steps int `json:"steps,omitempty"`

	// NominalSpacingMM is the manufacturer fiducial spacing, used only to draw
	// a reference line on distance plots. Zero disables the line.
	NominalSpacingMM float64 `json:"nominal_spacing_mm,omitempty"`
}

// Window returns the detector ROI window for this profile.
func (p *Profile) Window() detection.Window {
	return detection.Window{
		MinX: p.MinPixelY,
		MaxX: p.MaxPixelY,
		MinY: p.MinPixelX,
		MaxY: p.MaxPixelX,
	}
}

// Params returns detector parameters for this profile. Unset radius and step
// fields fall back to detection.DefaultParams.
func (p *Profile) Params(workers int) detection.Params {
	params := detection.DefaultParams()
	params.Threshold = p.Threshold
	params.CircumferenceThreshold = p.CircleCircumferenceThreshold
	if p.RMin != 0 || p.RMax != 0 {
		params.RMin = p.RMin
		params.RMax = p.RMax
	}
	if p.Steps != 0 {
		params.Steps = p.Steps
	}
	params.Workers = workers
	return params
}

// Validate checks the profile for values that would make an analysis fail or
// silently measure nothing. Detector setting failures wrap
// detection.ErrInvalidParameter.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.Slice < 0 {
		return fmt.Errorf("profile %q: slice must be non-negative, got %d", p.Name, p.Slice)
	}
	if err := p.Params(1).Validate(); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	if p.MinPixelX >= p.MaxPixelX || p.MinPixelY >= p.MaxPixelY {
		return fmt.Errorf("profile %q: pixel window is empty", p.Name)
	}
	if !(p.MMPerPixel > 0) {
		return fmt.Errorf("profile %q: mm_per_pixel must be positive, got %v", p.Name, p.MMPerPixel)
	}
	if len(p.NoiseRects) == 0 {
		return fmt.Errorf("profile %q: at least one noise rect is required", p.Name)
	}
	for i, r := range p.NoiseRects {
		if r.Empty() {
			return fmt.Errorf("profile %q: noise rect %d is empty", p.Name, i)
		}
	}
	if p.SignalRect.Empty() {
		return fmt.Errorf("profile %q: signal rect is empty", p.Name)
	}
	return nil
}

// Normalize folds a profile name for lookup: lower case, with dashes,
// underscores and runs of spaces collapsed to single spaces.
func Normalize(name string) string {
	name = strings.ToLower(name)
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}
