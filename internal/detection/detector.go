package detection

import (
	"fmt"
	"math"

	"github.com/ironsheep/phantom-qa-mcp/internal/imaging"
)

// Params configures one run of the circle detector.
type Params struct {
	// Threshold is the foreground fraction: pixels below Threshold × max(slice)
	// are foreground.
	Threshold float64 `json:"threshold"`

	// CircumferenceThreshold is the minimum score (votes / Steps) a candidate
	// needs to be accepted. Must lie in (0, 1].
	CircumferenceThreshold float64 `json:"circumference_threshold"`

	// RMin and RMax bound the searched radii, inclusive.
	RMin int `json:"rmin"`
	RMax int `json:"rmax"`

	// Steps is the number of angular samples per radius.
	Steps int `json:"steps"`

	// Workers > 1 enables parallel voting. Results are identical either way.
	Workers int `json:"workers,omitempty"`
}

// Search limits accepted by Validate. They bound the work and candidate memory
// of a single run requested over MCP.
const (
	MaxSteps = 1440
	MaxRadii = 64
)

// DefaultParams returns the fiducial search settings used by the phantom
// profiles: radii 6-7 pixels sampled at 100 angles.
func DefaultParams() Params {
	return Params{
		Threshold:              0.3,
		CircumferenceThreshold: 0.5,
		RMin:                   6,
		RMax:                   7,
		Steps:                  100,
		Workers:                1,
	}
}

// Validate checks every parameter before any work is done. Failures wrap
// ErrInvalidParameter.
func (p Params) Validate() error {
	if math.IsNaN(p.Threshold) || math.IsInf(p.Threshold, 0) || p.Threshold < 0 {
		return fmt.Errorf("%w: threshold %v must be a finite non-negative fraction", ErrInvalidParameter, p.Threshold)
	}
	if !(p.CircumferenceThreshold > 0 && p.CircumferenceThreshold <= 1) {
		return fmt.Errorf("%w: circumference threshold %v outside (0, 1]", ErrInvalidParameter, p.CircumferenceThreshold)
	}
	if p.RMin < 0 {
		return fmt.Errorf("%w: rmin %d must not be negative", ErrInvalidParameter, p.RMin)
	}
	if p.RMin > p.RMax {
		return fmt.Errorf("%w: rmin %d > rmax %d", ErrInvalidParameter, p.RMin, p.RMax)
	}
	if p.RMax-p.RMin+1 > MaxRadii {
		return fmt.Errorf("%w: radius range [%d, %d] spans more than %d radii", ErrInvalidParameter, p.RMin, p.RMax, MaxRadii)
	}
	if p.Steps < 1 || p.Steps > MaxSteps {
		return fmt.Errorf("%w: steps %d outside [1, %d]", ErrInvalidParameter, p.Steps, MaxSteps)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalidParameter, p.Workers)
	}
	return nil
}

// DetectResult is the output of DetectCircles.
type DetectResult struct {
	// Circles are the accepted circles in acceptance (descending score) order.
	Circles []Circle `json:"circles"`

	// Count is len(Circles).
	Count int `json:"count"`

	// EdgePoints is the number of pixels in the edge mask.
	EdgePoints int `json:"edge_points"`

	// Candidates is the number of distinct (centre, radius) keys that
	// received at least one vote.
	Candidates int `json:"candidates"`
}

// DetectCircles runs edge extraction, voting and selection on a slice.
//
// # Algorithm
//
//  1. EdgeMask(slice, Threshold)
//  2. NewTemplate(RMin, RMax, Steps) and Vote (or VoteParallel when Workers > 1)
//  3. Select(accumulator, CircumferenceThreshold)
//
// The ROI window is not applied here; see Window.Filter.
//
// # Complexity
//
// Voting is O(edge points × (RMax−RMin+1) × Steps) and dominates the run time.
// Memory grows with the number of distinct candidate keys.
func DetectCircles(s *imaging.Slice, p Params) (*DetectResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	tmpl, err := NewTemplate(p.RMin, p.RMax, p.Steps)
	if err != nil {
		return nil, err
	}

	points := EdgeMask(s, p.Threshold).Points()

	var acc *Accumulator
	if p.Workers > 1 {
		acc = VoteParallel(points, tmpl, p.Workers)
	} else {
		acc = Vote(points, tmpl)
	}

	circles, err := Select(acc, p.CircumferenceThreshold)
	if err != nil {
		return nil, err
	}

	return &DetectResult{
		Circles:    circles,
		Count:      len(circles),
		EdgePoints: len(points),
		Candidates: acc.Len(),
	}, nil
}
