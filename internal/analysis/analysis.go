// Package analysis runs a complete phantom QA pass for a profile: circle
// detection on the profile's slice, ROI filtering, fiducial spacing and
// SNR/CNR.
package analysis

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/phantom-qa-mcp/internal/detection"
	"github.com/ironsheep/phantom-qa-mcp/internal/imaging"
	"github.com/ironsheep/phantom-qa-mcp/internal/profile"
)

// Options control how an analysis runs. The zero value is usable.
type Options struct {
	// Workers is passed to the detector for parallel voting.
	Workers int

	// SliceOverride, when non-nil, replaces the profile's slice index.
	SliceOverride *int

	// Debug logs a one-line summary per run.
	Debug bool
}

// Result is the outcome of one profile analysis.
type Result struct {
	Profile    string `json:"profile"`
	SliceIndex int    `json:"slice_index"`

	Params detection.Params `json:"params"`
	Window detection.Window `json:"window"`

	// Detected is the number of circles accepted before ROI filtering.
	Detected   int `json:"detected"`
	EdgePoints int `json:"edge_points"`

	// Circles are the fiducials inside the window, in acceptance order.
	Circles []detection.Circle `json:"circles"`

	// Distances are adjacent fiducial spacings in mm, ordered by row.
	Distances []float64                 `json:"distances_mm"`
	Summary   detection.DistanceSummary `json:"summary"`

	// SNR is nil when the profile's rectangles could not be measured on this
	// slice; SNRError then says why.
	SNR      *imaging.SNRResult `json:"snr,omitempty"`
	SNRError string             `json:"snr_error,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// AnalyzeVolume selects the profile's slice from vol and analyzes it.
func AnalyzeVolume(vol *imaging.Volume, p *profile.Profile, opts Options) (*Result, error) {
	idx := p.Slice
	if opts.SliceOverride != nil {
		idx = *opts.SliceOverride
	}

	s, err := vol.Slice(idx)
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", p.Name, err)
	}

	res, err := AnalyzeSlice(s, p, opts)
	if err != nil {
		return nil, err
	}
	res.SliceIndex = idx
	return res, nil
}

// AnalyzeSlice runs the profile's pipeline on an already selected slice.
//
// Detection errors (invalid parameters) are returned. SNR/CNR problems are
// recorded in the result so that geometry is still reported.
func AnalyzeSlice(s *imaging.Slice, p *profile.Profile, opts Options) (*Result, error) {
	start := time.Now()

	params := p.Params(opts.Workers)
	det, err := detection.DetectCircles(s, params)
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", p.Name, err)
	}

	window := p.Window()
	circles := window.Filter(det.Circles)
	distances := detection.Distances(circles, p.MMPerPixel)

	res := &Result{
		Profile:    p.Name,
		SliceIndex: p.Slice,
		Params:     params,
		Window:     window,
		Detected:   det.Count,
		EdgePoints: det.EdgePoints,
		Circles:    circles,
		Distances:  distances,
		Summary:    detection.Summarize(distances),
	}

	snr, err := imaging.SNRCNR(s, p.NoiseRects, p.SignalRect)
	if err != nil {
		res.SNRError = err.Error()
	} else {
		res.SNR = snr
	}

	res.Elapsed = time.Since(start)

	if opts.Debug {
		log.Printf("[analysis] %s: %d edge points, %d candidates, %d circles (%d in window), mean %.1f mm, %s",
			p.Name, det.EdgePoints, det.Candidates, det.Count, len(circles), res.Summary.MeanMM, res.Elapsed)
	}

	return res, nil
}

// AnalyzeAll runs every profile against vol concurrently. Results are returned
// in the order of profiles. If any profile fails, its error is returned and
// no results are.
func AnalyzeAll(vol *imaging.Volume, profiles []*profile.Profile, opts Options) ([]*Result, error) {
	results := make([]*Result, len(profiles))

	var g errgroup.Group
	for i, p := range profiles {
		i, p := i, p
		g.Go(func() error {
			res, err := AnalyzeVolume(vol, p, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
