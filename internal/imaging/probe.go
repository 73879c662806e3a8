package imaging

import "fmt"

// ProbeResult describes the intensity of one pixel relative to its slice.
type ProbeResult struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Value float64 `json:"value"`

	// SliceMax is the largest intensity in the slice.
	SliceMax float64 `json:"slice_max"`

	// Fraction is Value / SliceMax, or 0 when SliceMax is 0.
	Fraction float64 `json:"fraction"`

	// BelowThreshold reports Value < Threshold × SliceMax, the same test the
	// circle detector uses to mark foreground.
	BelowThreshold bool    `json:"below_threshold"`
	Threshold      float64 `json:"threshold"`
}

// Probe reads one pixel and reports whether a detector run at threshold would
// treat it as foreground. Useful when tuning a profile's threshold.
func Probe(s *Slice, row, col int, threshold float64) (*ProbeResult, error) {
	if !s.In(row, col) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside %dx%d slice", row, col, s.Rows, s.Cols)
	}

	v := s.At(row, col)
	max := s.Max()
	res := &ProbeResult{
		Row:            row,
		Col:            col,
		Value:          v,
		SliceMax:       max,
		BelowThreshold: v < threshold*max,
		Threshold:      threshold,
	}
	if max != 0 {
		res.Fraction = v / max
	}
	return res, nil
}
