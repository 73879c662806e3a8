package imaging

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Rect is an axis-aligned region of a slice in the ((x, w), (y, h)) form used
// by phantom profiles: rows [X, X+W) and columns [Y, Y+H).
type Rect struct {
	X int `json:"x"`
	W int `json:"w"`
	Y int `json:"y"`
	H int `json:"h"`
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Within reports whether the rectangle lies entirely inside s.
func (r Rect) Within(s *Slice) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.W <= s.Rows && r.Y+r.H <= s.Cols
}

// Clip trims the parts of r that extend past the last row or column of s.
// The result is empty when r starts beyond the slice.
func (r Rect) Clip(s *Slice) Rect {
	r.W = min(r.W, s.Rows-r.X)
	r.H = min(r.H, s.Cols-r.Y)
	return r
}

func (r Rect) String() string {
	return fmt.Sprintf("rows [%d,%d) cols [%d,%d)", r.X, r.X+r.W, r.Y, r.Y+r.H)
}

// ErrZeroNoise is returned when the pooled noise region has no variation, so
// SNR and CNR are undefined.
var ErrZeroNoise = errors.New("noise standard deviation is zero")

// Stats summarizes the intensities inside one rectangle.
type Stats struct {
	Pixels int     `json:"pixels"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// RegionStats returns population statistics for the pixels inside r, clipped
// to the slice as described for SNRCNR.
func RegionStats(s *Slice, r Rect) (*Stats, error) {
	vals, err := regionValues(s, r)
	if err != nil {
		return nil, err
	}

	mean, std := stat.PopMeanStdDev(vals, nil)
	st := &Stats{Pixels: len(vals), Mean: mean, StdDev: std, Min: vals[0], Max: vals[0]}
	for _, v := range vals[1:] {
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
	}
	return st, nil
}

func regionValues(s *Slice, r Rect) ([]float64, error) {
	if r.Empty() {
		return nil, fmt.Errorf("empty region: %s", r)
	}
	if r.X < 0 || r.Y < 0 {
		return nil, fmt.Errorf("region %s has a negative origin", r)
	}
	r = r.Clip(s)
	if r.Empty() {
		return nil, fmt.Errorf("region starts outside %dx%d slice", s.Rows, s.Cols)
	}
	vals := make([]float64, 0, r.W*r.H)
	for row := r.X; row < r.X+r.W; row++ {
		vals = append(vals, s.Pix[row*s.Cols+r.Y:row*s.Cols+r.Y+r.H]...)
	}
	return vals, nil
}

// SNRResult contains signal and contrast to noise ratios for one slice.
type SNRResult struct {
	SignalMean float64 `json:"signal_mean"`
	NoiseMean  float64 `json:"noise_mean"`
	NoiseStd   float64 `json:"noise_std"`

	// SNR is SignalMean / NoiseStd.
	SNR float64 `json:"snr"`

	// CNR is (SignalMean - NoiseMean) / NoiseStd.
	CNR float64 `json:"cnr"`

	NoisePixels  int `json:"noise_pixels"`
	SignalPixels int `json:"signal_pixels"`
}

// SNRCNR measures signal-to-noise and contrast-to-noise ratios.
//
// # Algorithm
//
// Pixels from every noise rectangle are pooled into one sample. Its mean and
// population standard deviation (divisor N) describe the background. The
// signal is the mean of the signal rectangle.
//
//	SNR = signal / noiseStd
//	CNR = (signal - noiseMean) / noiseStd
//
// A rectangle that runs past the last row or column is clipped to the slice
// and measured over the pixels that remain.
//
// Returns an error for an empty rectangle, one with a negative origin or one
// that starts beyond the slice, for an empty list of noise rectangles, and
// ErrZeroNoise when the pooled noise is constant.
func SNRCNR(s *Slice, noise []Rect, signal Rect) (*SNRResult, error) {
	if len(noise) == 0 {
		return nil, fmt.Errorf("at least one noise region is required")
	}

	var pooled []float64
	for i, r := range noise {
		vals, err := regionValues(s, r)
		if err != nil {
			return nil, fmt.Errorf("noise region %d: %w", i, err)
		}
		pooled = append(pooled, vals...)
	}

	sig, err := regionValues(s, signal)
	if err != nil {
		return nil, fmt.Errorf("signal region: %w", err)
	}

	noiseMean, noiseStd := stat.PopMeanStdDev(pooled, nil)
	if noiseStd == 0 {
		return nil, ErrZeroNoise
	}
	signalMean := stat.Mean(sig, nil)

	return &SNRResult{
		SignalMean:   signalMean,
		NoiseMean:    noiseMean,
		NoiseStd:     noiseStd,
		SNR:          signalMean / noiseStd,
		CNR:          (signalMean - noiseMean) / noiseStd,
		NoisePixels:  len(pooled),
		SignalPixels: len(sig),
	}, nil
}
