package detection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Distances measures the spacing between neighbouring circles in millimetres.
//
// Circles are stably sorted by X (row); circles sharing a row keep their input
// order. For each adjacent pair the Euclidean centre distance in pixels is
// multiplied by mmPerPixel and rounded to one decimal, halves to even.
//
// N circles give N−1 distances; fewer than two circles give an empty slice.
func Distances(circles []Circle, mmPerPixel float64) []float64 {
	if len(circles) < 2 {
		return []float64{}
	}

	sorted := make([]Circle, len(circles))
	copy(sorted, circles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	distances := make([]float64, 0, len(sorted)-1)
	for i := 0; i < len(sorted)-1; i++ {
		dx := sorted[i+1].X - sorted[i].X
		dy := sorted[i+1].Y - sorted[i].Y
		d := math.Sqrt(float64(dx*dx + dy*dy))
		distances = append(distances, roundTenths(d*mmPerPixel))
	}
	return distances
}

// roundTenths rounds to one decimal: scale by 10, round half to even, unscale.
// 0.25 becomes 0.2 and 0.35 becomes 0.4.
func roundTenths(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}

// DistanceSummary aggregates a list of distances.
type DistanceSummary struct {
	Count  int     `json:"count"`
	MeanMM float64 `json:"mean_mm"`
	MinMM  float64 `json:"min_mm"`
	MaxMM  float64 `json:"max_mm"`
}

// Summarize returns count, mean, min and max of the distances. An empty list
// yields a zero summary.
func Summarize(distances []float64) DistanceSummary {
	if len(distances) == 0 {
		return DistanceSummary{}
	}
	return DistanceSummary{
		Count:  len(distances),
		MeanMM: stat.Mean(distances, nil),
		MinMM:  floats.Min(distances),
		MaxMM:  floats.Max(distances),
	}
}
