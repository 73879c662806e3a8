package detection

import (
	"fmt"
	"sort"
)

// Candidate is an accumulator entry with its normalized score.
type Candidate struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	R     int     `json:"r"`
	Votes int     `json:"votes"`
	Score float64 `json:"score"`
}

// Circle is an accepted candidate. X is the centre row, Y the centre column.
type Circle struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	R     int     `json:"r"`
	Score float64 `json:"score"`
}

// Select ranks accumulator entries by vote count and accepts circles greedily.
//
// Entries are visited in descending vote order; entries with equal votes keep
// their first-vote order. An entry (x, y, r) is accepted when its score
// (votes / steps) is at least circumferenceThreshold and, for every circle
// (xc, yc, rc) accepted before it,
//
//	(x−xc)² + (y−yc)² > rc²
//
// Only the radius of the already accepted circle takes part in the test.
// Rejected entries are never reconsidered. Circles are returned in acceptance
// order.
//
// circumferenceThreshold must lie in (0, 1]; anything else returns an error
// wrapping ErrInvalidParameter.
func Select(acc *Accumulator, circumferenceThreshold float64) ([]Circle, error) {
	if !(circumferenceThreshold > 0 && circumferenceThreshold <= 1) {
		return nil, fmt.Errorf("%w: circumference threshold %v outside (0, 1]", ErrInvalidParameter, circumferenceThreshold)
	}

	cands := acc.Candidates()
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Votes > cands[j].Votes
	})

	circles := make([]Circle, 0)
	for _, c := range cands {
		// Scores only fall from here on.
		if c.Score < circumferenceThreshold {
			break
		}
		if insideAny(c, circles) {
			continue
		}
		circles = append(circles, Circle{X: c.X, Y: c.Y, R: c.R, Score: c.Score})
	}
	return circles, nil
}

func insideAny(c Candidate, accepted []Circle) bool {
	for _, a := range accepted {
		dx := c.X - a.X
		dy := c.Y - a.Y
		if dx*dx+dy*dy <= a.R*a.R {
			return true
		}
	}
	return false
}
