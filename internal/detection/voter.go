package detection

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// Offset is one sampled point of a template circle, relative to its centre.
type Offset struct {
	R  int
	DX int
	DY int
}

// Template holds the sampled circumference points for every radius in
// [RMin, RMax]. Offsets are ordered by radius, then by angle step.
type Template struct {
	RMin    int
	RMax    int
	Steps   int
	Offsets []Offset
}

// NewTemplate samples steps equally spaced angles on circles of every integer
// radius in [rmin, rmax].
//
// Offsets are converted to integers by truncation toward zero, not rounding:
// a radius-6 sample at 3.6° (6·cos = 5.988) lands on DX = 5.
//
// Returns an error wrapping ErrInvalidParameter when rmin > rmax, rmin < 0 or
// steps < 1.
func NewTemplate(rmin, rmax, steps int) (*Template, error) {
	if rmin < 0 {
		return nil, fmt.Errorf("%w: rmin %d must not be negative", ErrInvalidParameter, rmin)
	}
	if rmin > rmax {
		return nil, fmt.Errorf("%w: rmin %d > rmax %d", ErrInvalidParameter, rmin, rmax)
	}
	if steps < 1 {
		return nil, fmt.Errorf("%w: steps %d must be at least 1", ErrInvalidParameter, steps)
	}

	offsets := make([]Offset, 0, (rmax-rmin+1)*steps)
	for r := rmin; r <= rmax; r++ {
		for t := 0; t < steps; t++ {
			angle := 2 * math.Pi * float64(t) / float64(steps)
			offsets = append(offsets, Offset{
				R:  r,
				DX: int(float64(r) * math.Cos(angle)),
				DY: int(float64(r) * math.Sin(angle)),
			})
		}
	}

	return &Template{RMin: rmin, RMax: rmax, Steps: steps, Offsets: offsets}, nil
}

// Key identifies a candidate circle: centre (X, Y) = (row, col) and radius R.
type Key struct {
	X int
	Y int
	R int
}

// Accumulator is a sparse vote histogram over candidate circles.
//
// Only keys that received at least one vote exist. The accumulator remembers
// the order in which keys received their first vote; that order is the
// tie-break used by Select.
type Accumulator struct {
	steps  int
	counts map[Key]int
	order  []Key
}

func newAccumulator(steps, sizeHint int) *Accumulator {
	return &Accumulator{
		steps:  steps,
		counts: make(map[Key]int, sizeHint),
		order:  make([]Key, 0, sizeHint),
	}
}

func (a *Accumulator) add(k Key, n int) {
	if _, ok := a.counts[k]; !ok {
		a.order = append(a.order, k)
	}
	a.counts[k] += n
}

// Steps is the number of angular samples per radius the votes were cast with.
func (a *Accumulator) Steps() int { return a.steps }

// Len returns the number of distinct keys.
func (a *Accumulator) Len() int { return len(a.order) }

// Count returns the votes for k, or 0 if k never received a vote.
func (a *Accumulator) Count(k Key) int { return a.counts[k] }

// Keys returns the keys in first-vote order.
func (a *Accumulator) Keys() []Key {
	keys := make([]Key, len(a.order))
	copy(keys, a.order)
	return keys
}

// Candidates returns one Candidate per key, in first-vote order.
func (a *Accumulator) Candidates() []Candidate {
	cands := make([]Candidate, 0, len(a.order))
	for _, k := range a.order {
		v := a.counts[k]
		cands = append(cands, Candidate{
			X:     k.X,
			Y:     k.Y,
			R:     k.R,
			Votes: v,
			Score: float64(v) / float64(a.steps),
		})
	}
	return cands
}

// maxSizeHint caps the keys reserved up front. Larger accumulators grow.
const maxSizeHint = 1 << 16

// sizeHint estimates the distinct keys voting can produce: a quarter of the
// votes cast, bounded by the centres reachable from the points' bounding box
// and by maxSizeHint.
func sizeHint(points []Point, tmpl *Template) int {
	if len(points) == 0 {
		return 0
	}
	minRow, maxRow := points[0].Row, points[0].Row
	minCol, maxCol := points[0].Col, points[0].Col
	for _, p := range points[1:] {
		minRow = min(minRow, p.Row)
		maxRow = max(maxRow, p.Row)
		minCol = min(minCol, p.Col)
		maxCol = max(maxCol, p.Col)
	}

	// float64 keeps the product from overflowing for very large radii.
	reach := float64(2*tmpl.RMax + 1)
	keys := (float64(maxRow-minRow) + reach) * (float64(maxCol-minCol) + reach) * float64(tmpl.RMax-tmpl.RMin+1)
	votes := float64(len(points)) * float64(len(tmpl.Offsets)) / 4

	return int(math.Min(math.Min(keys, votes), maxSizeHint))
}

// Vote casts one vote per (edge point, template offset) pair for the centre
// the point would have if it lay on that offset's circle:
// (p.Row − DX, p.Col − DY, R).
//
// Points are processed in the order given; callers pass Mask.Points, which is
// row-major. Centres may fall outside the image; they are kept as candidates.
func Vote(points []Point, tmpl *Template) *Accumulator {
	acc := newAccumulator(tmpl.Steps, sizeHint(points, tmpl))
	voteInto(acc, points, tmpl)
	return acc
}

func voteInto(acc *Accumulator, points []Point, tmpl *Template) {
	for _, p := range points {
		for _, o := range tmpl.Offsets {
			acc.add(Key{X: p.Row - o.DX, Y: p.Col - o.DY, R: o.R}, 1)
		}
	}
}

// VoteParallel produces the same accumulator as Vote, counts and first-vote
// order included, using up to workers goroutines.
//
// Points are split into contiguous chunks that vote into private
// accumulators. Chunks are merged in their original order, so a key's first
// appearance in the merged order is its first appearance in the sequential
// pass.
func VoteParallel(points []Point, tmpl *Template, workers int) *Accumulator {
	if workers <= 1 || len(points) < 2*workers {
		return Vote(points, tmpl)
	}

	nChunks := workers * 4
	if nChunks > len(points) {
		nChunks = len(points)
	}
	chunkSize := (len(points) + nChunks - 1) / nChunks

	chunks := make([]*Accumulator, 0, nChunks)
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < len(points); start += chunkSize {
		end := start + chunkSize
		if end > len(points) {
			end = len(points)
		}
		part := points[start:end]
		acc := newAccumulator(tmpl.Steps, sizeHint(part, tmpl))
		chunks = append(chunks, acc)
		g.Go(func() error {
			voteInto(acc, part, tmpl)
			return nil
		})
	}
	// chunk voting never fails
	_ = g.Wait()

	merged := newAccumulator(tmpl.Steps, sizeHint(points, tmpl))
	for _, c := range chunks {
		for _, k := range c.order {
			merged.add(k, c.counts[k])
		}
	}
	return merged
}
