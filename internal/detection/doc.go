// Package detection locates circular fiducial markers in a single MRI phantom
// slice and measures the spacing between them.
//
// The detector is a Hough-style voting procedure tuned for small, dark,
// fixed-size fiducials. It is deliberately simple and fully deterministic: the
// same slice and parameters always produce the same circles in the same order.
//
// # Pipeline
//
//  1. Edge extraction: pixels darker than threshold × max(slice) form the
//     foreground mask. The mask minus its 3-fold binary erosion is the edge
//     shell (see EdgeMask).
//  2. Voting: every edge point votes for all (centre, radius) triples that
//     would place it on a circle, using a precomputed Template of truncated
//     integer offsets (see NewTemplate and Vote).
//  3. Selection: candidates are ranked by vote count and accepted greedily when
//     their normalized score reaches the circumference threshold and their
//     centre lies strictly outside every previously accepted circle (see Select).
//  4. Windowing: accepted circles whose centre falls outside a rectangular
//     window are dropped (see Window.Filter).
//  5. Geometry: the remaining circles are sorted by row and the distances
//     between neighbours are converted to millimetres (see Distances).
//
// # Coordinate System
//
// Circles are reported as (X, Y, R) where X is the image row and Y the image
// column, both 0-based from the top-left corner. This is the array convention
// of the pixel data, not the display convention (where x would be the column).
//
// # Scores
//
// A candidate's score is votes / steps: the fraction of the sampled
// circumference that coincides with edge pixels. Because the edge shell is
// several pixels thick, scores above 1.0 are possible and expected for
// well-formed fiducials.
//
// # Ordering and Ties
//
// Candidates with equal vote counts keep the order in which their key first
// received a vote during a sequential row-major voting pass. VoteParallel
// reproduces that order exactly, so parallel and sequential runs agree.
//
// # Errors
//
// Only malformed parameters are errors; they wrap ErrInvalidParameter and are
// reported before any work is done. Empty edge masks, no accepted circles, an
// empty window or fewer than two circles all produce empty results.
package detection
