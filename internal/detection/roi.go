package detection

// Window bounds circle centres. X limits the centre row and Y the centre
// column; both limits are exclusive.
type Window struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// Contains reports whether the circle's centre lies strictly inside the window.
func (w Window) Contains(c Circle) bool {
	return w.MinX < c.X && c.X < w.MaxX && w.MinY < c.Y && c.Y < w.MaxY
}

// Filter returns the circles whose centres lie strictly inside the window, in
// input order. The input slice is not modified.
func (w Window) Filter(circles []Circle) []Circle {
	kept := make([]Circle, 0, len(circles))
	for _, c := range circles {
		if w.Contains(c) {
			kept = append(kept, c)
		}
	}
	return kept
}
