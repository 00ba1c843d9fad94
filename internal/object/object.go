// Package object defines the drawable object model shared by the tree
// navigator and the canvas backends.
package object

// Drawable is anything a canvas can display. Implementations must support
// deep copying so a canvas can decouple what is on screen from the tree
// node it came from.
type Drawable interface {
	// Title returns the display title shown with the rendering.
	Title() string
	// Clone returns an independent deep copy.
	Clone() Drawable
}

// Point is a single data point of a series.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is a titled sequence of points, the drawable payload carried by
// data files in the browse tree.
type Series struct {
	Name   string  `json:"title"`
	Points []Point `json:"points"`
}

// Title returns the series title.
func (s *Series) Title() string { return s.Name }

// Clone returns an independent deep copy of the series.
func (s *Series) Clone() Drawable {
	cp := &Series{
		Name:   s.Name,
		Points: make([]Point, len(s.Points)),
	}
	copy(cp.Points, s.Points)
	return cp
}
