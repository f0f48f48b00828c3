package document

import "github.com/inamate/pagemark/internal/geom"

// NewSampleStore returns a store with one overlay of most kinds on page 1,
// laid out for a US Letter page. It backs the demo mode of the hosts.
func NewSampleStore(limits Limits) *Store {
	s := NewStore(limits)
	opts := DefaultToolOptions()

	overlays := []Overlay{
		&Text{
			X: 72, Y: 72, Content: "Reviewed",
			Font: opts.Text.Font, Size: 24, Color: "#FF0000", Bold: true, Align: AlignLeft,
		},
		&Rect{
			Box:    Box{X: 72, Y: 120, Width: 200, Height: 80},
			Stroke: "#0000FF", StrokeWidth: 2, Fill: Transparent,
		},
		&Circle{X: 420, Y: 160, Radius: 40, Stroke: "#800080", StrokeWidth: 3, Fill: Transparent},
		&Arrow{Segment: Segment{X1: 300, Y1: 260, X2: 420, Y2: 220, Stroke: "#FF0000", StrokeWidth: 2}},
		&Line{Segment: Segment{X1: 72, Y1: 300, X2: 540, Y2: 300, Stroke: "#000000", StrokeWidth: 1}},
		&Highlight{Box: Box{X: 72, Y: 330, Width: 240, Height: 20}, Color: opts.Highlight},
		&Whiteout{Box: Box{X: 330, Y: 330, Width: 120, Height: 20}},
		&Drawing{
			Points: []geom.Point{{X: 80, Y: 420}, {X: 110, Y: 400}, {X: 140, Y: 430}, {X: 170, Y: 405}},
			Color:  opts.Draw.Color, Width: opts.Draw.Width,
		},
		&Signature{X: 380, Y: 680, Text: "J. Doe", Color: SignatureColor},
	}
	for _, o := range overlays {
		if _, err := s.Add(1, o); err != nil {
			panic(err)
		}
	}
	return s
}
