package export

import (
	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/geom"
)

// Primitive is one drawing instruction for an output writer. Coordinates
// are in page units with the origin at the bottom-left corner, y up.
type Primitive interface {
	Source() document.ID
	primitive()
}

// Origin records which overlay a primitive was derived from.
type Origin struct {
	Overlay document.ID
}

func (o Origin) Source() document.ID { return o.Overlay }
func (Origin) primitive()            {}

// TextPrim is a single line of text; (X, Y) is the anchor on the baseline.
type TextPrim struct {
	Origin
	X, Y   float64
	Text   string
	Font   string
	Size   float64
	Bold   bool
	Italic bool
	Align  document.Align
	Color  document.RGB
}

// RectPrim is a rectangle; (X, Y) is its bottom-left corner. A nil colour
// is not painted.
type RectPrim struct {
	Origin
	X, Y          float64
	Width, Height float64
	Stroke        *document.RGB
	StrokeWidth   float64
	Fill          *document.RGB
	Opacity       float64
}

type EllipsePrim struct {
	Origin
	X, Y        float64 // centre
	RX, RY      float64
	Stroke      *document.RGB
	StrokeWidth float64
	Fill        *document.RGB
}

type LinePrim struct {
	Origin
	X1, Y1, X2, Y2 float64
	Width          float64
	Color          document.RGB
	Round          bool // round caps, for freehand strokes
}

type PolygonPrim struct {
	Origin
	Points []geom.Point
	Fill   document.RGB
}

// ImagePrim places encoded image bytes; (X, Y) is the bottom-left corner.
type ImagePrim struct {
	Origin
	X, Y          float64
	Width, Height float64
	Data          []byte
	Format        string
}
