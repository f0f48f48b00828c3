package document

import "github.com/inamate/pagemark/internal/geom"

// Patch is a partial update. Nil fields are left untouched, and fields that
// do not apply to an overlay's kind are ignored.
type Patch struct {
	X, Y           *float64
	Width, Height  *float64
	Radius         *float64
	X1, Y1, X2, Y2 *float64
	Points         []geom.Point

	Content *string
	Font    *string
	Size    *float64
	Bold    *bool
	Italic  *bool
	Align   *Align

	Color       *string
	Stroke      *string
	StrokeWidth *float64
	Fill        *string
}

// F returns a pointer to v, for building patches.
func F[T any](v T) *T { return &v }

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (b *Box) applyBox(p Patch) {
	set(&b.X, p.X)
	set(&b.Y, p.Y)
	set(&b.Width, p.Width)
	set(&b.Height, p.Height)
}

func (s *Segment) applySegment(p Patch) {
	set(&s.X1, p.X1)
	set(&s.Y1, p.Y1)
	set(&s.X2, p.X2)
	set(&s.Y2, p.Y2)
	set(&s.Stroke, p.Stroke)
	set(&s.StrokeWidth, p.StrokeWidth)
}

func (o *Text) apply(p Patch) {
	set(&o.X, p.X)
	set(&o.Y, p.Y)
	set(&o.Content, p.Content)
	set(&o.Font, p.Font)
	set(&o.Size, p.Size)
	set(&o.Color, p.Color)
	set(&o.Bold, p.Bold)
	set(&o.Italic, p.Italic)
	set(&o.Align, p.Align)
}

func (o *Rect) apply(p Patch) {
	o.applyBox(p)
	set(&o.Stroke, p.Stroke)
	set(&o.StrokeWidth, p.StrokeWidth)
	set(&o.Fill, p.Fill)
}

func (o *Circle) apply(p Patch) {
	set(&o.X, p.X)
	set(&o.Y, p.Y)
	set(&o.Radius, p.Radius)
	set(&o.Stroke, p.Stroke)
	set(&o.StrokeWidth, p.StrokeWidth)
	set(&o.Fill, p.Fill)
}

func (o *Line) apply(p Patch)     { o.applySegment(p) }
func (o *Arrow) apply(p Patch)    { o.applySegment(p) }
func (o *Whiteout) apply(p Patch) { o.applyBox(p) }
func (o *Image) apply(p Patch)    { o.applyBox(p) }

func (o *Highlight) apply(p Patch) {
	o.applyBox(p)
	set(&o.Color, p.Color)
}

func (o *Drawing) apply(p Patch) {
	if p.Points != nil {
		o.Points = append([]geom.Point(nil), p.Points...)
	}
	set(&o.Color, p.Color)
	set(&o.Width, p.StrokeWidth)
}

func (o *Signature) apply(p Patch) {
	set(&o.X, p.X)
	set(&o.Y, p.Y)
	set(&o.Text, p.Content)
	set(&o.Color, p.Color)
}

// Translate builds the patch that moves o by d.
func Translate(o Overlay, d geom.Point) Patch {
	switch v := o.(type) {
	case Segmented:
		s := v.SegmentRef()
		return Patch{X1: F(s.X1 + d.X), Y1: F(s.Y1 + d.Y), X2: F(s.X2 + d.X), Y2: F(s.Y2 + d.Y)}
	case *Drawing:
		pts := make([]geom.Point, len(v.Points))
		for i, pt := range v.Points {
			pts[i] = pt.Add(d)
		}
		return Patch{Points: pts}
	}
	a := Anchor(o)
	return Patch{X: F(a.X + d.X), Y: F(a.Y + d.Y)}
}
