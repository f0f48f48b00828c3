package document

import (
	"github.com/inamate/pagemark/internal/geom"
)

type ID int64

type Kind string

const (
	KindText      Kind = "text"
	KindRect      Kind = "rect"
	KindCircle    Kind = "circle"
	KindLine      Kind = "line"
	KindArrow     Kind = "arrow"
	KindHighlight Kind = "highlight"
	KindWhiteout  Kind = "whiteout"
	KindDrawing   Kind = "drawing"
	KindSignature Kind = "signature"
	KindImage     Kind = "image"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Factor is the fraction of a line's width that sits left of its anchor.
func (a Align) Factor() float64 {
	switch a {
	case AlignCenter:
		return 0.5
	case AlignRight:
		return 1
	}
	return 0
}

const (
	HighlightOpacity = 0.4
	SignatureSize    = 18.0
	SignatureColor   = "#000080"
	SignatureLabel   = "Signature"
	PlaceholderText  = "Click to edit"
	WhiteoutColor    = "#FFFFFF"
	Transparent      = "transparent"
)

// Overlay is one annotation placed on a page. The set of implementations
// is closed; callers switch on the concrete pointer type.
type Overlay interface {
	OverlayID() ID
	Kind() Kind
	Clone() Overlay

	setID(ID)
	apply(p Patch)
	clamp(l Limits)
}

type Base struct {
	ID ID `json:"id"`
}

func (b Base) OverlayID() ID   { return b.ID }
func (b *Base) setID(id ID)    { b.ID = id }
func (b *Base) clamp(l Limits) {}

// Box is the geometry shared by the rectangular kinds.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b *Box) BoxRef() *Box { return b }

func (b Box) Rect() geom.Rect {
	return geom.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func (b *Box) clampBox(l Limits) {
	b.Width = max(b.Width, l.MinBoxSize)
	b.Height = max(b.Height, l.MinBoxSize)
}

// Boxed is implemented by every overlay whose geometry is a Box.
type Boxed interface {
	Overlay
	BoxRef() *Box
}

// Segment is the geometry shared by lines and arrows.
type Segment struct {
	X1          float64 `json:"x1"`
	Y1          float64 `json:"y1"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

func (s *Segment) SegmentRef() *Segment { return s }

func (s Segment) Start() geom.Point { return geom.Point{X: s.X1, Y: s.Y1} }
func (s Segment) End() geom.Point   { return geom.Point{X: s.X2, Y: s.Y2} }

// Segmented is implemented by lines and arrows.
type Segmented interface {
	Overlay
	SegmentRef() *Segment
}

type Text struct {
	Base
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Content string  `json:"content"`
	Font    string  `json:"font"`
	Size    float64 `json:"size"`
	Color   string  `json:"color"`
	Bold    bool    `json:"bold"`
	Italic  bool    `json:"italic"`
	Align   Align   `json:"align"`
}

type Rect struct {
	Base
	Box
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Fill        string  `json:"fill"`
}

type Circle struct {
	Base
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Radius      float64 `json:"radius"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Fill        string  `json:"fill"`
}

type Line struct {
	Base
	Segment
}

type Arrow struct {
	Base
	Segment
}

type Highlight struct {
	Base
	Box
	Color string `json:"color"`
}

type Whiteout struct {
	Base
	Box
}

type Drawing struct {
	Base
	Points []geom.Point `json:"points"`
	Color  string       `json:"color"`
	Width  float64      `json:"width"`
}

type Signature struct {
	Base
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Text  string  `json:"text"`
	Color string  `json:"color"`
}

type Image struct {
	Base
	Box
	Asset  string `json:"asset"`
	Format string `json:"format"`
}

func (*Text) Kind() Kind      { return KindText }
func (*Rect) Kind() Kind      { return KindRect }
func (*Circle) Kind() Kind    { return KindCircle }
func (*Line) Kind() Kind      { return KindLine }
func (*Arrow) Kind() Kind     { return KindArrow }
func (*Highlight) Kind() Kind { return KindHighlight }
func (*Whiteout) Kind() Kind  { return KindWhiteout }
func (*Drawing) Kind() Kind   { return KindDrawing }
func (*Signature) Kind() Kind { return KindSignature }
func (*Image) Kind() Kind     { return KindImage }

func (o *Text) Clone() Overlay      { c := *o; return &c }
func (o *Rect) Clone() Overlay      { c := *o; return &c }
func (o *Circle) Clone() Overlay    { c := *o; return &c }
func (o *Line) Clone() Overlay      { c := *o; return &c }
func (o *Arrow) Clone() Overlay     { c := *o; return &c }
func (o *Highlight) Clone() Overlay { c := *o; return &c }
func (o *Whiteout) Clone() Overlay  { c := *o; return &c }
func (o *Signature) Clone() Overlay { c := *o; return &c }
func (o *Image) Clone() Overlay     { c := *o; return &c }

func (o *Drawing) Clone() Overlay {
	c := *o
	c.Points = append([]geom.Point(nil), o.Points...)
	return &c
}

func (o *Rect) clamp(l Limits)      { o.clampBox(l) }
func (o *Highlight) clamp(l Limits) { o.clampBox(l) }
func (o *Whiteout) clamp(l Limits)  { o.clampBox(l) }
func (o *Image) clamp(l Limits)     { o.clampBox(l) }
func (o *Circle) clamp(l Limits)    { o.Radius = max(o.Radius, l.MinRadius) }

// Anchor is the point a drag moves: the minimum corner for segments and
// drawings, the stored position for everything else.
func Anchor(o Overlay) geom.Point {
	switch v := o.(type) {
	case *Text:
		return geom.Point{X: v.X, Y: v.Y}
	case *Circle:
		return geom.Point{X: v.X, Y: v.Y}
	case *Signature:
		return geom.Point{X: v.X, Y: v.Y}
	case Segmented:
		s := v.SegmentRef()
		return geom.Point{X: min(s.X1, s.X2), Y: min(s.Y1, s.Y2)}
	case *Drawing:
		r := geom.BoundsOf(v.Points...)
		return geom.Point{X: r.X, Y: r.Y}
	case Boxed:
		b := v.BoxRef()
		return geom.Point{X: b.X, Y: b.Y}
	}
	return geom.Point{}
}
