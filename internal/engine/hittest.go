package engine

import (
	"unicode/utf8"

	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/geom"
)

// Approximate advance of one glyph relative to the font size. Text is laid
// out on one line so this only drives hit areas and selection outlines.
const (
	glyphAdvance = 0.55
	lineHeight   = 1.2
)

// TextBounds estimates the box of a single line of text anchored at (x, y).
func TextBounds(content string, size float64, align document.Align, x, y float64) geom.Rect {
	w := max(size, float64(utf8.RuneCountInString(content))*size*glyphAdvance)
	return geom.Rect{X: x - w*align.Factor(), Y: y, Width: w, Height: size * lineHeight}
}

// Bounds returns the axis-aligned box of o in document space.
func Bounds(o document.Overlay) geom.Rect {
	switch v := o.(type) {
	case *document.Text:
		return TextBounds(v.Content, v.Size, v.Align, v.X, v.Y)
	case *document.Signature:
		return TextBounds(v.Text, document.SignatureSize, document.AlignLeft, v.X, v.Y)
	case *document.Circle:
		return geom.Rect{X: v.X - v.Radius, Y: v.Y - v.Radius, Width: 2 * v.Radius, Height: 2 * v.Radius}
	case document.Segmented:
		s := v.SegmentRef()
		return geom.BoundsOf(s.Start(), s.End())
	case *document.Drawing:
		return geom.BoundsOf(v.Points...)
	case document.Boxed:
		return v.BoxRef().Rect()
	}
	return geom.Rect{}
}

// Hit reports whether p touches o. Thin shapes accept points within slop
// of their stroke; everything else is hit inside its bounds.
func Hit(o document.Overlay, p geom.Point, slop float64) bool {
	switch v := o.(type) {
	case document.Segmented:
		s := v.SegmentRef()
		return geom.SegmentDist(p, s.Start(), s.End()) <= slop+s.StrokeWidth/2
	case *document.Drawing:
		if len(v.Points) == 1 {
			return p.Dist(v.Points[0]) <= slop+v.Width/2
		}
		for i := 1; i < len(v.Points); i++ {
			if geom.SegmentDist(p, v.Points[i-1], v.Points[i]) <= slop+v.Width/2 {
				return true
			}
		}
		return false
	case *document.Circle:
		return p.Dist(geom.Point{X: v.X, Y: v.Y}) <= v.Radius+slop
	}
	return Bounds(o).Contains(p.X, p.Y)
}

// HitTest returns the topmost overlay under p. The list is in painter's
// order, so it is walked back to front.
func HitTest(list []document.Overlay, p geom.Point, slop float64) (document.ID, bool) {
	for i := len(list) - 1; i >= 0; i-- {
		if Hit(list[i], p, slop) {
			return list[i].OverlayID(), true
		}
	}
	return 0, false
}

// Handle names a resize grip.
type Handle string

const (
	HandleNW    Handle = "nw"
	HandleN     Handle = "n"
	HandleNE    Handle = "ne"
	HandleE     Handle = "e"
	HandleSE    Handle = "se"
	HandleS     Handle = "s"
	HandleSW    Handle = "sw"
	HandleW     Handle = "w"
	HandleStart Handle = "start"
	HandleEnd   Handle = "end"
)

func (h Handle) west() bool  { return h == HandleNW || h == HandleW || h == HandleSW }
func (h Handle) east() bool  { return h == HandleNE || h == HandleE || h == HandleSE }
func (h Handle) north() bool { return h == HandleNW || h == HandleN || h == HandleNE }
func (h Handle) south() bool { return h == HandleSW || h == HandleS || h == HandleSE }

type HandlePoint struct {
	Handle Handle     `json:"handle"`
	At     geom.Point `json:"at"`
}

// Handles lists the resize grips of o. Text, signatures and drawings have
// none.
func Handles(o document.Overlay) []HandlePoint {
	switch v := o.(type) {
	case *document.Circle:
		return []HandlePoint{{HandleSE, geom.Point{X: v.X + v.Radius, Y: v.Y + v.Radius}}}
	case document.Segmented:
		s := v.SegmentRef()
		return []HandlePoint{{HandleStart, s.Start()}, {HandleEnd, s.End()}}
	case document.Boxed:
		b := v.BoxRef()
		l, t, r, btm := b.X, b.Y, b.X+b.Width, b.Y+b.Height
		cx, cy := b.X+b.Width/2, b.Y+b.Height/2
		return []HandlePoint{
			{HandleNW, geom.Point{X: l, Y: t}},
			{HandleN, geom.Point{X: cx, Y: t}},
			{HandleNE, geom.Point{X: r, Y: t}},
			{HandleE, geom.Point{X: r, Y: cy}},
			{HandleSE, geom.Point{X: r, Y: btm}},
			{HandleS, geom.Point{X: cx, Y: btm}},
			{HandleSW, geom.Point{X: l, Y: btm}},
			{HandleW, geom.Point{X: l, Y: cy}},
		}
	}
	return nil
}

// HandleAt returns the grip of o within radius of p.
func HandleAt(o document.Overlay, p geom.Point, radius float64) (Handle, bool) {
	for _, h := range Handles(o) {
		if p.Dist(h.At) <= radius {
			return h.Handle, true
		}
	}
	return "", false
}
