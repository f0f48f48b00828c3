package engine

import (
	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/geom"
)

// Resize builds the patch for dragging handle h of origin by d. The delta
// is always measured from the gesture start, so origin is the overlay as it
// was when the gesture began. When a side would shrink below the minimum
// the opposite edge stays put.
func Resize(origin document.Overlay, h Handle, d geom.Point, lim document.Limits) (document.Patch, bool) {
	switch v := origin.(type) {
	case *document.Circle:
		if h != HandleSE {
			return document.Patch{}, false
		}
		return document.Patch{Radius: document.F(max(lim.MinRadius, v.Radius+max(d.X, d.Y)/2))}, true

	case document.Segmented:
		s := v.SegmentRef()
		switch h {
		case HandleStart:
			return document.Patch{X1: document.F(s.X1 + d.X), Y1: document.F(s.Y1 + d.Y)}, true
		case HandleEnd:
			return document.Patch{X2: document.F(s.X2 + d.X), Y2: document.F(s.Y2 + d.Y)}, true
		}
		return document.Patch{}, false

	case document.Boxed:
		b := *v.BoxRef()
		x, y, w, ht := b.X, b.Y, b.Width, b.Height
		right, bottom := b.X+b.Width, b.Y+b.Height
		switch {
		case h.west():
			w = max(lim.MinBoxSize, b.Width-d.X)
			x = right - w
		case h.east():
			w = max(lim.MinBoxSize, b.Width+d.X)
		}
		switch {
		case h.north():
			ht = max(lim.MinBoxSize, b.Height-d.Y)
			y = bottom - ht
		case h.south():
			ht = max(lim.MinBoxSize, b.Height+d.Y)
		}
		if !h.west() && !h.east() && !h.north() && !h.south() {
			return document.Patch{}, false
		}
		return document.Patch{X: &x, Y: &y, Width: &w, Height: &ht}, true
	}
	return document.Patch{}, false
}
