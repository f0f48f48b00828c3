package engine

import (
	"fmt"

	"github.com/inamate/pagemark/internal/geom"
)

// Viewport maps between view space (host pixels) and document space
// (page units). Stored geometry is always in document space.
type Viewport struct {
	Origin geom.Point
	Scale  float64
}

// Matrix returns the document-to-view transform.
func (v Viewport) Matrix() geom.Matrix2D {
	mustScale(v.Scale)
	return geom.Translate(v.Origin.X, v.Origin.Y).Multiply(geom.Scale(v.Scale, v.Scale))
}

// ToDocument converts a view-space point relative to the page origin.
func ToDocument(px, py float64, origin geom.Point, scale float64) geom.Point {
	mustScale(scale)
	return geom.Point{X: (px - origin.X) / scale, Y: (py - origin.Y) / scale}
}

// ToView converts a document-space point to view space at scale.
func ToView(dx, dy, scale float64) geom.Point {
	mustScale(scale)
	return geom.Point{X: dx * scale, Y: dy * scale}
}

// ClampScale limits s to [lo, hi].
func ClampScale(s, lo, hi float64) float64 {
	mustScale(s)
	return min(max(s, lo), hi)
}

// ClampToPage keeps p inside a page of the given size. A zero size leaves
// that axis unbounded below the origin only.
func ClampToPage(p geom.Point, width, height float64) geom.Point {
	p.X = max(p.X, 0)
	p.Y = max(p.Y, 0)
	if width > 0 {
		p.X = min(p.X, width)
	}
	if height > 0 {
		p.Y = min(p.Y, height)
	}
	return p
}

func mustScale(s float64) {
	if !(s > 0) {
		panic(fmt.Sprintf("engine: non-positive scale %v", s))
	}
}
