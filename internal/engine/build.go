package engine

import (
	"github.com/inamate/pagemark/internal/geom"
)

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []interface{}

// Verb returns the segment's operator.
func (c PathCommand) Verb() string {
	if len(c) == 0 {
		return ""
	}
	op, _ := c[0].(string)
	return op
}

// Args returns the segment's numeric operands.
func (c PathCommand) Args() []float64 {
	if len(c) < 2 {
		return nil
	}
	out := make([]float64, len(c)-1)
	for i, v := range c[1:] {
		out[i] = toFloat64(v)
	}
	return out
}

// rectPath generates path commands for an axis-aligned rectangle.
func rectPath(r geom.Rect) []PathCommand {
	return []PathCommand{
		{"M", r.X, r.Y},
		{"L", r.X + r.Width, r.Y},
		{"L", r.X + r.Width, r.Y + r.Height},
		{"L", r.X, r.Y + r.Height},
		{"Z"},
	}
}

// ellipsePath generates path commands for an ellipse using bezier curves.
func ellipsePath(cx, cy, rx, ry float64) []PathCommand {
	// k = 4 * (sqrt(2) - 1) / 3
	k := 0.5522847498
	kx, ky := rx*k, ry*k

	return []PathCommand{
		{"M", cx + rx, cy},
		{"C", cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry},
		{"C", cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy},
		{"C", cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry},
		{"C", cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy},
		{"Z"},
	}
}

// polylinePath joins points with straight segments.
func polylinePath(pts ...geom.Point) []PathCommand {
	if len(pts) == 0 {
		return nil
	}
	path := make([]PathCommand, 0, len(pts))
	path = append(path, PathCommand{"M", pts[0].X, pts[0].Y})
	for _, p := range pts[1:] {
		path = append(path, PathCommand{"L", p.X, p.Y})
	}
	return path
}

func polygonPath(pts ...geom.Point) []PathCommand {
	path := polylinePath(pts...)
	if path == nil {
		return nil
	}
	return append(path, PathCommand{"Z"})
}

// toFloat64 converts an interface{} to float64.
func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
