package geom

import "math"

const (
	minArrowHead     = 12.0
	arrowHeadPerUnit = 5.0
	maxArrowHeadFrac = 0.9
	arrowWidthRatio  = 0.6
)

// Arrow is the derived outline of an arrow from Start to Tip. The shaft
// runs from Start to LineEnd; the head is the triangle Tip, Left, Right.
// Both the interactive preview and the exporter draw from this shape.
type Arrow struct {
	Start      Point
	LineEnd    Point
	Tip        Point
	Left       Point
	Right      Point
	HeadLength float64
	HeadWidth  float64
}

// ArrowHead derives the arrow geometry for a segment and stroke width. The
// head is five stroke widths long, at least 12 units, and never more than
// 90% of the segment; its half-width is 60% of its length.
func ArrowHead(x1, y1, x2, y2, strokeWidth float64) Arrow {
	length := math.Hypot(x2-x1, y2-y1)
	head := math.Min(math.Max(minArrowHead, strokeWidth*arrowHeadPerUnit), length*maxArrowHeadFrac)
	width := head * arrowWidthRatio

	angle := math.Atan2(y2-y1, x2-x1)
	cos, sin := math.Cos(angle), math.Sin(angle)
	baseX, baseY := x2-head*cos, y2-head*sin

	return Arrow{
		Start:      Point{X: x1, Y: y1},
		LineEnd:    Point{X: baseX, Y: baseY},
		Tip:        Point{X: x2, Y: y2},
		Left:       Point{X: baseX - width*sin, Y: baseY + width*cos},
		Right:      Point{X: baseX + width*sin, Y: baseY - width*cos},
		HeadLength: head,
		HeadWidth:  width,
	}
}

// Transform applies m to every point of the arrow.
func (a Arrow) Transform(m Matrix2D) Arrow {
	return Arrow{
		Start:      m.Apply(a.Start),
		LineEnd:    m.Apply(a.LineEnd),
		Tip:        m.Apply(a.Tip),
		Left:       m.Apply(a.Left),
		Right:      m.Apply(a.Right),
		HeadLength: a.HeadLength,
		HeadWidth:  a.HeadWidth,
	}
}
