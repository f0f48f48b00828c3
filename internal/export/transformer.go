package export

import (
	"log/slog"

	"github.com/inamate/pagemark/internal/asset"
	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/geom"
)

// AssetResolver finds the decoded image behind an image overlay.
type AssetResolver interface {
	Lookup(id string) (*asset.Image, bool)
}

// Transform converts a page's overlays into primitives in the same order,
// flipping y so the origin is the bottom-left corner of a page of height
// pageHeight. Images whose asset cannot be resolved are skipped.
func Transform(overlays []document.Overlay, pageHeight float64, assets AssetResolver) []Primitive {
	flip := geom.FlipY(pageHeight)
	var out []Primitive
	for _, o := range overlays {
		out = append(out, transformOverlay(o, pageHeight, flip, assets)...)
	}
	return out
}

func transformOverlay(o document.Overlay, h float64, flip geom.Matrix2D, assets AssetResolver) []Primitive {
	src := Origin{Overlay: o.OverlayID()}
	switch v := o.(type) {
	case *document.Text:
		return []Primitive{TextPrim{
			Origin: src, X: v.X, Y: h - v.Y - v.Size,
			Text: v.Content, Font: v.Font, Size: v.Size, Bold: v.Bold, Italic: v.Italic,
			Align: v.Align, Color: document.ParseColor(v.Color),
		}}

	case *document.Signature:
		return []Primitive{TextPrim{
			Origin: src, X: v.X, Y: h - v.Y - document.SignatureSize,
			Text: v.Text, Font: SignatureFont, Size: document.SignatureSize, Italic: true,
			Align: document.AlignLeft, Color: document.ParseColor(v.Color),
		}}

	case *document.Rect:
		stroke := document.ParseColor(v.Stroke)
		return []Primitive{RectPrim{
			Origin: src, X: v.X, Y: h - v.Y - v.Height, Width: v.Width, Height: v.Height,
			Stroke: &stroke, StrokeWidth: v.StrokeWidth, Fill: optionalColor(v.Fill), Opacity: 1,
		}}

	case *document.Highlight:
		fill := document.ParseColor(v.Color)
		return []Primitive{RectPrim{
			Origin: src, X: v.X, Y: h - v.Y - v.Height, Width: v.Width, Height: v.Height,
			Fill: &fill, Opacity: document.HighlightOpacity,
		}}

	case *document.Whiteout:
		fill := document.White
		return []Primitive{RectPrim{
			Origin: src, X: v.X, Y: h - v.Y - v.Height, Width: v.Width, Height: v.Height,
			Fill: &fill, Opacity: 1,
		}}

	case *document.Circle:
		stroke := document.ParseColor(v.Stroke)
		return []Primitive{EllipsePrim{
			Origin: src, X: v.X, Y: h - v.Y, RX: v.Radius, RY: v.Radius,
			Stroke: &stroke, StrokeWidth: v.StrokeWidth, Fill: optionalColor(v.Fill),
		}}

	case *document.Line:
		return []Primitive{line(src, flip.Apply(v.Start()), flip.Apply(v.End()), v.StrokeWidth, document.ParseColor(v.Stroke), false)}

	case *document.Arrow:
		c := document.ParseColor(v.Stroke)
		a := geom.ArrowHead(v.X1, v.Y1, v.X2, v.Y2, v.StrokeWidth).Transform(flip)
		return []Primitive{
			line(src, a.Start, a.LineEnd, v.StrokeWidth, c, false),
			PolygonPrim{Origin: src, Points: []geom.Point{a.Tip, a.Left, a.Right}, Fill: c},
		}

	case *document.Drawing:
		c := document.ParseColor(v.Color)
		var out []Primitive
		for i := 1; i < len(v.Points); i++ {
			out = append(out, line(src, flip.Apply(v.Points[i-1]), flip.Apply(v.Points[i]), v.Width, c, true))
		}
		return out

	case *document.Image:
		var img *asset.Image
		ok := false
		if assets != nil {
			img, ok = assets.Lookup(v.Asset)
		}
		if !ok {
			slog.Warn("skip image", "overlay", v.ID, "asset", v.Asset, "error", "asset not found")
			return nil
		}
		return []Primitive{ImagePrim{
			Origin: src, X: v.X, Y: h - v.Y - v.Height, Width: v.Width, Height: v.Height,
			Data: img.Data, Format: img.Format,
		}}
	}
	return nil
}

func line(src Origin, a, b geom.Point, width float64, c document.RGB, round bool) LinePrim {
	return LinePrim{Origin: src, X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y, Width: width, Color: c, Round: round}
}

func optionalColor(s string) *document.RGB {
	if document.IsNone(s) {
		return nil
	}
	c := document.ParseColor(s)
	return &c
}
