package engine

import (
	"encoding/json"

	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/geom"
)

// Roles of commands that are not overlays themselves.
const (
	RoleLive      = "live"
	RoleSelection = "selection"
	RoleHandle    = "handle"
)

const (
	selectionColor = "#3B82F6"
	selectionWidth = 1.5 // view px
	handleSize     = 8.0 // view px
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// Geometry is in document space; Transform maps it to view space.
type DrawCommand struct {
	Op           string        `json:"op"`                     // "path", "text", "image"
	ObjectID     document.ID   `json:"objectId,omitempty"`     // For hit correlation
	Role         string        `json:"role,omitempty"`         // Empty for overlay content
	Transform    []float64     `json:"transform,omitempty"`    // [a, b, c, d, e, f] affine matrix
	Path         []PathCommand `json:"path,omitempty"`         // Path data for "path" ops
	Fill         string        `json:"fill,omitempty"`         // Fill color
	Stroke       string        `json:"stroke,omitempty"`       // Stroke color
	StrokeWidth  float64       `json:"strokeWidth,omitempty"`  // Stroke width
	LineCap      string        `json:"lineCap,omitempty"`      // "round" for freehand strokes
	Opacity      float64       `json:"opacity,omitempty"`      // Global alpha
	Text         string        `json:"text,omitempty"`         // Text for "text" ops
	Font         string        `json:"font,omitempty"`         // Font family
	FontSize     float64       `json:"fontSize,omitempty"`     // Font size
	Bold         bool          `json:"bold,omitempty"`         //
	Italic       bool          `json:"italic,omitempty"`       //
	Align        string        `json:"align,omitempty"`        // left, center, right about X
	X            float64       `json:"x,omitempty"`            // Text anchor / image left
	Y            float64       `json:"y,omitempty"`            // Text baseline / image top
	ImageAssetID string        `json:"imageAssetId,omitempty"` // Asset ID for image lookup
	ImageWidth   float64       `json:"imageWidth,omitempty"`   // Placed width
	ImageHeight  float64       `json:"imageHeight,omitempty"`  // Placed height
}

// Compile generates the draw commands for a page's overlays at scale.
// Commands are in painter's order (back to front).
func Compile(overlays []document.Overlay, scale float64) []DrawCommand {
	xf := geom.Scale(scale, scale).ToSlice()
	var commands []DrawCommand
	for _, o := range overlays {
		commands = append(commands, compileOverlay(o, xf)...)
	}
	return commands
}

func compileOverlay(o document.Overlay, xf []float64) []DrawCommand {
	id := o.OverlayID()
	switch v := o.(type) {
	case *document.Text:
		return []DrawCommand{{
			Op: "text", ObjectID: id, Transform: xf, Opacity: 1,
			Text: v.Content, Font: v.Font, FontSize: v.Size, Bold: v.Bold, Italic: v.Italic,
			Align: string(v.Align), Fill: v.Color, X: v.X, Y: v.Y + v.Size,
		}}
	case *document.Signature:
		return []DrawCommand{{
			Op: "text", ObjectID: id, Transform: xf, Opacity: 1,
			Text: v.Text, Font: "cursive", FontSize: document.SignatureSize, Italic: true,
			Align: string(document.AlignLeft), Fill: v.Color, X: v.X, Y: v.Y + document.SignatureSize,
		}}
	case *document.Rect:
		return []DrawCommand{{
			Op: "path", ObjectID: id, Transform: xf, Opacity: 1,
			Path: rectPath(v.Rect()), Fill: fillOf(v.Fill), Stroke: v.Stroke, StrokeWidth: v.StrokeWidth,
		}}
	case *document.Highlight:
		return []DrawCommand{{
			Op: "path", ObjectID: id, Transform: xf, Opacity: document.HighlightOpacity,
			Path: rectPath(v.Rect()), Fill: v.Color,
		}}
	case *document.Whiteout:
		return []DrawCommand{{
			Op: "path", ObjectID: id, Transform: xf, Opacity: 1,
			Path: rectPath(v.Rect()), Fill: document.WhiteoutColor,
		}}
	case *document.Circle:
		return []DrawCommand{{
			Op: "path", ObjectID: id, Transform: xf, Opacity: 1,
			Path: ellipsePath(v.X, v.Y, v.Radius, v.Radius), Fill: fillOf(v.Fill), Stroke: v.Stroke, StrokeWidth: v.StrokeWidth,
		}}
	case *document.Line:
		return []DrawCommand{{
			Op: "path", ObjectID: id, Transform: xf, Opacity: 1,
			Path: polylinePath(v.Start(), v.End()), Stroke: v.Stroke, StrokeWidth: v.StrokeWidth,
		}}
	case *document.Arrow:
		a := geom.ArrowHead(v.X1, v.Y1, v.X2, v.Y2, v.StrokeWidth)
		return []DrawCommand{
			{
				Op: "path", ObjectID: id, Transform: xf, Opacity: 1,
				Path: polylinePath(a.Start, a.LineEnd), Stroke: v.Stroke, StrokeWidth: v.StrokeWidth,
			},
			{
				Op: "path", ObjectID: id, Transform: xf, Opacity: 1,
				Path: polygonPath(a.Tip, a.Left, a.Right), Fill: v.Stroke,
			},
		}
	case *document.Drawing:
		return []DrawCommand{{
			Op: "path", ObjectID: id, Transform: xf, Opacity: 1,
			Path: polylinePath(v.Points...), Stroke: v.Color, StrokeWidth: v.Width, LineCap: "round",
		}}
	case *document.Image:
		return []DrawCommand{{
			Op: "image", ObjectID: id, Transform: xf, Opacity: 1,
			ImageAssetID: v.Asset, X: v.X, Y: v.Y, ImageWidth: v.Width, ImageHeight: v.Height,
		}}
	}
	return nil
}

// liveStroke draws the in-progress freehand path.
func liveStroke(path []geom.Point, opts document.DrawOptions, scale float64) DrawCommand {
	return DrawCommand{
		Op: "path", Role: RoleLive, Transform: geom.Scale(scale, scale).ToSlice(), Opacity: 1,
		Path: polylinePath(path...), Stroke: opts.Color, StrokeWidth: opts.Width, LineCap: "round",
	}
}

// selectionDecor outlines the selected overlay and draws its grips. Sizes
// are divided by scale so they stay constant on screen.
func selectionDecor(o document.Overlay, scale float64) []DrawCommand {
	xf := geom.Scale(scale, scale).ToSlice()
	id := o.OverlayID()
	pad := 2 / scale
	commands := []DrawCommand{{
		Op: "path", ObjectID: id, Role: RoleSelection, Transform: xf, Opacity: 1,
		Path: rectPath(Bounds(o).Inset(pad)), Stroke: selectionColor, StrokeWidth: selectionWidth / scale,
	}}
	half := handleSize / scale / 2
	for _, h := range Handles(o) {
		commands = append(commands, DrawCommand{
			Op: "path", ObjectID: id, Role: RoleHandle, Transform: xf, Opacity: 1,
			Path:   rectPath(geom.Rect{X: h.At.X - half, Y: h.At.Y - half, Width: 2 * half, Height: 2 * half}),
			Fill:   "#FFFFFF",
			Stroke: selectionColor, StrokeWidth: selectionWidth / scale,
		})
	}
	return commands
}

func fillOf(s string) string {
	if document.IsNone(s) {
		return ""
	}
	return s
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
