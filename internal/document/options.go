package document

import "slices"

var Fonts = []string{"Arial", "Times New Roman", "Courier New", "Georgia", "Verdana"}

var Palette = []string{
	"#000000", "#FF0000", "#00FF00", "#0000FF", "#FFFF00",
	"#FF00FF", "#00FFFF", "#FFA500", "#800080", "#FFFFFF",
}

var HighlightColors = []string{"#FFFF00", "#00FF00", "#FF69B4", "#87CEEB", "#FFA500"}

type TextOptions struct {
	Font   string  `json:"font"`
	Size   float64 `json:"size"`
	Color  string  `json:"color"`
	Bold   bool    `json:"bold"`
	Italic bool    `json:"italic"`
	Align  Align   `json:"align"`
}

type ShapeOptions struct {
	Stroke      string  `json:"stroke"`
	Fill        string  `json:"fill"`
	StrokeWidth float64 `json:"strokeWidth"`
}

type DrawOptions struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// ToolOptions are the defaults new overlays are created with.
type ToolOptions struct {
	Text      TextOptions  `json:"text"`
	Shape     ShapeOptions `json:"shape"`
	Highlight string       `json:"highlight"`
	Draw      DrawOptions  `json:"draw"`
}

func DefaultToolOptions() ToolOptions {
	return ToolOptions{
		Text: TextOptions{
			Font:  "Arial",
			Size:  16,
			Color: "#000000",
			Align: AlignLeft,
		},
		Shape: ShapeOptions{
			Stroke:      "#000000",
			Fill:        Transparent,
			StrokeWidth: 2,
		},
		Highlight: "#FFFF00",
		Draw: DrawOptions{
			Color: "#000000",
			Width: 2,
		},
	}
}

// Normalize replaces unusable values with the defaults.
func (o ToolOptions) Normalize() ToolOptions {
	d := DefaultToolOptions()
	if !slices.Contains(Fonts, o.Text.Font) {
		o.Text.Font = d.Text.Font
	}
	if o.Text.Size <= 0 {
		o.Text.Size = d.Text.Size
	}
	if o.Text.Color == "" {
		o.Text.Color = d.Text.Color
	}
	switch o.Text.Align {
	case AlignLeft, AlignCenter, AlignRight:
	default:
		o.Text.Align = d.Text.Align
	}
	if o.Shape.Stroke == "" {
		o.Shape.Stroke = d.Shape.Stroke
	}
	if o.Shape.Fill == "" {
		o.Shape.Fill = d.Shape.Fill
	}
	if o.Shape.StrokeWidth <= 0 {
		o.Shape.StrokeWidth = d.Shape.StrokeWidth
	}
	if o.Highlight == "" {
		o.Highlight = d.Highlight
	}
	if o.Draw.Color == "" {
		o.Draw.Color = d.Draw.Color
	}
	if o.Draw.Width <= 0 {
		o.Draw.Width = d.Draw.Width
	}
	return o
}
