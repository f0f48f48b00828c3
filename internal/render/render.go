// Package render rasterizes the overlay layer for previews and thumbnails.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/gogpu/gg"

	"github.com/inamate/pagemark/internal/asset"
	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/engine"
	"github.com/inamate/pagemark/internal/geom"
)

// ThumbnailScale is the zoom factor page thumbnails are drawn at.
const ThumbnailScale = 0.2

var ErrNoPage = errors.New("render: no such page")

// PageRenderer rasterizes a page of the source document at scale.
type PageRenderer interface {
	RenderPage(ctx context.Context, page int, scale float64) (image.Image, error)
}

// ImageSource resolves the asset behind an image command.
type ImageSource interface {
	Lookup(id string) (*asset.Image, bool)
}

// BlankRenderer draws every page as plain white paper of the right size.
type BlankRenderer struct {
	Sizes []engine.PageSize
}

func (r BlankRenderer) RenderPage(ctx context.Context, page int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 1 || page > len(r.Sizes) {
		return nil, fmt.Errorf("%w: %d", ErrNoPage, page)
	}
	size := r.Sizes[page-1]
	w := max(1, int(math.Ceil(size.Width*scale)))
	h := max(1, int(math.Ceil(size.Height*scale)))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img, nil
}

// Page renders page at scale with cmds drawn over it.
func Page(ctx context.Context, pr PageRenderer, page int, scale float64, cmds []engine.DrawCommand, images ImageSource) (image.Image, error) {
	backdrop, err := pr.RenderPage(ctx, page, scale)
	if err != nil {
		return nil, err
	}
	return Overlay(backdrop, cmds, images)
}

// Thumbnail renders a small copy of page with its overlays.
func Thumbnail(ctx context.Context, pr PageRenderer, page int, overlays []document.Overlay, images ImageSource) (image.Image, error) {
	return Page(ctx, pr, page, ThumbnailScale, engine.Compile(overlays, ThumbnailScale), images)
}

// Overlay draws cmds in order over a copy of backdrop.
func Overlay(backdrop image.Image, cmds []engine.DrawCommand, images ImageSource) (image.Image, error) {
	dc := gg.NewContextForImage(backdrop)
	defer dc.Close()

	for _, cmd := range cmds {
		if err := drawCommand(dc, cmd, images); err != nil {
			return nil, fmt.Errorf("draw %s %d: %w", cmd.Op, cmd.ObjectID, err)
		}
	}

	src := dc.Image()
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out, nil
}

// EncodePNG writes img as PNG through gg's encoder.
func EncodePNG(w io.Writer, img image.Image) error {
	dc := gg.NewContextForImage(img)
	defer dc.Close()
	return dc.EncodePNG(w)
}

func drawCommand(dc *gg.Context, cmd engine.DrawCommand, images ImageSource) error {
	m := geom.FromSlice(cmd.Transform)
	switch cmd.Op {
	case "path":
		return drawPath(dc, cmd, m)
	case "text":
		return drawText(dc, cmd, m)
	case "image":
		drawImage(dc, cmd, m, images)
	}
	return nil
}

func drawPath(dc *gg.Context, cmd engine.DrawCommand, m geom.Matrix2D) error {
	if len(cmd.Path) == 0 {
		return nil
	}
	trace := func() {
		for _, pc := range cmd.Path {
			a := pc.Args()
			switch pc.Verb() {
			case "M":
				x, y := m.TransformPoint(a[0], a[1])
				dc.MoveTo(x, y)
			case "L":
				x, y := m.TransformPoint(a[0], a[1])
				dc.LineTo(x, y)
			case "C":
				x1, y1 := m.TransformPoint(a[0], a[1])
				x2, y2 := m.TransformPoint(a[2], a[3])
				x, y := m.TransformPoint(a[4], a[5])
				dc.CubicTo(x1, y1, x2, y2, x, y)
			case "Z":
				dc.ClosePath()
			}
		}
	}

	alpha := opacity(cmd.Opacity)
	if cmd.Fill != "" {
		trace()
		setColor(dc, cmd.Fill, alpha)
		if err := dc.Fill(); err != nil {
			return err
		}
	}
	if cmd.Stroke != "" && cmd.StrokeWidth > 0 {
		trace()
		setColor(dc, cmd.Stroke, alpha)
		dc.SetLineWidth(cmd.StrokeWidth * m.ScaleFactor())
		if cmd.LineCap == "round" {
			dc.SetLineCap(gg.LineCapRound)
			dc.SetLineJoin(gg.LineJoinRound)
		} else {
			dc.SetLineCap(gg.LineCapButt)
			dc.SetLineJoin(gg.LineJoinMiter)
		}
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	return nil
}

func drawText(dc *gg.Context, cmd engine.DrawCommand, m geom.Matrix2D) error {
	if cmd.Text == "" || cmd.FontSize <= 0 {
		return nil
	}
	face, err := fonts.face(cmd.Font, cmd.Bold, cmd.Italic, cmd.FontSize*m.ScaleFactor())
	if err != nil {
		return err
	}
	dc.SetFont(face)
	setColor(dc, cmd.Fill, opacity(cmd.Opacity))
	x, y := m.TransformPoint(cmd.X, cmd.Y)
	dc.DrawStringAnchored(cmd.Text, x, y, document.Align(cmd.Align).Factor(), 0)
	return nil
}

// drawImage skips images whose asset is gone; the placeholder outline is
// still drawn so the overlay stays visible.
func drawImage(dc *gg.Context, cmd engine.DrawCommand, m geom.Matrix2D, images ImageSource) {
	r := m.TransformRect(geom.Rect{X: cmd.X, Y: cmd.Y, Width: cmd.ImageWidth, Height: cmd.ImageHeight})
	var img *asset.Image
	ok := false
	if images != nil {
		img, ok = images.Lookup(cmd.ImageAssetID)
	}
	if !ok || img.Pixels == nil {
		dc.SetHexColor("#9CA3AF")
		dc.SetLineWidth(1)
		dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
		dc.Stroke()
		return
	}
	dc.DrawImageEx(gg.ImageBufFromImage(img.Pixels), gg.DrawImageOptions{
		X:         r.X,
		Y:         r.Y,
		DstWidth:  r.Width,
		DstHeight: r.Height,
		Opacity:   opacity(cmd.Opacity),
	})
}

func setColor(dc *gg.Context, hex string, alpha float64) {
	c := gg.Hex(hex)
	dc.SetRGBA(c.R, c.G, c.B, c.A*alpha)
}

// opacity treats an unset value as opaque.
func opacity(v float64) float64 {
	if v <= 0 || v > 1 {
		return 1
	}
	return v
}
