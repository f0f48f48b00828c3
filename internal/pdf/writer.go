package pdf

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/export"
)

// Writer copies a source PDF page by page and paints primitives over each
// page. Primitives are collected by Draw and rendered by Serialize, so a
// failed export leaves nothing half written.
type Writer struct {
	source  []byte
	sizes   []PageSize
	pending map[int][]export.Primitive
}

func NewWriter() *Writer {
	return &Writer{}
}

// Open loads the source document and returns its page count.
func (w *Writer) Open(data []byte) (int, error) {
	sizes, err := Inspect(data)
	if err != nil {
		return 0, err
	}
	w.source = data
	w.sizes = sizes
	w.pending = make(map[int][]export.Primitive)
	return len(sizes), nil
}

func (w *Writer) PageSize(page int) (float64, float64, error) {
	if page < 1 || page > len(w.sizes) {
		return 0, 0, fmt.Errorf("%w: %d of %d", ErrInvalidPage, page, len(w.sizes))
	}
	s := w.sizes[page-1]
	return s.Width, s.Height, nil
}

// Draw queues p for page. Primitives the writer cannot paint are rejected
// here so the caller can skip them.
func (w *Writer) Draw(page int, p export.Primitive) error {
	if w.source == nil {
		return ErrNoDocument
	}
	if page < 1 || page > len(w.sizes) {
		return fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}
	if img, ok := p.(export.ImagePrim); ok {
		if _, ok := imageType(img.Format); !ok {
			return fmt.Errorf("unsupported image format %q", img.Format)
		}
		if len(img.Data) == 0 {
			return fmt.Errorf("image %d has no data", img.Overlay)
		}
	}
	w.pending[page] = append(w.pending[page], p)
	return nil
}

// Serialize writes the source pages with their primitives on top.
func (w *Writer) Serialize() (out []byte, err error) {
	if w.source == nil {
		return nil, ErrNoDocument
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("import pages: %v", r)
		}
	}()

	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(w.source))

	for i, size := range w.sizes {
		page := i + 1
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: size.Width, Ht: size.Height})
		tpl := importer.ImportPageFromStream(pdf, &rs, page, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, size.Width, size.Height)

		c := canvas{pdf: pdf, height: size.Height}
		for _, p := range w.pending[page] {
			c.draw(p)
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// canvas paints primitives on the current fpdf page. fpdf measures from
// the top-left corner, so every y is flipped back.
type canvas struct {
	pdf    *fpdf.Fpdf
	height float64
}

func (c canvas) y(v float64) float64 { return c.height - v }

func (c canvas) draw(p export.Primitive) {
	switch v := p.(type) {
	case export.TextPrim:
		c.text(v)
	case export.RectPrim:
		c.rect(v)
	case export.EllipsePrim:
		c.ellipse(v)
	case export.LinePrim:
		c.line(v)
	case export.PolygonPrim:
		c.polygon(v)
	case export.ImagePrim:
		c.image(v)
	}
}

func (c canvas) text(t export.TextPrim) {
	c.pdf.SetFont(coreFamily(t.Font), fontStyle(t.Bold, t.Italic), t.Size)
	c.pdf.SetTextColor(t.Color.Bytes())
	s := encodeText(t.Text)
	x := t.X - c.pdf.GetStringWidth(s)*t.Align.Factor()
	c.pdf.Text(x, c.y(t.Y), s)
}

func (c canvas) rect(r export.RectPrim) {
	style := c.paint(r.Stroke, r.StrokeWidth, r.Fill)
	if style == "" {
		return
	}
	c.withAlpha(r.Opacity, func() {
		c.pdf.Rect(r.X, c.y(r.Y+r.Height), r.Width, r.Height, style)
	})
}

func (c canvas) ellipse(e export.EllipsePrim) {
	style := c.paint(e.Stroke, e.StrokeWidth, e.Fill)
	if style == "" {
		return
	}
	c.pdf.Ellipse(e.X, c.y(e.Y), e.RX, e.RY, 0, style)
}

func (c canvas) line(l export.LinePrim) {
	c.pdf.SetDrawColor(l.Color.Bytes())
	c.pdf.SetLineWidth(l.Width)
	if l.Round {
		c.pdf.SetLineCapStyle("round")
		defer c.pdf.SetLineCapStyle("butt")
	}
	c.pdf.Line(l.X1, c.y(l.Y1), l.X2, c.y(l.Y2))
}

func (c canvas) polygon(p export.PolygonPrim) {
	pts := make([]fpdf.PointType, len(p.Points))
	for i, pt := range p.Points {
		pts[i] = fpdf.PointType{X: pt.X, Y: c.y(pt.Y)}
	}
	c.pdf.SetFillColor(p.Fill.Bytes())
	c.pdf.Polygon(pts, "F")
}

func (c canvas) image(img export.ImagePrim) {
	typ, _ := imageType(img.Format)
	name := fmt.Sprintf("overlay-%d", img.Overlay)
	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: typ}
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if !c.pdf.Ok() {
		slog.Warn("skip image", "overlay", img.Overlay, "error", c.pdf.Error())
		c.pdf.ClearError()
		return
	}
	c.pdf.ImageOptions(name, img.X, c.y(img.Y+img.Height), img.Width, img.Height, false, opts, 0, "")
}

// paint sets the stroke and fill state and returns the fpdf style string,
// or "" when there is nothing to paint.
func (c canvas) paint(stroke *document.RGB, width float64, fill *document.RGB) string {
	style := ""
	if stroke != nil && width > 0 {
		c.pdf.SetDrawColor(stroke.Bytes())
		c.pdf.SetLineWidth(width)
		style += "D"
	}
	if fill != nil {
		c.pdf.SetFillColor(fill.Bytes())
		style = "F" + style
	}
	return style
}

func (c canvas) withAlpha(alpha float64, fn func()) {
	if alpha <= 0 || alpha >= 1 {
		fn()
		return
	}
	c.pdf.SetAlpha(alpha, "Normal")
	fn()
	c.pdf.SetAlpha(1, "Normal")
}
