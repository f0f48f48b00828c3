package engine

import (
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/geom"
)

type Tool string

const (
	ToolSelect    Tool = "select"
	ToolText      Tool = "text"
	ToolRect      Tool = "rect"
	ToolCircle    Tool = "circle"
	ToolLine      Tool = "line"
	ToolArrow     Tool = "arrow"
	ToolHighlight Tool = "highlight"
	ToolWhiteout  Tool = "whiteout"
	ToolDraw      Tool = "draw"
	ToolSignature Tool = "signature"
	ToolImage     Tool = "image"
)

var ErrUnknownTool = errors.New("unknown tool")

func (t Tool) valid() bool {
	switch t {
	case ToolSelect, ToolText, ToolRect, ToolCircle, ToolLine, ToolArrow,
		ToolHighlight, ToolWhiteout, ToolDraw, ToolSignature, ToolImage:
		return true
	}
	return false
}

type Mode string

const (
	ModeIdle     Mode = "idle"
	ModePlacing  Mode = "placing"
	ModePressed  Mode = "pressed"
	ModeDragging Mode = "dragging"
	ModeResizing Mode = "resizing"
	ModeDrawing  Mode = "drawing"
)

// gesture is the state of one pointer interaction. A new value replaces the
// old one on every transition; the zero value is idle.
type gesture struct {
	mode   Mode
	page   int
	id     document.ID
	handle Handle

	pressView geom.Point       // pointer at press, view space
	pressDoc  geom.Point       // pointer at press, document space
	offset    geom.Point       // pointer minus overlay anchor at press
	origin    document.Overlay // overlay as it was at press

	path []geom.Point
}

func (g gesture) active() bool { return g.mode != "" }

// Key is a keyboard event as reported by the host.
type Key struct {
	Name  string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Shift bool   `json:"shift"`
}

// Action is what a key press did, for hosts that must follow up.
type Action string

const (
	ActionNone   Action = ""
	ActionUndo   Action = "undo"
	ActionRedo   Action = "redo"
	ActionDelete Action = "delete"
	ActionCancel Action = "cancel"
	ActionExport Action = "export"
)

// PointerDown starts a gesture at view position (x, y).
func (e *Engine) PointerDown(x, y float64) {
	if e.gesture.active() {
		e.cancelGesture()
	}
	view := geom.Point{X: x, Y: y}
	p := e.toDocument(view)

	switch e.tool {
	case ToolSelect:
		e.pressSelect(view, p)
	case ToolDraw:
		e.gesture = gesture{mode: ModeDrawing, page: e.page, pressView: view, pressDoc: p, path: []geom.Point{p}}
	default:
		e.place(p)
	}
}

func (e *Engine) pressSelect(view, p geom.Point) {
	if sel, ok := e.store.Find(e.page, e.selection); ok {
		if h, ok := HandleAt(sel, p, e.opts.HandleRadius/e.view.Scale); ok {
			e.editing = 0
			e.gesture = gesture{
				mode: ModeResizing, page: e.page, id: sel.OverlayID(), handle: h,
				pressView: view, pressDoc: p, origin: sel,
			}
			return
		}
	}

	id, ok := HitTest(e.store.Get(e.page), p, e.opts.HitSlop/e.view.Scale)
	if !ok {
		e.selection = 0
		e.editing = 0
		return
	}
	if e.editing != id {
		e.editing = 0
	}
	o, _ := e.store.Find(e.page, id)
	e.selection = id
	e.gesture = gesture{
		mode: ModePressed, page: e.page, id: id,
		pressView: view, pressDoc: p, offset: p.Sub(document.Anchor(o)), origin: o,
	}
}

// PointerMove advances the current gesture.
func (e *Engine) PointerMove(x, y float64) {
	view := geom.Point{X: x, Y: y}
	g := e.gesture

	switch g.mode {
	case ModePressed:
		if math.Abs(view.X-g.pressView.X) <= e.opts.DragThreshold &&
			math.Abs(view.Y-g.pressView.Y) <= e.opts.DragThreshold {
			return
		}
		g.mode = ModeDragging
		e.gesture = g
		e.drag(view)
	case ModeDragging:
		e.drag(view)
	case ModeResizing:
		d := e.toDocument(view).Sub(g.pressDoc)
		patch, ok := Resize(g.origin, g.handle, d, e.store.Limits())
		if !ok {
			return
		}
		e.update(g.id, patch)
	case ModeDrawing:
		g.path = append(g.path[:len(g.path):len(g.path)], e.toDocument(view))
		e.gesture = g
	}
}

func (e *Engine) drag(view geom.Point) {
	g := e.gesture
	target := e.toDocument(view).Sub(g.offset)
	d := target.Sub(document.Anchor(g.origin))
	e.update(g.id, document.Translate(g.origin, d))
}

// update applies an intermediate change. An overlay that vanished under
// the gesture ends it quietly.
func (e *Engine) update(id document.ID, p document.Patch) {
	if err := e.store.Update(e.gesture.page, id, p); err != nil {
		slog.Debug("drop stale gesture", "overlay", id, "error", err)
		e.gesture = gesture{}
	}
}

// PointerUp finishes the current gesture, committing it when it changed
// the document.
func (e *Engine) PointerUp(x, y float64) {
	g := e.gesture
	e.gesture = gesture{}

	switch g.mode {
	case ModePressed:
		switch g.origin.(type) {
		case *document.Text, *document.Signature:
			e.editing = g.id
		}
	case ModeDragging, ModeResizing:
		cur, ok := e.store.Find(g.page, g.id)
		if ok && !sameGeometry(cur, g.origin) {
			e.commit()
		}
	case ModeDrawing:
		// The release point is not recorded; only moves extend the path.
		if len(g.path) < 2 {
			return
		}
		e.add(&document.Drawing{Points: g.path, Color: e.tools.Draw.Color, Width: e.tools.Draw.Width}, false)
	}
}

// place creates the current tool's overlay centred or anchored at p.
func (e *Engine) place(p geom.Point) {
	t, s := e.tools.Text, e.tools.Shape
	var o document.Overlay
	switch e.tool {
	case ToolText:
		o = &document.Text{
			X: p.X, Y: p.Y, Content: document.PlaceholderText,
			Font: t.Font, Size: t.Size, Color: t.Color, Bold: t.Bold, Italic: t.Italic, Align: t.Align,
		}
	case ToolRect:
		o = &document.Rect{
			Box:    document.Box{X: p.X - 50, Y: p.Y - 25, Width: 100, Height: 50},
			Stroke: s.Stroke, StrokeWidth: s.StrokeWidth, Fill: s.Fill,
		}
	case ToolCircle:
		o = &document.Circle{X: p.X, Y: p.Y, Radius: 30, Stroke: s.Stroke, StrokeWidth: s.StrokeWidth, Fill: s.Fill}
	case ToolLine:
		o = &document.Line{Segment: document.Segment{X1: p.X - 50, Y1: p.Y, X2: p.X + 50, Y2: p.Y, Stroke: s.Stroke, StrokeWidth: s.StrokeWidth}}
	case ToolArrow:
		o = &document.Arrow{Segment: document.Segment{X1: p.X - 50, Y1: p.Y, X2: p.X + 50, Y2: p.Y, Stroke: s.Stroke, StrokeWidth: s.StrokeWidth}}
	case ToolHighlight:
		o = &document.Highlight{Box: document.Box{X: p.X - 60, Y: p.Y - 10, Width: 120, Height: 20}, Color: e.tools.Highlight}
	case ToolWhiteout:
		o = &document.Whiteout{Box: document.Box{X: p.X - 50, Y: p.Y - 10, Width: 100, Height: 20}}
	case ToolSignature:
		o = &document.Signature{X: p.X, Y: p.Y, Text: document.SignatureLabel, Color: document.SignatureColor}
	case ToolImage:
		if e.pending == nil {
			return
		}
		w, h := e.pending.fit()
		o = &document.Image{
			Box:   document.Box{X: p.X, Y: p.Y, Width: w, Height: h},
			Asset: e.pending.Asset, Format: e.pending.Format,
		}
		e.pending = nil
	default:
		return
	}
	e.add(o, true)
}

// add stores o on the current page and commits it. Placed overlays become
// the selection and hand control back to the select tool.
func (e *Engine) add(o document.Overlay, selectIt bool) (document.ID, bool) {
	id, err := e.store.Add(e.page, o)
	if err != nil {
		slog.Debug("drop overlay", "kind", o.Kind(), "error", err)
		return 0, false
	}
	e.commit()
	if selectIt {
		e.selection = id
		e.editing = 0
		e.tool = ToolSelect
	}
	return id, true
}

// KeyDown handles a keyboard shortcut and reports what it did.
func (e *Engine) KeyDown(k Key) Action {
	mod := k.Ctrl || k.Meta
	name := strings.ToLower(k.Name)
	switch {
	case mod && name == "z" && k.Shift:
		e.Redo()
		return ActionRedo
	case mod && name == "z":
		e.Undo()
		return ActionUndo
	case mod && name == "y":
		e.Redo()
		return ActionRedo
	case mod && name == "s":
		return ActionExport
	case mod:
		return ActionNone
	case name == "delete" || name == "backspace":
		if e.editing != 0 || e.selection == 0 {
			return ActionNone
		}
		e.DeleteSelected()
		return ActionDelete
	case name == "escape":
		e.Escape()
		return ActionCancel
	}
	return ActionNone
}

// Escape abandons any gesture, returns to the select tool and clears the
// selection.
func (e *Engine) Escape() {
	e.cancelGesture()
	e.tool = ToolSelect
	e.pending = nil
	e.selection = 0
	e.editing = 0
}

// cancelGesture puts the overlay under gesture back the way it was at
// press and forgets the gesture.
func (e *Engine) cancelGesture() {
	g := e.gesture
	e.gesture = gesture{}
	switch g.mode {
	case ModeDragging, ModeResizing:
		if err := e.store.Replace(g.page, g.origin); err != nil {
			slog.Debug("drop stale gesture", "overlay", g.id, "error", err)
		}
	}
}

func (e *Engine) toDocument(view geom.Point) geom.Point {
	p := ToDocument(view.X, view.Y, e.view.Origin, e.view.Scale)
	size := e.PageSize(e.page)
	return ClampToPage(p, size.Width, size.Height)
}

// sameGeometry reports whether a gesture left an overlay where it began.
func sameGeometry(a, b document.Overlay) bool {
	if Bounds(a) != Bounds(b) {
		return false
	}
	if da, ok := a.(*document.Drawing); ok {
		db := b.(*document.Drawing)
		return da.Points[0] == db.Points[0]
	}
	return true
}
