package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/geom"
	"github.com/inamate/pagemark/internal/history"
)

// PageSize is a page's extent in document units.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ImageRef describes a decoded image waiting to be placed.
type ImageRef struct {
	Asset  string  `json:"asset"`
	Format string  `json:"format"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

const maxInsertWidth = 200.0

// fit returns the placed size: at most maxInsertWidth wide, aspect kept.
func (r ImageRef) fit() (float64, float64) {
	w := min(maxInsertWidth, r.Width)
	return w, w * r.Height / r.Width
}

var ErrInvalidImage = errors.New("image has no size")

// Engine is the annotation engine for one open document. It owns the
// overlays, the undo log, the selection and the gesture in progress. It is
// not safe for concurrent use; hosts serialise calls.
type Engine struct {
	opts Options

	store   *document.Store
	history *history.Log

	pages []PageSize
	page  int
	view  Viewport

	tool      Tool
	tools     document.ToolOptions
	pending   *ImageRef
	selection document.ID
	editing   document.ID

	gesture gesture
}

// NewEngine creates a new engine instance with no document loaded.
func NewEngine(opts Options) *Engine {
	opts = opts.normalize()
	e := &Engine{
		opts:  opts,
		tools: document.DefaultToolOptions(),
	}
	e.LoadDocument(nil)
	return e
}

// --- Commands (host → engine) ---

// LoadDocument resets the engine for a document with the given pages.
// Overlays, history, selection and tool state are discarded.
func (e *Engine) LoadDocument(pages []PageSize) {
	e.store = document.NewStore(e.opts.Limits)
	e.history = history.New(e.opts.HistoryLimit)
	e.history.Reset(e.store.Snapshot())
	e.pages = append([]PageSize(nil), pages...)
	e.page = 1
	e.view = Viewport{Scale: e.opts.DefaultScale}
	e.tool = ToolSelect
	e.pending = nil
	e.selection = 0
	e.editing = 0
	e.gesture = gesture{}
}

// LoadSample loads the built-in sample overlays on a single Letter page.
func (e *Engine) LoadSample() {
	e.LoadDocument([]PageSize{{Width: 612, Height: 792}})
	e.store = document.NewSampleStore(e.opts.Limits)
	e.history.Reset(e.store.Snapshot())
}

// SetPage moves to page n, clamped to the document. Any gesture and the
// selection are dropped.
func (e *Engine) SetPage(n int) {
	e.cancelGesture()
	n = max(n, 1)
	if len(e.pages) > 0 {
		n = min(n, len(e.pages))
	}
	if n != e.page {
		e.selection = 0
		e.editing = 0
	}
	e.page = n
}

func (e *Engine) NextPage() { e.SetPage(e.page + 1) }
func (e *Engine) PrevPage() { e.SetPage(e.page - 1) }

// SetScale sets the zoom factor, clamped to the configured range.
func (e *Engine) SetScale(s float64) {
	e.view.Scale = ClampScale(s, e.opts.MinScale, e.opts.MaxScale)
}

func (e *Engine) ZoomIn()  { e.SetScale(e.view.Scale + e.opts.ZoomStep) }
func (e *Engine) ZoomOut() { e.SetScale(e.view.Scale - e.opts.ZoomStep) }

// SetViewOrigin sets where the page's top-left corner sits in view space.
func (e *Engine) SetViewOrigin(x, y float64) {
	e.view.Origin = geom.Point{X: x, Y: y}
}

// SelectTool switches tools, abandoning any gesture. Any tool but select
// ends inline editing.
func (e *Engine) SelectTool(t Tool) error {
	if !t.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTool, t)
	}
	e.cancelGesture()
	if t != ToolImage {
		e.pending = nil
	}
	if t != ToolSelect {
		e.editing = 0
	}
	e.tool = t
	return nil
}

func (e *Engine) SetToolOptions(o document.ToolOptions) {
	e.tools = o.Normalize()
}

func (e *Engine) SetTextOptions(o document.TextOptions) {
	e.tools.Text = o
	e.tools = e.tools.Normalize()
}

func (e *Engine) SetShapeOptions(o document.ShapeOptions) {
	e.tools.Shape = o
	e.tools = e.tools.Normalize()
}

func (e *Engine) SetHighlightColor(c string) {
	e.tools.Highlight = c
	e.tools = e.tools.Normalize()
}

func (e *Engine) SetDrawOptions(o document.DrawOptions) {
	e.tools.Draw = o
	e.tools = e.tools.Normalize()
}

// SetPendingImage arms the image tool: the next click places img there.
func (e *Engine) SetPendingImage(img ImageRef) error {
	if img.Width <= 0 || img.Height <= 0 {
		return ErrInvalidImage
	}
	e.cancelGesture()
	e.pending = &img
	e.tool = ToolImage
	return nil
}

// InsertImage places img at (100, 100) on the current page.
func (e *Engine) InsertImage(img ImageRef) (document.ID, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return 0, ErrInvalidImage
	}
	e.cancelGesture()
	w, h := img.fit()
	id, _ := e.add(&document.Image{
		Box:   document.Box{X: 100, Y: 100, Width: w, Height: h},
		Asset: img.Asset, Format: img.Format,
	}, true)
	return id, nil
}

// AddOverlay stores o on the current page as a committed step.
func (e *Engine) AddOverlay(o document.Overlay) (document.ID, error) {
	e.cancelGesture()
	id, err := e.store.Add(e.page, o)
	if err != nil {
		return 0, err
	}
	e.commit()
	return id, nil
}

// SetSelection selects id if it is on the current page; zero clears.
func (e *Engine) SetSelection(id document.ID) bool {
	if id == 0 {
		e.ClearSelection()
		return true
	}
	if _, ok := e.store.Find(e.page, id); !ok {
		return false
	}
	e.selection = id
	if e.editing != id {
		e.editing = 0
	}
	return true
}

func (e *Engine) ClearSelection() {
	e.selection = 0
	e.editing = 0
}

// BeginEdit starts inline editing of a text or signature overlay.
func (e *Engine) BeginEdit(id document.ID) bool {
	o, ok := e.store.Find(e.page, id)
	if !ok {
		return false
	}
	switch o.(type) {
	case *document.Text, *document.Signature:
		e.selection = id
		e.editing = id
		return true
	}
	return false
}

// CommitText writes the edited content of text or signature id and ends
// its editing. The id is explicit because hosts report the commit on blur,
// after a press elsewhere may already have moved editing on. A change is
// recorded as one history step.
func (e *Engine) CommitText(id document.ID, content string) bool {
	if e.editing == id {
		e.editing = 0
	}
	page, ok := e.store.Locate(id)
	if !ok {
		return false
	}
	o, _ := e.store.Find(page, id)
	var cur string
	switch v := o.(type) {
	case *document.Text:
		cur = v.Content
	case *document.Signature:
		cur = v.Text
	default:
		return false
	}
	if cur == content {
		return false
	}
	if err := e.store.Update(page, id, document.Patch{Content: &content}); err != nil {
		return false
	}
	e.commit()
	return true
}

// Delete removes id from the current page.
func (e *Engine) Delete(id document.ID) bool {
	e.cancelGesture()
	if !e.store.Remove(e.page, id) {
		return false
	}
	if e.selection == id {
		e.selection = 0
	}
	if e.editing == id {
		e.editing = 0
	}
	e.commit()
	return true
}

func (e *Engine) DeleteSelected() bool {
	if e.selection == 0 {
		return false
	}
	return e.Delete(e.selection)
}

// ClearPage removes every overlay on the current page as one step.
func (e *Engine) ClearPage() int {
	e.cancelGesture()
	n := e.store.ClearPage(e.page)
	if n > 0 {
		e.ClearSelection()
		e.commit()
	}
	return n
}

// ClearAll removes every overlay in the document as one step.
func (e *Engine) ClearAll() int {
	e.cancelGesture()
	n := e.store.Count()
	if n > 0 {
		e.store.Clear()
		e.ClearSelection()
		e.commit()
	}
	return n
}

func (e *Engine) Undo() bool {
	e.cancelGesture()
	snap, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(snap)
	return true
}

func (e *Engine) Redo() bool {
	e.cancelGesture()
	snap, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(snap)
	return true
}

func (e *Engine) restore(snap document.Snapshot) {
	e.store.Restore(snap)
	e.editing = 0
	if _, ok := e.store.Find(e.page, e.selection); !ok {
		e.selection = 0
	}
}

func (e *Engine) commit() {
	e.history.Push(e.store.Snapshot())
}

// --- Queries (host ← engine) ---

// DrawCommands returns the overlay layer of the current page, followed by
// the live freehand stroke and the selection decorations.
func (e *Engine) DrawCommands() []DrawCommand {
	commands := Compile(e.store.Get(e.page), e.view.Scale)
	if e.gesture.mode == ModeDrawing && e.gesture.page == e.page {
		commands = append(commands, liveStroke(e.gesture.path, e.tools.Draw, e.view.Scale))
	}
	if sel, ok := e.store.Find(e.page, e.selection); ok {
		commands = append(commands, selectionDecor(sel, e.view.Scale)...)
	}
	return commands
}

// Render returns the draw commands as JSON.
func (e *Engine) Render() string {
	result, _ := DrawCommandsToJSON(e.DrawCommands())
	return result
}

// PageDrawCommands compiles another page's overlays without decorations,
// for thumbnails.
func (e *Engine) PageDrawCommands(page int, scale float64) []DrawCommand {
	return Compile(e.store.Get(page), scale)
}

// HitTest returns the topmost overlay at a view position on the current page.
func (e *Engine) HitTest(x, y float64) (document.ID, bool) {
	p := ToDocument(x, y, e.view.Origin, e.view.Scale)
	return HitTest(e.store.Get(e.page), p, e.opts.HitSlop/e.view.Scale)
}

// Mode reports the interaction state.
func (e *Engine) Mode() Mode {
	if e.gesture.active() {
		return e.gesture.mode
	}
	if e.tool != ToolSelect && e.tool != ToolDraw {
		return ModePlacing
	}
	return ModeIdle
}

func (e *Engine) Tool() Tool                        { return e.tool }
func (e *Engine) ToolOptions() document.ToolOptions { return e.tools }
func (e *Engine) Page() int                         { return e.page }
func (e *Engine) PageCount() int                    { return len(e.pages) }
func (e *Engine) Scale() float64                    { return e.view.Scale }
func (e *Engine) Selection() document.ID            { return e.selection }
func (e *Engine) Editing() document.ID              { return e.editing }
func (e *Engine) CanUndo() bool                     { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool                     { return e.history.CanRedo() }

// PageSize returns the size of page n, or zero if unknown.
func (e *Engine) PageSize(n int) PageSize {
	if n < 1 || n > len(e.pages) {
		return PageSize{}
	}
	return e.pages[n-1]
}

// Overlays returns copies of page n's overlays in z-order.
func (e *Engine) Overlays(page int) []document.Overlay {
	return e.store.Get(page)
}

// Snapshot returns a deep copy of every page's overlays.
func (e *Engine) Snapshot() document.Snapshot {
	return e.store.Snapshot()
}

// State is the engine state a host needs to draw its chrome.
type State struct {
	Page         int                  `json:"page"`
	PageCount    int                  `json:"pageCount"`
	PageSize     PageSize             `json:"pageSize"`
	Scale        float64              `json:"scale"`
	Tool         Tool                 `json:"tool"`
	Mode         Mode                 `json:"mode"`
	Selection    document.ID          `json:"selection,omitempty"`
	Editing      document.ID          `json:"editing,omitempty"`
	CanUndo      bool                 `json:"canUndo"`
	CanRedo      bool                 `json:"canRedo"`
	PendingImage bool                 `json:"pendingImage"`
	Options      document.ToolOptions `json:"options"`
	Overlays     []document.Envelope  `json:"overlays"`
}

func (e *Engine) State() State {
	return State{
		Page:         e.page,
		PageCount:    len(e.pages),
		PageSize:     e.PageSize(e.page),
		Scale:        e.view.Scale,
		Tool:         e.tool,
		Mode:         e.Mode(),
		Selection:    e.selection,
		Editing:      e.editing,
		CanUndo:      e.history.CanUndo(),
		CanRedo:      e.history.CanRedo(),
		PendingImage: e.pending != nil,
		Options:      e.tools,
		Overlays:     document.Envelopes(e.store.Get(e.page)),
	}
}

// GetState returns the state as JSON.
func (e *Engine) GetState() string {
	data, _ := json.Marshal(e.State())
	return string(data)
}
