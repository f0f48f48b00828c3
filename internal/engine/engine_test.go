package engine

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/geom"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(DefaultOptions())
	e.LoadDocument([]PageSize{{Width: 612, Height: 792}, {Width: 612, Height: 792}})
	return e
}

func click(e *Engine, x, y float64) {
	e.PointerDown(x, y)
	e.PointerUp(x, y)
}

func drag(e *Engine, x0, y0, x1, y1 float64) {
	e.PointerDown(x0, y0)
	e.PointerMove((x0+x1)/2, (y0+y1)/2)
	e.PointerMove(x1, y1)
	e.PointerUp(x1, y1)
}

func onlyOverlay(t *testing.T, e *Engine) document.Overlay {
	t.Helper()
	list := e.Overlays(e.Page())
	if len(list) != 1 {
		t.Fatalf("page %d has %d overlays, want 1", e.Page(), len(list))
	}
	return list[0]
}

func TestPlaceRectSelectsAndReturnsToSelect(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SelectTool(ToolRect); err != nil {
		t.Fatal(err)
	}
	if e.Mode() != ModePlacing {
		t.Errorf("Mode = %q, want placing", e.Mode())
	}
	click(e, 200, 200)

	r := onlyOverlay(t, e).(*document.Rect)
	if diff := cmp.Diff(document.Box{X: 150, Y: 175, Width: 100, Height: 50}, r.Box); diff != "" {
		t.Errorf("placed box mismatch (-want +got):\n%s", diff)
	}
	if e.Selection() != r.ID {
		t.Errorf("Selection = %d, want %d", e.Selection(), r.ID)
	}
	if e.Tool() != ToolSelect {
		t.Errorf("Tool = %q, want select", e.Tool())
	}

	if !e.Undo() {
		t.Fatal("first operation is not undoable")
	}
	if n := len(e.Overlays(1)); n != 0 {
		t.Errorf("after undo: %d overlays", n)
	}
}

func TestPlacementDefaults(t *testing.T) {
	tests := []struct {
		tool Tool
		want document.Overlay
	}{
		{ToolCircle, &document.Circle{X: 200, Y: 200, Radius: 30, Stroke: "#000000", StrokeWidth: 2, Fill: "transparent"}},
		{ToolArrow, &document.Arrow{Segment: document.Segment{X1: 150, Y1: 200, X2: 250, Y2: 200, Stroke: "#000000", StrokeWidth: 2}}},
		{ToolHighlight, &document.Highlight{Box: document.Box{X: 140, Y: 190, Width: 120, Height: 20}, Color: "#FFFF00"}},
		{ToolWhiteout, &document.Whiteout{Box: document.Box{X: 150, Y: 190, Width: 100, Height: 20}}},
		{ToolSignature, &document.Signature{X: 200, Y: 200, Text: "Signature", Color: "#000080"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.tool), func(t *testing.T) {
			e := newTestEngine(t)
			e.SelectTool(tt.tool)
			click(e, 200, 200)
			got := onlyOverlay(t, e)
			want := tt.want.Clone()
			if diff := cmp.Diff(want, got, cmp.FilterPath(func(p cmp.Path) bool {
				return p.Last().String() == ".ID"
			}, cmp.Ignore())); diff != "" {
				t.Errorf("placed overlay mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGroupOptionSetters(t *testing.T) {
	e := newTestEngine(t)
	e.SetShapeOptions(document.ShapeOptions{Stroke: "#FF0000", Fill: "#00FF00", StrokeWidth: 4})
	e.SetHighlightColor("#87CEEB")
	e.SetDrawOptions(document.DrawOptions{Color: "#0000FF"})
	e.SetTextOptions(document.TextOptions{Font: "Comic Sans", Size: 20})

	want := document.DefaultToolOptions()
	want.Shape = document.ShapeOptions{Stroke: "#FF0000", Fill: "#00FF00", StrokeWidth: 4}
	want.Highlight = "#87CEEB"
	want.Draw.Color = "#0000FF"
	want.Text.Size = 20
	if diff := cmp.Diff(want, e.ToolOptions()); diff != "" {
		t.Errorf("tool options mismatch (-want +got):\n%s", diff)
	}

	e.SelectTool(ToolCircle)
	click(e, 200, 200)
	c := onlyOverlay(t, e).(*document.Circle)
	if c.Stroke != "#FF0000" || c.Fill != "#00FF00" || c.StrokeWidth != 4 {
		t.Errorf("circle did not pick up shape options: %+v", c)
	}
}

func TestDragNeedsThreshold(t *testing.T) {
	e := newTestEngine(t)
	e.SelectTool(ToolRect)
	click(e, 200, 200)

	e.PointerDown(160, 180)
	e.PointerMove(161, 181)
	if e.Mode() != ModePressed {
		t.Fatalf("Mode after small move = %q, want pressed", e.Mode())
	}
	e.PointerMove(170, 190)
	if e.Mode() != ModeDragging {
		t.Fatalf("Mode after large move = %q, want dragging", e.Mode())
	}
	e.PointerUp(170, 190)

	r := onlyOverlay(t, e).(*document.Rect)
	if r.X != 160 || r.Y != 185 {
		t.Errorf("dragged to (%v, %v), want (160, 185)", r.X, r.Y)
	}

	e.Undo()
	r = onlyOverlay(t, e).(*document.Rect)
	if r.X != 150 || r.Y != 175 {
		t.Errorf("undo drag: at (%v, %v), want (150, 175)", r.X, r.Y)
	}
}

func TestDragLineMovesBothEndpoints(t *testing.T) {
	e := newTestEngine(t)
	e.SelectTool(ToolLine)
	click(e, 200, 200)
	drag(e, 200, 200, 220, 230)

	l := onlyOverlay(t, e).(*document.Line)
	want := document.Segment{X1: 170, Y1: 230, X2: 270, Y2: 230, Stroke: "#000000", StrokeWidth: 2}
	if diff := cmp.Diff(want, l.Segment); diff != "" {
		t.Errorf("segment mismatch (-want +got):\n%s", diff)
	}
}

func TestResizeClampsAndHoldsOppositeEdge(t *testing.T) {
	e := newTestEngine(t)
	e.SelectTool(ToolRect)
	click(e, 200, 200)

	e.PointerDown(150, 175) // nw grip
	if e.Mode() != ModeResizing {
		t.Fatalf("Mode = %q, want resizing", e.Mode())
	}
	e.PointerMove(300, 300)
	e.PointerUp(300, 300)

	r := onlyOverlay(t, e).(*document.Rect)
	want := document.Box{X: 230, Y: 205, Width: 20, Height: 20}
	if diff := cmp.Diff(want, r.Box); diff != "" {
		t.Errorf("resized box mismatch (-want +got):\n%s", diff)
	}
}

func TestResizeCircle(t *testing.T) {
	e := newTestEngine(t)
	e.SelectTool(ToolCircle)
	click(e, 200, 200)

	e.PointerDown(230, 230) // se grip at centre + r
	e.PointerMove(250, 240)
	e.PointerUp(250, 240)
	if r := onlyOverlay(t, e).(*document.Circle).Radius; r != 40 {
		t.Errorf("radius = %v, want 40", r)
	}

	e.PointerDown(240, 240)
	e.PointerMove(100, 100)
	e.PointerUp(100, 100)
	if r := onlyOverlay(t, e).(*document.Circle).Radius; r != 10 {
		t.Errorf("radius = %v, want clamp to 10", r)
	}
}

func TestZoomDoesNotChangeGeometry(t *testing.T) {
	e := newTestEngine(t)
	e.SetScale(2)
	e.SelectTool(ToolRect)
	click(e, 400, 400)
	before := e.Snapshot()

	e.ZoomIn()
	e.ZoomOut()
	e.SetScale(0.5)
	if diff := cmp.Diff(before, e.Snapshot()); diff != "" {
		t.Errorf("zoom changed geometry (-want +got):\n%s", diff)
	}
	r := onlyOverlay(t, e).(*document.Rect)
	if r.X != 150 || r.Y != 175 {
		t.Errorf("placed at scale 2 to (%v, %v), want (150, 175)", r.X, r.Y)
	}
}

func TestDragIsScaleIndependent(t *testing.T) {
	dragAt := func(scale float64) *Engine {
		e := newTestEngine(t)
		e.SelectTool(ToolRect)
		click(e, 200, 200)
		e.SetScale(scale)
		// (10, 10) in document units from a point inside the rect.
		drag(e, 160*scale, 180*scale, 170*scale, 190*scale)
		e.SetScale(1)
		return e
	}

	ref := dragAt(1)
	r := onlyOverlay(t, ref).(*document.Rect)
	if r.X != 160 || r.Y != 185 {
		t.Fatalf("dragged to (%v, %v), want (160, 185)", r.X, r.Y)
	}
	for _, scale := range []float64{0.5, 2, 3} {
		t.Run(fmt.Sprint(scale), func(t *testing.T) {
			if diff := cmp.Diff(ref.Snapshot(), dragAt(scale).Snapshot()); diff != "" {
				t.Errorf("drag at scale %v differs from scale 1 (-want +got):\n%s", scale, diff)
			}
		})
	}
}

func TestScaleIsClamped(t *testing.T) {
	e := newTestEngine(t)
	e.SetScale(10)
	if e.Scale() != 3 {
		t.Errorf("Scale = %v, want 3", e.Scale())
	}
	for range 10 {
		e.ZoomOut()
	}
	if e.Scale() != 0.5 {
		t.Errorf("Scale = %v, want 0.5", e.Scale())
	}
}

func TestNonPositiveScalePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("SetScale(0) did not panic")
		}
	}()
	newTestEngine(t).SetScale(0)
}

func TestFreehand(t *testing.T) {
	e := newTestEngine(t)
	e.SelectTool(ToolDraw)

	click(e, 50, 50)
	e.PointerDown(10, 10)
	e.PointerUp(60, 60)
	if n := len(e.Overlays(1)); n != 0 {
		t.Fatalf("single-point stroke created %d overlays", n)
	}

	e.PointerDown(10, 10)
	e.PointerMove(20, 15)
	if cmds := e.DrawCommands(); len(cmds) == 0 || cmds[len(cmds)-1].Role != RoleLive {
		t.Error("live stroke missing from draw commands")
	}
	e.PointerMove(30, 25)
	e.PointerUp(45, 40)

	d := onlyOverlay(t, e).(*document.Drawing)
	want := []geom.Point{{X: 10, Y: 10}, {X: 20, Y: 15}, {X: 30, Y: 25}}
	if diff := cmp.Diff(want, d.Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	if e.Tool() != ToolDraw {
		t.Errorf("Tool = %q, want draw to stay active", e.Tool())
	}
}

func TestDeleteUndoRestoresIdentityAndOrder(t *testing.T) {
	e := newTestEngine(t)
	for _, x := range []float64{100, 200, 300} {
		e.SelectTool(ToolWhiteout)
		click(e, x, 100)
	}
	before := e.Overlays(1)
	mid := before[1].OverlayID()

	if !e.Delete(mid) {
		t.Fatal("Delete returned false")
	}
	e.Undo()
	if diff := cmp.Diff(before, e.Overlays(1)); diff != "" {
		t.Errorf("undo delete mismatch (-want +got):\n%s", diff)
	}
}

func TestUndoTruncatesRedo(t *testing.T) {
	e := newTestEngine(t)
	for range 3 {
		e.SelectTool(ToolSignature)
		click(e, 100, 100)
	}
	for range 3 {
		e.Undo()
	}
	if n := len(e.Overlays(1)); n != 0 {
		t.Fatalf("after 3 undos: %d overlays", n)
	}
	if !e.CanRedo() {
		t.Fatal("CanRedo = false after undo")
	}
	e.SelectTool(ToolText)
	click(e, 10, 10)
	if e.CanRedo() {
		t.Error("new commit did not truncate redo")
	}
}

func TestEscapeRestoresGesture(t *testing.T) {
	e := newTestEngine(t)
	e.SelectTool(ToolRect)
	click(e, 200, 200)
	before := e.Snapshot()

	e.PointerDown(160, 180)
	e.PointerMove(260, 280)
	if act := e.KeyDown(Key{Name: "Escape"}); act != ActionCancel {
		t.Errorf("Escape action = %q", act)
	}
	if diff := cmp.Diff(before, e.Snapshot()); diff != "" {
		t.Errorf("escape did not restore (-want +got):\n%s", diff)
	}
	if e.Selection() != 0 || e.Mode() != ModeIdle {
		t.Errorf("after escape: selection %d mode %q", e.Selection(), e.Mode())
	}
}

func TestTextEditCommitsOnChangeOnly(t *testing.T) {
	e := newTestEngine(t)
	e.SelectTool(ToolText)
	click(e, 100, 100)
	id := e.Selection()

	click(e, 105, 105)
	if e.Editing() != id {
		t.Fatalf("Editing = %d, want %d", e.Editing(), id)
	}
	if act := e.KeyDown(Key{Name: "Delete"}); act != ActionNone {
		t.Errorf("Delete while editing = %q, want none", act)
	}
	if e.CommitText(id, document.PlaceholderText) {
		t.Error("unchanged text was committed")
	}

	e.BeginEdit(id)
	if !e.CommitText(id, "Approved") {
		t.Fatal("changed text not committed")
	}
	if got := onlyOverlay(t, e).(*document.Text).Content; got != "Approved" {
		t.Errorf("Content = %q", got)
	}
	e.Undo()
	if got := onlyOverlay(t, e).(*document.Text).Content; got != document.PlaceholderText {
		t.Errorf("Content after undo = %q", got)
	}
}

func TestTextCommitAfterPressElsewhere(t *testing.T) {
	tests := []struct {
		name  string
		leave func(e *Engine)
	}{
		{"empty canvas", func(e *Engine) { click(e, 500, 700) }},
		{"escape", func(e *Engine) { e.Escape() }},
		{"other tool", func(e *Engine) { e.SelectTool(ToolRect) }},
		{"other page", func(e *Engine) { e.NextPage() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			e.SelectTool(ToolText)
			click(e, 100, 100)
			id := e.Selection()
			if !e.BeginEdit(id) {
				t.Fatal("BeginEdit failed")
			}

			tt.leave(e)
			if e.Editing() != 0 {
				t.Errorf("Editing = %d after leaving, want 0", e.Editing())
			}
			if !e.CommitText(id, "Approved") {
				t.Fatal("edit lost after leaving the overlay")
			}
			o, ok := e.store.Find(1, id)
			if !ok {
				t.Fatal("text overlay gone")
			}
			if got := o.(*document.Text).Content; got != "Approved" {
				t.Errorf("Content = %q, want Approved", got)
			}
			if !e.Undo() {
				t.Fatal("text commit not undoable")
			}
		})
	}
}

func TestKeyShortcuts(t *testing.T) {
	e := newTestEngine(t)
	e.SelectTool(ToolWhiteout)
	click(e, 100, 100)

	tests := []struct {
		key  Key
		want Action
	}{
		{Key{Name: "z", Ctrl: true}, ActionUndo},
		{Key{Name: "Z", Meta: true, Shift: true}, ActionRedo},
		{Key{Name: "z", Ctrl: true}, ActionUndo},
		{Key{Name: "y", Ctrl: true}, ActionRedo},
		{Key{Name: "s", Ctrl: true}, ActionExport},
		{Key{Name: "q", Ctrl: true}, ActionNone},
	}
	for _, tt := range tests {
		if got := e.KeyDown(tt.key); got != tt.want {
			t.Errorf("KeyDown(%+v) = %q, want %q", tt.key, got, tt.want)
		}
	}
	if n := len(e.Overlays(1)); n != 1 {
		t.Fatalf("after undo/redo pairs: %d overlays", n)
	}

	e.SetSelection(e.Overlays(1)[0].OverlayID())
	if got := e.KeyDown(Key{Name: "Backspace"}); got != ActionDelete {
		t.Errorf("Backspace = %q, want delete", got)
	}
	if n := len(e.Overlays(1)); n != 0 {
		t.Errorf("after delete: %d overlays", n)
	}
}

func TestPageNavigationKeepsOverlaysPerPage(t *testing.T) {
	e := newTestEngine(t)
	e.SelectTool(ToolWhiteout)
	click(e, 100, 100)

	e.NextPage()
	e.NextPage()
	if e.Page() != 2 {
		t.Fatalf("Page = %d, want clamp to 2", e.Page())
	}
	if e.Selection() != 0 {
		t.Error("selection survived page change")
	}
	if n := len(e.Overlays(2)); n != 0 {
		t.Errorf("page 2 has %d overlays", n)
	}
	e.PrevPage()
	if n := len(e.Overlays(1)); n != 1 {
		t.Errorf("page 1 has %d overlays", n)
	}
}

func TestPointerClampedToPage(t *testing.T) {
	e := newTestEngine(t)
	e.SelectTool(ToolSignature)
	click(e, -40, 5000)
	s := onlyOverlay(t, e).(*document.Signature)
	if s.X != 0 || s.Y != 792 {
		t.Errorf("placed at (%v, %v), want (0, 792)", s.X, s.Y)
	}
}

func TestInsertImageKeepsAspect(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.InsertImage(ImageRef{Asset: "asset_1", Format: "png", Width: 400, Height: 100}); err != nil {
		t.Fatal(err)
	}
	img := onlyOverlay(t, e).(*document.Image)
	want := document.Box{X: 100, Y: 100, Width: 200, Height: 50}
	if diff := cmp.Diff(want, img.Box); diff != "" {
		t.Errorf("image box mismatch (-want +got):\n%s", diff)
	}

	if _, err := e.InsertImage(ImageRef{Width: 0, Height: 10}); err == nil {
		t.Error("zero-size image accepted")
	}
}

func TestPendingImagePlacedAtClick(t *testing.T) {
	e := newTestEngine(t)
	e.SetPendingImage(ImageRef{Asset: "asset_2", Format: "jpeg", Width: 100, Height: 100})
	click(e, 40, 60)
	img := onlyOverlay(t, e).(*document.Image)
	if img.X != 40 || img.Y != 60 || img.Width != 100 || img.Asset != "asset_2" {
		t.Errorf("image = %+v", img)
	}
	if e.State().PendingImage {
		t.Error("pending image not consumed")
	}
}

func TestClearAllIsOneStep(t *testing.T) {
	e := newTestEngine(t)
	e.SelectTool(ToolWhiteout)
	click(e, 100, 100)
	e.SetPage(2)
	e.SelectTool(ToolWhiteout)
	click(e, 100, 100)

	if n := e.ClearAll(); n != 2 {
		t.Fatalf("ClearAll = %d, want 2", n)
	}
	e.Undo()
	if e.Snapshot().Count() != 2 {
		t.Errorf("undo ClearAll restored %d overlays", e.Snapshot().Count())
	}
}
