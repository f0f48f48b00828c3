package collab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/go-cmp/cmp"

	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/engine"
)

func newEngine() *engine.Engine {
	e := engine.NewEngine(engine.DefaultOptions())
	e.LoadDocument([]engine.PageSize{{Width: 612, Height: 792}, {Width: 612, Height: 792}})
	return e
}

func msg(t *testing.T, typ string, payload any) *Message {
	t.Helper()
	m := &Message{Type: typ}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		m.Payload = data
	}
	return m
}

func TestDispatchPlacesAndUndoes(t *testing.T) {
	e := newEngine()
	steps := []*Message{
		msg(t, TypeToolSelect, ToolPayload{Tool: engine.ToolRect}),
		msg(t, TypePointerDown, PointerPayload{X: 200, Y: 200}),
		msg(t, TypePointerUp, PointerPayload{X: 200, Y: 200}),
	}
	for _, m := range steps {
		if _, err := Dispatch(e, m); err != nil {
			t.Fatalf("%s: %v", m.Type, err)
		}
	}
	if n := len(e.Overlays(1)); n != 1 {
		t.Fatalf("overlays = %d, want 1", n)
	}

	action, err := Dispatch(e, msg(t, TypeKeyDown, engine.Key{Name: "z", Ctrl: true}))
	if err != nil {
		t.Fatal(err)
	}
	if action != engine.ActionUndo {
		t.Errorf("action = %q, want undo", action)
	}
	if n := len(e.Overlays(1)); n != 0 {
		t.Errorf("overlays after undo = %d, want 0", n)
	}

	if _, err := Dispatch(e, msg(t, TypeRedo, nil)); err != nil {
		t.Fatal(err)
	}
	if n := len(e.Overlays(1)); n != 1 {
		t.Errorf("overlays after redo = %d, want 1", n)
	}
}

func TestDispatchToolOptionsMerge(t *testing.T) {
	e := newEngine()
	before := e.ToolOptions()
	if _, err := Dispatch(e, msg(t, TypeToolOptions, map[string]any{"highlight": "#00FF00"})); err != nil {
		t.Fatal(err)
	}
	want := before
	want.Highlight = "#00FF00"
	if diff := cmp.Diff(want, e.ToolOptions()); diff != "" {
		t.Errorf("options (-want +got):\n%s", diff)
	}
}

func TestDispatchView(t *testing.T) {
	e := newEngine()
	if _, err := Dispatch(e, msg(t, TypeViewZoom, ZoomPayload{Direction: "in"})); err != nil {
		t.Fatal(err)
	}
	if got := e.Scale(); got < 1.19 || got > 1.21 {
		t.Errorf("scale = %v, want 1.2", got)
	}
	if _, err := Dispatch(e, msg(t, TypePageSet, PagePayload{Page: 2})); err != nil {
		t.Fatal(err)
	}
	if e.Page() != 2 {
		t.Errorf("page = %d, want 2", e.Page())
	}
}

func TestDispatchRejects(t *testing.T) {
	e := newEngine()
	tests := []struct {
		name string
		msg  *Message
		want error
	}{
		{"unknown type", msg(t, "object.transform", nil), ErrUnknownType},
		{"zero scale", msg(t, TypeViewScale, ScalePayload{Scale: 0}), ErrInvalidPayload},
		{"negative scale", msg(t, TypeViewScale, ScalePayload{Scale: -1}), ErrInvalidPayload},
		{"bad zoom", msg(t, TypeViewZoom, ZoomPayload{Direction: "sideways"}), ErrInvalidPayload},
		{"bad pointer", &Message{Type: TypePointerDown, Payload: json.RawMessage(`"x"`)}, ErrInvalidPayload},
		{"bad tool", msg(t, TypeToolSelect, ToolPayload{Tool: "lasso"}), engine.ErrUnknownTool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Dispatch(e, tt.msg); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if e.Scale() != 1 {
		t.Errorf("rejected messages changed scale to %v", e.Scale())
	}
}

func TestDispatchTextCommitAfterBlur(t *testing.T) {
	e := newEngine()
	e.SelectTool(engine.ToolText)
	e.PointerDown(100, 100)
	e.PointerUp(100, 100)
	id := e.Selection()
	e.BeginEdit(id)

	steps := []*Message{
		msg(t, TypePointerDown, PointerPayload{X: 500, Y: 700}),
		msg(t, TypePointerUp, PointerPayload{X: 500, Y: 700}),
		msg(t, TypeTextCommit, TextPayload{ID: id, Content: "Approved"}),
	}
	for _, m := range steps {
		if _, err := Dispatch(e, m); err != nil {
			t.Fatalf("%s: %v", m.Type, err)
		}
	}
	got := e.Overlays(1)[0].(*document.Text).Content
	if got != "Approved" {
		t.Errorf("Content = %q, want Approved", got)
	}
}

func TestDispatchDeleteByID(t *testing.T) {
	e := newEngine()
	id, err := e.AddOverlay(&document.Whiteout{Box: document.Box{X: 10, Y: 10, Width: 50, Height: 50}})
	if err != nil {
		t.Fatal(err)
	}
	e.ClearSelection()
	if _, err := Dispatch(e, msg(t, TypeSelectionDelete, DeletePayload{ID: id})); err != nil {
		t.Fatal(err)
	}
	if n := len(e.Overlays(1)); n != 0 {
		t.Errorf("overlays = %d, want 0", n)
	}
}

type lockedEngine struct {
	mu sync.Mutex
	e  *engine.Engine
}

func (l *lockedEngine) Do(fn func(e *engine.Engine)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.e)
}

func startHub(t *testing.T, target Target) (*httptest.Server, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(func(id string) (Target, error) {
		if id != "sess_1" {
			return nil, errors.New("no such session")
		}
		return target, nil
	})
	go hub.Run(ctx)

	n := 0
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		n++
		clientID := "client_" + string(rune('0'+n))
		mu.Unlock()
		c := NewClient(hub, conn, "sess_1", clientID)
		hub.Register(c)
		go c.WritePump(r.Context())
		c.ReadPump(r.Context())
	}))
	t.Cleanup(srv.Close)
	return srv, ctx
}

func dial(t *testing.T, ctx context.Context, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn, want string) Message {
	t.Helper()
	var m Message
	if err := wsjson.Read(ctx, conn, &m); err != nil {
		t.Fatalf("read %s: %v", want, err)
	}
	if m.Type != want {
		t.Fatalf("message type = %q (%s), want %q", m.Type, m.Payload, want)
	}
	return m
}

func TestHubRoundTrip(t *testing.T) {
	target := &lockedEngine{e: newEngine()}
	srv, ctx := startHub(t, target)
	conn := dial(t, ctx, srv)

	welcome := read(t, ctx, conn, TypeWelcome)
	var wp WelcomePayload
	json.Unmarshal(welcome.Payload, &wp)
	if wp.SessionID != "sess_1" || wp.ClientID == "" {
		t.Errorf("welcome = %+v", wp)
	}
	read(t, ctx, conn, TypeRender)

	for i, m := range []*Message{
		msg(t, TypeToolSelect, ToolPayload{Tool: engine.ToolHighlight}),
		msg(t, TypePointerDown, PointerPayload{X: 100, Y: 100}),
		msg(t, TypePointerUp, PointerPayload{X: 100, Y: 100}),
	} {
		m.Seq = int64(i + 1)
		if err := wsjson.Write(ctx, conn, m); err != nil {
			t.Fatal(err)
		}
	}
	var last RenderPayload
	for seq := int64(1); seq <= 3; seq++ {
		m := read(t, ctx, conn, TypeRender)
		if m.Seq != seq {
			t.Errorf("seq = %d, want %d", m.Seq, seq)
		}
		json.Unmarshal(m.Payload, &last)
	}
	if len(last.State.Overlays) != 1 || last.State.Overlays[0].Kind != document.KindHighlight {
		t.Errorf("state overlays = %+v", last.State.Overlays)
	}
	if len(last.Commands) == 0 || last.Commands[0].Opacity != document.HighlightOpacity {
		t.Errorf("commands = %+v", last.Commands)
	}

	wsjson.Write(ctx, conn, msg(t, TypeViewScale, ScalePayload{Scale: 0}))
	read(t, ctx, conn, TypeError)
}

func TestHubReplacesConnection(t *testing.T) {
	srv, ctx := startHub(t, &lockedEngine{e: newEngine()})

	first := dial(t, ctx, srv)
	read(t, ctx, first, TypeWelcome)
	read(t, ctx, first, TypeRender)

	second := dial(t, ctx, srv)
	read(t, ctx, second, TypeWelcome)
	read(t, ctx, second, TypeRender)

	read(t, ctx, first, TypeError)
	var m Message
	if err := wsjson.Read(ctx, first, &m); err == nil {
		t.Errorf("replaced connection still open, got %q", m.Type)
	}

	wsjson.Write(ctx, second, msg(t, TypeSync, nil))
	read(t, ctx, second, TypeRender)
}
