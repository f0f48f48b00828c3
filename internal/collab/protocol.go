package collab

import (
	"encoding/json"

	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"
	TypeSync    = "sync"

	// Engine output
	TypeRender = "render"

	// Pointer and keyboard
	TypePointerDown = "pointer.down"
	TypePointerMove = "pointer.move"
	TypePointerUp   = "pointer.up"
	TypeKeyDown     = "key.down"

	// Tools
	TypeToolSelect  = "tool.select"
	TypeToolOptions = "tool.options"
	TypeTextCommit  = "text.commit"

	// Editing
	TypeUndo            = "history.undo"
	TypeRedo            = "history.redo"
	TypeSelectionDelete = "selection.delete"
	TypeSelectionClear  = "selection.clear"
	TypePageClear       = "page.clear"
	TypeClearAll        = "clear.all"

	// View
	TypeViewZoom   = "view.zoom"
	TypeViewScale  = "view.scale"
	TypeViewOrigin = "view.origin"
	TypePageSet    = "page.set"
)

type WelcomePayload struct {
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// PointerPayload is a pointer position in view pixels.
type PointerPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ToolPayload struct {
	Tool engine.Tool `json:"tool"`
}

// TextPayload carries the edited content of a text or signature overlay;
// a zero id means the one being edited.
type TextPayload struct {
	ID      document.ID `json:"id,omitempty"`
	Content string      `json:"content"`
}

// DeletePayload names the overlay to delete; zero means the selection.
type DeletePayload struct {
	ID document.ID `json:"id,omitempty"`
}

type ZoomPayload struct {
	Direction string `json:"direction"` // "in" or "out"
}

type ScalePayload struct {
	Scale float64 `json:"scale"`
}

type PagePayload struct {
	Page int `json:"page"`
}

// RenderPayload answers every accepted message: the overlay layer to draw,
// the engine state, and the key action the host should follow up on.
type RenderPayload struct {
	Commands []engine.DrawCommand `json:"commands"`
	State    engine.State         `json:"state"`
	Action   engine.Action        `json:"action,omitempty"`
}
