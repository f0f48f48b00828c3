package collab

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/pagemark/internal/engine"
)

var (
	ErrUnknownType    = errors.New("unknown message type")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Dispatch applies one client message to the engine.
func Dispatch(e *engine.Engine, msg *Message) (engine.Action, error) {
	switch msg.Type {
	case TypeSync:
		return engine.ActionNone, nil

	case TypePointerDown, TypePointerMove, TypePointerUp:
		var p PointerPayload
		if err := decode(msg, &p); err != nil {
			return engine.ActionNone, err
		}
		switch msg.Type {
		case TypePointerDown:
			e.PointerDown(p.X, p.Y)
		case TypePointerMove:
			e.PointerMove(p.X, p.Y)
		default:
			e.PointerUp(p.X, p.Y)
		}
		return engine.ActionNone, nil

	case TypeKeyDown:
		var k engine.Key
		if err := decode(msg, &k); err != nil {
			return engine.ActionNone, err
		}
		return e.KeyDown(k), nil

	case TypeToolSelect:
		var p ToolPayload
		if err := decode(msg, &p); err != nil {
			return engine.ActionNone, err
		}
		return engine.ActionNone, e.SelectTool(p.Tool)

	case TypeToolOptions:
		// Fields left out of the payload keep their current values
		opts := e.ToolOptions()
		if err := decode(msg, &opts); err != nil {
			return engine.ActionNone, err
		}
		e.SetToolOptions(opts)
		return engine.ActionNone, nil

	case TypeTextCommit:
		var p TextPayload
		if err := decode(msg, &p); err != nil {
			return engine.ActionNone, err
		}
		id := p.ID
		if id == 0 {
			id = e.Editing()
		}
		e.CommitText(id, p.Content)
		return engine.ActionNone, nil

	case TypeUndo:
		e.Undo()
		return engine.ActionUndo, nil

	case TypeRedo:
		e.Redo()
		return engine.ActionRedo, nil

	case TypeSelectionDelete:
		var p DeletePayload
		if len(msg.Payload) > 0 {
			if err := decode(msg, &p); err != nil {
				return engine.ActionNone, err
			}
		}
		if p.ID != 0 {
			e.Delete(p.ID)
		} else {
			e.DeleteSelected()
		}
		return engine.ActionDelete, nil

	case TypeSelectionClear:
		e.ClearSelection()
		return engine.ActionNone, nil

	case TypePageClear:
		e.ClearPage()
		return engine.ActionNone, nil

	case TypeClearAll:
		e.ClearAll()
		return engine.ActionNone, nil

	case TypeViewZoom:
		var p ZoomPayload
		if err := decode(msg, &p); err != nil {
			return engine.ActionNone, err
		}
		switch p.Direction {
		case "in":
			e.ZoomIn()
		case "out":
			e.ZoomOut()
		default:
			return engine.ActionNone, fmt.Errorf("%w: zoom direction %q", ErrInvalidPayload, p.Direction)
		}
		return engine.ActionNone, nil

	case TypeViewScale:
		var p ScalePayload
		if err := decode(msg, &p); err != nil {
			return engine.ActionNone, err
		}
		if p.Scale <= 0 {
			return engine.ActionNone, fmt.Errorf("%w: scale must be positive", ErrInvalidPayload)
		}
		e.SetScale(p.Scale)
		return engine.ActionNone, nil

	case TypeViewOrigin:
		var p PointerPayload
		if err := decode(msg, &p); err != nil {
			return engine.ActionNone, err
		}
		e.SetViewOrigin(p.X, p.Y)
		return engine.ActionNone, nil

	case TypePageSet:
		var p PagePayload
		if err := decode(msg, &p); err != nil {
			return engine.ActionNone, err
		}
		e.SetPage(p.Page)
		return engine.ActionNone, nil

	default:
		return engine.ActionNone, fmt.Errorf("%w: %s", ErrUnknownType, msg.Type)
	}
}

func decode(msg *Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidPayload, msg.Type, err)
	}
	return nil
}

func renderMessage(e *engine.Engine, action engine.Action, seq int64) *Message {
	payload, _ := json.Marshal(RenderPayload{
		Commands: e.DrawCommands(),
		State:    e.State(),
		Action:   action,
	})
	return &Message{Type: TypeRender, Seq: seq, Payload: payload}
}

func errorMessage(err error, seq int64) *Message {
	payload, _ := json.Marshal(ErrorPayload{Message: err.Error()})
	return &Message{Type: TypeError, Seq: seq, Payload: payload}
}
