// Package script replays recorded editing sessions. A script is a YAML
// list of steps, each doing one thing to the engine:
//
//	scale: 1
//	steps:
//	  - tool: rect
//	  - click: [200, 150]
//	  - drag: {from: [200, 150], to: [260, 180]}
//	  - options: {shape: {stroke: "#FF0000"}}
//	  - draw: [[10, 10], [40, 30], [80, 20]]
//	  - text: "Approved"
//	  - key: {key: z, ctrl: true}
//	  - image: {path: logo.png, at: [300, 400]}
//	  - overlay: {kind: whiteout, data: {x: 10, y: 10, width: 80, height: 20}}
//	  - page: 2
//	  - clear: page
//
// Pointer positions are view pixels, as a host would report them.
package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inamate/pagemark/internal/asset"
	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/engine"
)

var (
	ErrBadStep    = errors.New("script: bad step")
	ErrNotEditing = errors.New("script: no text overlay to edit")
)

type Script struct {
	Scale float64 `yaml:"scale,omitempty"`
	Steps []Step  `yaml:"steps"`
}

type Step struct {
	Page    int         `yaml:"page,omitempty"`
	Scale   float64     `yaml:"scale,omitempty"`
	Tool    string      `yaml:"tool,omitempty"`
	Options *yaml.Node  `yaml:"options,omitempty"`
	Click   []float64   `yaml:"click,omitempty"`
	Drag    *Drag       `yaml:"drag,omitempty"`
	Draw    [][]float64 `yaml:"draw,omitempty"`
	Key     *Key        `yaml:"key,omitempty"`
	Text    *string     `yaml:"text,omitempty"`
	Image   *Image      `yaml:"image,omitempty"`
	Overlay *yaml.Node  `yaml:"overlay,omitempty"`
	Clear   string      `yaml:"clear,omitempty"` // "page" or "all"
}

type Drag struct {
	From []float64 `yaml:"from"`
	To   []float64 `yaml:"to"`
}

type Key struct {
	Key   string `yaml:"key"`
	Ctrl  bool   `yaml:"ctrl"`
	Meta  bool   `yaml:"meta"`
	Shift bool   `yaml:"shift"`
}

// Image inserts a file. Without At it lands at the default spot.
type Image struct {
	Path string    `yaml:"path"`
	At   []float64 `yaml:"at,omitempty"`
}

func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	for i, st := range s.Steps {
		if n := st.actions(); n != 1 {
			return nil, fmt.Errorf("%w %d: want one action, got %d", ErrBadStep, i+1, n)
		}
	}
	return &s, nil
}

func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{
		st.Page != 0, st.Scale != 0, st.Tool != "", st.Options != nil,
		st.Click != nil, st.Drag != nil, st.Draw != nil, st.Key != nil,
		st.Text != nil, st.Image != nil, st.Overlay != nil, st.Clear != "",
	} {
		if set {
			n++
		}
	}
	return n
}

// Result summarises a replay.
type Result struct {
	Steps  int
	Export bool // a key step asked for export
}

// Runner replays scripts against an engine. Image paths are resolved in
// Files and decoded images are kept in Assets for export.
type Runner struct {
	Engine *engine.Engine
	Assets *asset.Library
	Files  fs.FS
}

func (r *Runner) Run(s *Script) (Result, error) {
	var res Result
	if s.Scale != 0 {
		if s.Scale < 0 {
			return res, fmt.Errorf("%w: scale %v", ErrBadStep, s.Scale)
		}
		r.Engine.SetScale(s.Scale)
	}
	for i, st := range s.Steps {
		action, err := r.step(st)
		if err != nil {
			return res, fmt.Errorf("step %d: %w", i+1, err)
		}
		if action == engine.ActionExport {
			res.Export = true
		}
		res.Steps++
	}
	return res, nil
}

func (r *Runner) step(st Step) (engine.Action, error) {
	e := r.Engine
	switch {
	case st.Page != 0:
		e.SetPage(st.Page)
	case st.Scale != 0:
		if st.Scale < 0 {
			return engine.ActionNone, fmt.Errorf("%w: scale %v", ErrBadStep, st.Scale)
		}
		e.SetScale(st.Scale)
	case st.Tool != "":
		return engine.ActionNone, e.SelectTool(engine.Tool(st.Tool))
	case st.Options != nil:
		opts := e.ToolOptions()
		if err := viaJSON(st.Options, &opts); err != nil {
			return engine.ActionNone, err
		}
		e.SetToolOptions(opts)
	case st.Click != nil:
		x, y, err := point(st.Click)
		if err != nil {
			return engine.ActionNone, err
		}
		e.PointerDown(x, y)
		e.PointerUp(x, y)
	case st.Drag != nil:
		return engine.ActionNone, r.drag(st.Drag)
	case st.Draw != nil:
		return engine.ActionNone, r.draw(st.Draw)
	case st.Key != nil:
		return e.KeyDown(engine.Key{Name: st.Key.Key, Ctrl: st.Key.Ctrl, Meta: st.Key.Meta, Shift: st.Key.Shift}), nil
	case st.Text != nil:
		id := e.Editing()
		if id == 0 {
			id = e.Selection()
			if !e.BeginEdit(id) {
				return engine.ActionNone, ErrNotEditing
			}
		}
		e.CommitText(id, *st.Text)
	case st.Image != nil:
		return engine.ActionNone, r.image(st.Image)
	case st.Overlay != nil:
		var env document.Envelope
		if err := viaJSON(st.Overlay, &env); err != nil {
			return engine.ActionNone, err
		}
		_, err := e.AddOverlay(env.Data)
		return engine.ActionNone, err
	case st.Clear == "page":
		e.ClearPage()
	case st.Clear == "all":
		e.ClearAll()
	default:
		return engine.ActionNone, fmt.Errorf("%w: clear %q", ErrBadStep, st.Clear)
	}
	return engine.ActionNone, nil
}

func (r *Runner) drag(d *Drag) error {
	x0, y0, err := point(d.From)
	if err != nil {
		return err
	}
	x1, y1, err := point(d.To)
	if err != nil {
		return err
	}
	e := r.Engine
	e.PointerDown(x0, y0)
	e.PointerMove((x0+x1)/2, (y0+y1)/2)
	e.PointerMove(x1, y1)
	e.PointerUp(x1, y1)
	return nil
}

// draw strokes a freehand path with the draw tool.
func (r *Runner) draw(points [][]float64) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: empty path", ErrBadStep)
	}
	e := r.Engine
	if err := e.SelectTool(engine.ToolDraw); err != nil {
		return err
	}
	for i, p := range points {
		x, y, err := point(p)
		if err != nil {
			e.Escape()
			return err
		}
		switch {
		case i == 0:
			e.PointerDown(x, y)
		default:
			e.PointerMove(x, y)
		}
		if i == len(points)-1 {
			e.PointerUp(x, y)
		}
	}
	return nil
}

func (r *Runner) image(img *Image) error {
	if r.Files == nil || r.Assets == nil {
		return fmt.Errorf("%w: images are not available", ErrBadStep)
	}
	data, err := fs.ReadFile(r.Files, img.Path)
	if err != nil {
		return err
	}
	decoded, err := asset.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", img.Path, err)
	}
	decoded.Name = img.Path
	r.Assets.Add(decoded)

	ref := engine.ImageRef{
		Asset:  decoded.ID,
		Format: decoded.Format,
		Width:  float64(decoded.Width),
		Height: float64(decoded.Height),
	}
	e := r.Engine
	if img.At == nil {
		_, err := e.InsertImage(ref)
		return err
	}
	x, y, err := point(img.At)
	if err != nil {
		return err
	}
	if err := e.SetPendingImage(ref); err != nil {
		return err
	}
	e.PointerDown(x, y)
	e.PointerUp(x, y)
	return nil
}

func point(p []float64) (float64, float64, error) {
	if len(p) != 2 {
		return 0, 0, fmt.Errorf("%w: point %v", ErrBadStep, p)
	}
	return p[0], p[1], nil
}

// viaJSON decodes a YAML node into a type that only carries JSON tags.
func viaJSON(node *yaml.Node, v any) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadStep, err)
	}
	return nil
}
