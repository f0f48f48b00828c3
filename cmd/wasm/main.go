//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/pagemark/internal/asset"
	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/engine"
	"github.com/inamate/pagemark/internal/export"
	"github.com/inamate/pagemark/internal/pdf"
)

var (
	eng    *engine.Engine
	assets = asset.NewLibrary()
	source []byte
)

func main() {
	eng = engine.NewEngine(engine.DefaultOptions())

	// Create the engine API object
	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadPDF", js.FuncOf(loadPDF))
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("setPage", js.FuncOf(setPage))
	api.Set("nextPage", js.FuncOf(func(js.Value, []js.Value) interface{} { eng.NextPage(); return nil }))
	api.Set("prevPage", js.FuncOf(func(js.Value, []js.Value) interface{} { eng.PrevPage(); return nil }))
	api.Set("setScale", js.FuncOf(setScale))
	api.Set("zoomIn", js.FuncOf(func(js.Value, []js.Value) interface{} { eng.ZoomIn(); return nil }))
	api.Set("zoomOut", js.FuncOf(func(js.Value, []js.Value) interface{} { eng.ZoomOut(); return nil }))
	api.Set("setViewOrigin", js.FuncOf(setViewOrigin))
	api.Set("selectTool", js.FuncOf(selectTool))
	api.Set("setToolOptions", js.FuncOf(setToolOptions))
	api.Set("setTextOptions", js.FuncOf(mergeOptions(func(o *document.ToolOptions) any { return &o.Text }, func(o document.ToolOptions) { eng.SetTextOptions(o.Text) })))
	api.Set("setShapeOptions", js.FuncOf(mergeOptions(func(o *document.ToolOptions) any { return &o.Shape }, func(o document.ToolOptions) { eng.SetShapeOptions(o.Shape) })))
	api.Set("setDrawOptions", js.FuncOf(mergeOptions(func(o *document.ToolOptions) any { return &o.Draw }, func(o document.ToolOptions) { eng.SetDrawOptions(o.Draw) })))
	api.Set("setHighlightColor", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return nil
		}
		eng.SetHighlightColor(args[0].String())
		return okResult()
	}))
	api.Set("addImage", js.FuncOf(addImage))
	api.Set("pointerDown", js.FuncOf(pointer(eng.PointerDown)))
	api.Set("pointerMove", js.FuncOf(pointer(eng.PointerMove)))
	api.Set("pointerUp", js.FuncOf(pointer(eng.PointerUp)))
	api.Set("keyDown", js.FuncOf(keyDown))
	api.Set("commitText", js.FuncOf(commitText))
	api.Set("setSelection", js.FuncOf(setSelection))
	api.Set("clearSelection", js.FuncOf(func(js.Value, []js.Value) interface{} { eng.ClearSelection(); return nil }))
	api.Set("deleteSelected", js.FuncOf(func(js.Value, []js.Value) interface{} { return js.ValueOf(eng.DeleteSelected()) }))
	api.Set("deleteOverlay", js.FuncOf(deleteOverlay))
	api.Set("clearPage", js.FuncOf(func(js.Value, []js.Value) interface{} { return js.ValueOf(eng.ClearPage()) }))
	api.Set("clearAll", js.FuncOf(func(js.Value, []js.Value) interface{} { return js.ValueOf(eng.ClearAll()) }))
	api.Set("undo", js.FuncOf(func(js.Value, []js.Value) interface{} { return js.ValueOf(eng.Undo()) }))
	api.Set("redo", js.FuncOf(func(js.Value, []js.Value) interface{} { return js.ValueOf(eng.Redo()) }))
	api.Set("exportPDF", js.FuncOf(exportPDF))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getState", js.FuncOf(getState))
	api.Set("exportFilename", js.FuncOf(exportFilename))

	// Register on global scope
	js.Global().Set("pagemarkEngine", api)

	// Signal that WASM is ready
	js.Global().Set("pagemarkWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func bytesArg(v js.Value) []byte {
	b := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(b, v)
	return b
}

// --- Command Handlers ---

// loadPDF takes the document bytes (Uint8Array) and sizes the pages from
// them. The bytes are kept for export.
func loadPDF(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing PDF bytes"})
	}
	data := bytesArg(args[0])
	sizes, err := pdf.Inspect(data)
	if err != nil {
		return errorResult(err)
	}
	pages := make([]engine.PageSize, len(sizes))
	for i, sz := range sizes {
		pages[i] = engine.PageSize{Width: sz.Width, Height: sz.Height}
	}
	source = data
	eng.LoadDocument(pages)
	return js.ValueOf(map[string]interface{}{"ok": true, "pages": len(pages)})
}

// loadDocument takes page sizes as JSON, for hosts that size pages
// themselves.
func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing pages JSON"})
	}
	var pages []engine.PageSize
	if err := json.Unmarshal([]byte(args[0].String()), &pages); err != nil {
		return errorResult(err)
	}
	source = nil
	eng.LoadDocument(pages)
	return okResult()
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	source = nil
	eng.LoadSample()
	return okResult()
}

func setPage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetPage(args[0].Int())
	return nil
}

func setScale(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Float() <= 0 {
		return js.ValueOf(map[string]interface{}{"error": "scale must be positive"})
	}
	eng.SetScale(args[0].Float())
	return okResult()
}

func setViewOrigin(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetViewOrigin(args[0].Float(), args[1].Float())
	return nil
}

func selectTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing tool"})
	}
	if err := eng.SelectTool(engine.Tool(args[0].String())); err != nil {
		return errorResult(err)
	}
	return okResult()
}

// setToolOptions merges a partial options object into the current ones.
func setToolOptions(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	opts := eng.ToolOptions()
	if err := json.Unmarshal([]byte(args[0].String()), &opts); err != nil {
		return errorResult(err)
	}
	eng.SetToolOptions(opts)
	return okResult()
}

// mergeOptions merges a partial JSON object into one group of the current
// tool options.
func mergeOptions(group func(*document.ToolOptions) any, apply func(document.ToolOptions)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			return nil
		}
		opts := eng.ToolOptions()
		if err := json.Unmarshal([]byte(args[0].String()), group(&opts)); err != nil {
			return errorResult(err)
		}
		apply(opts)
		return okResult()
	}
}

// addImage decodes image bytes and places them, or with a truthy second
// argument arms the image tool with them.
func addImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing image bytes"})
	}
	img, err := asset.Decode(bytesArg(args[0]))
	if err != nil {
		return errorResult(err)
	}
	ref := engine.ImageRef{Asset: img.ID, Format: img.Format, Width: float64(img.Width), Height: float64(img.Height)}

	var id document.ID
	if len(args) > 1 && args[1].Truthy() {
		err = eng.SetPendingImage(ref)
	} else {
		id, err = eng.InsertImage(ref)
	}
	if err != nil {
		return errorResult(err)
	}
	assets.Add(img)
	return js.ValueOf(map[string]interface{}{"asset": img.ID, "overlay": int(id)})
}

func pointer(fn func(x, y float64)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 2 {
			return nil
		}
		fn(args[0].Float(), args[1].Float())
		return nil
	}
}

// keyDown takes the key event as JSON and returns the action taken.
func keyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("")
	}
	var k engine.Key
	if err := json.Unmarshal([]byte(args[0].String()), &k); err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(string(eng.KeyDown(k)))
}

// commitText takes the overlay id and its edited content.
func commitText(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.CommitText(document.ID(args[0].Int()), args[1].String()))
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		eng.ClearSelection()
		return nil
	}
	return js.ValueOf(eng.SetSelection(document.ID(args[0].Int())))
}

func deleteOverlay(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.Delete(document.ID(args[0].Int())))
}

// exportPDF returns the annotated document as a Uint8Array.
func exportPDF(this js.Value, args []js.Value) interface{} {
	if source == nil {
		return js.ValueOf(map[string]interface{}{"error": "no PDF loaded"})
	}
	out, err := export.Export(pdf.NewWriter(), source, eng.Snapshot(), assets)
	if err != nil {
		return errorResult(err)
	}
	arr := js.Global().Get("Uint8Array").New(len(out))
	js.CopyBytesToJS(arr, out)
	return arr
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(0)
	}
	id, _ := eng.HitTest(args[0].Float(), args[1].Float())
	return js.ValueOf(int(id))
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetState())
}

func exportFilename(this js.Value, args []js.Value) interface{} {
	name := "document.pdf"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		name = args[0].String()
	}
	return js.ValueOf(export.Filename(name))
}
