//go:build js && wasm

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"syscall/js"

	"github.com/sketchify/sketchify/backend-go/internal/editor"
	"github.com/sketchify/sketchify/backend-go/internal/render"
	"github.com/sketchify/sketchify/backend-go/internal/scene"
	"github.com/sketchify/sketchify/backend-go/internal/session"
)

var (
	ed     *editor.Editor
	raster *render.Rasterizer
)

func main() {
	fonts, err := render.NewFontBook()
	if err != nil {
		js.Global().Get("console").Call("error", "sketchify: load fonts: "+err.Error())
		return
	}
	ed = editor.New(editor.Options{Measurer: fonts})
	raster = render.NewRasterizer(fonts)

	// Create the engine API object
	sketchifyEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	sketchifyEngine.Set("handleEvent", js.FuncOf(handleEvent))
	sketchifyEngine.Set("command", js.FuncOf(command))
	sketchifyEngine.Set("undo", js.FuncOf(simple(session.CmdUndo)))
	sketchifyEngine.Set("redo", js.FuncOf(simple(session.CmdRedo)))
	sketchifyEngine.Set("clear", js.FuncOf(simple(session.CmdClear)))
	sketchifyEngine.Set("zoomIn", js.FuncOf(simple(session.CmdZoomIn)))
	sketchifyEngine.Set("zoomOut", js.FuncOf(simple(session.CmdZoomOut)))
	sketchifyEngine.Set("deleteSelection", js.FuncOf(simple(session.CmdDelete)))
	sketchifyEngine.Set("loadSampleScene", js.FuncOf(simple(session.CmdLoadSample)))
	sketchifyEngine.Set("setState", js.FuncOf(setState))
	sketchifyEngine.Set("loadScene", js.FuncOf(loadScene))

	// --- Queries (frontend ← engine) ---
	sketchifyEngine.Set("render", js.FuncOf(renderCommands))
	sketchifyEngine.Set("getFrame", js.FuncOf(getFrame))
	sketchifyEngine.Set("getScene", js.FuncOf(getScene))
	sketchifyEngine.Set("getState", js.FuncOf(getState))
	sketchifyEngine.Set("getView", js.FuncOf(getView))
	sketchifyEngine.Set("exportPNG", js.FuncOf(exportPNG))

	// Register on global scope
	js.Global().Set("sketchifyEngine", sketchifyEngine)

	// Signal that WASM is ready
	js.Global().Set("sketchifyWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func toJSON(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(string(data))
}

func frame() interface{} {
	return toJSON(session.NewFrame(ed))
}

// --- Command Handlers ---

// handleEvent applies one input event and returns the new frame as JSON,
// or null when nothing changed.
func handleEvent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing event JSON"})
	}

	var ev editor.Event
	if err := json.Unmarshal([]byte(args[0].String()), &ev); err != nil {
		return errorResult(err)
	}
	if ed.HandleEvent(ev) == 0 {
		return js.Null()
	}
	return frame()
}

func command(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing command JSON"})
	}

	var cmd session.Command
	if err := json.Unmarshal([]byte(args[0].String()), &cmd); err != nil {
		return errorResult(err)
	}
	if _, err := cmd.Apply(ed); err != nil {
		return errorResult(err)
	}
	return frame()
}

func simple(name string) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if _, err := (session.Command{Name: name}).Apply(ed); err != nil {
			return errorResult(err)
		}
		return frame()
	}
}

func setState(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing state JSON"})
	}

	st := ed.State()
	if err := json.Unmarshal([]byte(args[0].String()), &st); err != nil {
		return errorResult(err)
	}
	if _, err := ed.SetState(st); err != nil {
		return errorResult(err)
	}
	return frame()
}

func loadScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing scene JSON"})
	}

	s := scene.New()
	if err := json.Unmarshal([]byte(args[0].String()), s); err != nil {
		return errorResult(err)
	}
	if err := s.Validate(); err != nil {
		return errorResult(err)
	}
	ed.LoadScene(s)
	return frame()
}

// --- Query Handlers ---

// renderCommands returns the draw commands for the current view.
func renderCommands(this js.Value, args []js.Value) interface{} {
	out, err := render.DrawCommandsToJSON(render.Compile(ed.Scene(), ed.View()))
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(out)
}

func getFrame(this js.Value, args []js.Value) interface{} {
	return frame()
}

func getScene(this js.Value, args []js.Value) interface{} {
	return toJSON(ed.Scene())
}

func getState(this js.Value, args []js.Value) interface{} {
	return toJSON(ed.State())
}

func getView(this js.Value, args []js.Value) interface{} {
	return toJSON(ed.View())
}

// exportPNG renders the canvas and returns it as a data URL. Optional
// arguments: width, height, invert.
func exportPNG(this js.Value, args []js.Value) interface{} {
	st := ed.State()
	opts := render.Options{
		Width:  int(st.ViewportWidth),
		Height: int(st.ViewportHeight),
		View:   ed.View(),
		Invert: st.DarkMode,
	}
	if len(args) >= 2 {
		opts.Width, opts.Height = args[0].Int(), args[1].Int()
	}
	if len(args) >= 3 {
		opts.Invert = args[2].Truthy()
	}

	img, err := raster.Render(ed.Scene(), opts)
	if err != nil {
		return errorResult(err)
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		return errorResult(err)
	}
	return js.ValueOf("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
}
