// Package editor implements the canvas editing state machine: it interprets
// pointer and keyboard events against the active tool, mutates the scene and
// commits history snapshots at gesture boundaries.
package editor

import (
	"time"

	"github.com/sketchify/sketchify/backend-go/internal/geom"
	"github.com/sketchify/sketchify/backend-go/internal/history"
	"github.com/sketchify/sketchify/backend-go/internal/scene"
	"github.com/sketchify/sketchify/backend-go/internal/stroke"
)

// hitSlop is the screen-space tolerance, in pixels, for picking shapes.
const hitSlop = 4.0

// Options configures a new Editor.
type Options struct {
	// HistoryLimit caps the undo log; zero keeps every entry.
	HistoryLimit int

	// Measurer measures text for hit testing. Defaults to scene.ApproxMeasurer.
	Measurer scene.TextMeasurer

	// Now is the clock used to derive text ids. Defaults to time.Now.
	Now func() time.Time
}

// Editor owns one drawing: its scene, history, view and tool state.
// An Editor is not safe for concurrent use; callers serialize events.
type Editor struct {
	state State
	view  geom.ViewTransform

	// Document state
	scene   *scene.Scene
	history *history.Log

	// Active pointer gesture
	gesture gesture
	speed   stroke.SpeedTracker

	// Inline text entry surface; nil when closed
	text *TextEdit
	// buffer holds the selected text, ready to reopen for editing
	buffer *TextEdit

	selection Selection

	measurer   scene.TextMeasurer
	now        func() time.Time
	lastTextID int64
}

type gestureKind int

const (
	gestureNone gestureKind = iota
	gestureStroke
	gestureShape
	gestureDragText
	gestureDragShape
	gesturePan
)

type gesture struct {
	kind gestureKind

	// start is the logical pointer position at pointer-down.
	start geom.Point
	// from is the dragged object's position at pointer-down.
	from geom.Point
	// lastScreen tracks the previous pointer position while panning.
	lastScreen geom.Point
	moved      bool
}

// SelectionKind says what, if anything, is selected.
type SelectionKind string

const (
	SelectNone  SelectionKind = ""
	SelectText  SelectionKind = "text"
	SelectShape SelectionKind = "shape"
)

// Selection identifies the selected object.
type Selection struct {
	Kind       SelectionKind `json:"kind"`
	TextID     int64         `json:"textId,omitempty"`
	ShapeIndex int           `json:"shapeIndex,omitempty"`
}

// TextEdit is the open inline text entry surface. EditingID is zero while
// creating a new text.
type TextEdit struct {
	Position  geom.Point `json:"position"`
	Buffer    string     `json:"buffer"`
	EditingID int64      `json:"editingId,omitempty"`
}

// New creates an editor with an empty scene. The empty scene is the first
// history entry, so the first edit can be undone.
func New(opts Options) *Editor {
	e := &Editor{
		state:    DefaultState(),
		view:     geom.DefaultView(),
		scene:    scene.New(),
		history:  history.New(opts.HistoryLimit),
		measurer: opts.Measurer,
		now:      opts.Now,
	}
	if e.measurer == nil {
		e.measurer = scene.ApproxMeasurer{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.history.Commit(e.scene)
	return e
}

// --- Events (input → editor) ---

// HandleEvent dispatches one input event on (tool, kind) and reports what it
// changed.
func (e *Editor) HandleEvent(ev Event) Change {
	switch ev.Kind {
	case PointerDown:
		return e.pointerDown(ev)
	case PointerMove:
		return e.pointerMove(ev)
	case PointerUp:
		return e.pointerUp()
	case DoubleClick:
		return e.doubleClick(ev)
	case KeyDown:
		return e.keyDown(ev)
	case Wheel:
		e.view = e.view.Wheel(ev.Screen(), ev.DeltaX, ev.DeltaY, ev.command())
		return ChangeView
	case TextChange:
		if e.text == nil {
			if e.reopenText() == 0 {
				return 0
			}
		}
		e.text.Buffer = ev.Text
		return ChangeText
	}
	return 0
}

// --- Commands ---

// Undo restores the previous history entry.
func (e *Editor) Undo() Change {
	s, ok := e.history.Undo()
	if !ok {
		return 0
	}
	return e.load(s)
}

// Redo restores the next history entry.
func (e *Editor) Redo() Change {
	s, ok := e.history.Redo()
	if !ok {
		return 0
	}
	return e.load(s)
}

// Clear empties the canvas as one undoable edit.
func (e *Editor) Clear() Change {
	if e.Drawing() {
		return 0
	}
	e.reset()
	e.scene.Clear()
	e.commit()
	return ChangeScene | ChangeHistory | ChangeSelection | ChangeText
}

// LoadScene replaces the drawing with a copy of s as one undoable edit.
func (e *Editor) LoadScene(s *scene.Scene) Change {
	e.reset()
	e.scene = s.Clone()
	e.commit()
	return ChangeScene | ChangeHistory | ChangeSelection | ChangeText
}

// ZoomIn zooms one step in around the viewport centre.
func (e *Editor) ZoomIn() Change {
	e.view = e.view.ZoomIn(e.viewportCenter())
	return ChangeView
}

// ZoomOut zooms one step out around the viewport centre.
func (e *Editor) ZoomOut() Change {
	e.view = e.view.ZoomOut(e.viewportCenter())
	return ChangeView
}

// SetView replaces the view transform. The scale is clamped.
func (e *Editor) SetView(v geom.ViewTransform) Change {
	if v.Scale <= 0 {
		v.Scale = 1
	}
	v.Scale = geom.ClampScale(v.Scale)
	e.view = v
	return ChangeView
}

// SetTool switches the active tool. Leaving Select drops the selection.
func (e *Editor) SetTool(t Tool) Change {
	if e.state.Tool == t {
		return 0
	}
	e.state.Tool = t
	if t != ToolSelect && e.selection.Kind != SelectNone {
		e.selection = Selection{}
		return ChangeState | ChangeSelection
	}
	return ChangeState
}

// SetState replaces the editor state after validating it.
func (e *Editor) SetState(s State) (Change, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	e.state = s
	return ChangeState, nil
}

// DeleteSelection removes the selected text or shape as one undoable edit.
// It is ignored while a gesture is in progress.
func (e *Editor) DeleteSelection() Change {
	if e.Drawing() {
		return 0
	}
	switch e.selection.Kind {
	case SelectText:
		return e.deleteText(e.selection.TextID)
	case SelectShape:
		if !e.scene.RemoveShape(e.selection.ShapeIndex) {
			return 0
		}
		e.selection = Selection{}
		e.commit()
		return ChangeScene | ChangeHistory | ChangeSelection
	}
	return 0
}

// --- Queries ---

// Scene returns the live scene. Callers must not modify it and must not hold
// it across further events; use Snapshot for that.
func (e *Editor) Scene() *scene.Scene {
	return e.scene
}

// Snapshot returns a deep copy of the live scene.
func (e *Editor) Snapshot() *scene.Scene {
	return e.scene.Clone()
}

func (e *Editor) State() State { return e.state }

func (e *Editor) View() geom.ViewTransform { return e.view }

func (e *Editor) History() history.State { return e.history.State() }

func (e *Editor) Selection() Selection { return e.selection }

// TextEdit returns a copy of the open text entry surface, or nil.
func (e *Editor) TextEdit() *TextEdit {
	if e.text == nil {
		return nil
	}
	t := *e.text
	return &t
}

// EditBuffer returns a copy of the selected text loaded for re-editing, or
// nil when no text is selected or the entry surface is already open.
func (e *Editor) EditBuffer() *TextEdit {
	if e.text != nil || e.buffer == nil {
		return nil
	}
	if e.selection.Kind != SelectText || e.selection.TextID != e.buffer.EditingID {
		return nil
	}
	b := *e.buffer
	return &b
}

// Drawing reports whether a pointer gesture is in progress.
func (e *Editor) Drawing() bool {
	return e.gesture.kind != gestureNone
}

// SelectionBounds returns the logical bounds of the selection, or an empty
// rect.
func (e *Editor) SelectionBounds() geom.Rect {
	switch e.selection.Kind {
	case SelectText:
		if t, ok := e.scene.Text(e.selection.TextID); ok {
			return t.Bounds(e.measurer)
		}
	case SelectShape:
		if i := e.selection.ShapeIndex; i >= 0 && i < len(e.scene.Shapes) {
			sh := e.scene.Shapes[i]
			return sh.Bounds().Inset(sh.StrokeWidth / 2)
		}
	}
	return geom.Rect{}
}

// Status bundles everything a client needs besides the scene itself.
type Status struct {
	State     State              `json:"state"`
	View      geom.ViewTransform `json:"view"`
	History   history.State      `json:"history"`
	Selection Selection          `json:"selection"`
	Bounds    geom.Rect          `json:"selectionBounds"`
	TextEdit  *TextEdit          `json:"textEdit,omitempty"`
	Buffer    *TextEdit          `json:"editBuffer,omitempty"`
}

func (e *Editor) Status() Status {
	return Status{
		State:     e.state,
		View:      e.view,
		History:   e.history.State(),
		Selection: e.selection,
		Bounds:    e.SelectionBounds(),
		TextEdit:  e.TextEdit(),
		Buffer:    e.EditBuffer(),
	}
}

// --- internals ---

func (e *Editor) commit() {
	e.history.Commit(e.scene)
}

// load makes s the live scene after undo or redo.
func (e *Editor) load(s *scene.Scene) Change {
	e.reset()
	e.scene = s
	return ChangeScene | ChangeHistory | ChangeSelection | ChangeText
}

// reset abandons any gesture, text entry and selection.
func (e *Editor) reset() {
	e.gesture = gesture{}
	e.speed.Reset()
	e.text = nil
	e.buffer = nil
	e.selection = Selection{}
}

func (e *Editor) viewportCenter() geom.Point {
	return geom.Point{X: e.state.ViewportWidth / 2, Y: e.state.ViewportHeight / 2}
}

// nextTextID derives a new text id from the clock, bumping past the last one
// handed out so ids stay unique and increasing.
func (e *Editor) nextTextID() int64 {
	id := e.now().UnixMilli()
	if id <= e.lastTextID {
		id = e.lastTextID + 1
	}
	for {
		if _, taken := e.scene.Text(id); !taken {
			break
		}
		id++
	}
	e.lastTextID = id
	return id
}
