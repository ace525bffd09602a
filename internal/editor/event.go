package editor

import "github.com/sketchify/sketchify/backend-go/internal/geom"

// EventKind tags the input events the editor understands.
type EventKind string

const (
	PointerDown EventKind = "pointerdown"
	PointerMove EventKind = "pointermove"
	PointerUp   EventKind = "pointerup"
	DoubleClick EventKind = "dblclick"
	KeyDown     EventKind = "keydown"
	Wheel       EventKind = "wheel"
	// TextChange carries the full contents of the inline text entry surface.
	TextChange EventKind = "textchange"
)

// Event is one input event. Pointer and wheel positions are in screen space;
// Key uses DOM KeyboardEvent.key names ("z", "Enter", "Delete", ...).
type Event struct {
	Kind   EventKind `json:"kind"`
	X      float64   `json:"x,omitempty"`
	Y      float64   `json:"y,omitempty"`
	Key    string    `json:"key,omitempty"`
	Shift  bool      `json:"shift,omitempty"`
	Ctrl   bool      `json:"ctrl,omitempty"`
	Alt    bool      `json:"alt,omitempty"`
	Meta   bool      `json:"meta,omitempty"`
	DeltaX float64   `json:"deltaX,omitempty"`
	DeltaY float64   `json:"deltaY,omitempty"`
	Text   string    `json:"text,omitempty"`
}

// Screen returns the event position in screen space.
func (ev Event) Screen() geom.Point {
	return geom.Point{X: ev.X, Y: ev.Y}
}

// command reports whether Ctrl or Cmd is held.
func (ev Event) command() bool {
	return ev.Ctrl || ev.Meta
}

// Change reports what an event or command modified, so transports can decide
// what to push to the display.
type Change uint8

const (
	ChangeScene Change = 1 << iota
	ChangeView
	ChangeState
	ChangeHistory
	ChangeText
	ChangeSelection
)

// Has reports whether every flag in f is set.
func (c Change) Has(f Change) bool {
	return c&f == f && f != 0
}
