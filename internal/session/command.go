package session

import (
	"errors"
	"fmt"

	"github.com/sketchify/sketchify/backend-go/internal/editor"
	"github.com/sketchify/sketchify/backend-go/internal/geom"
	"github.com/sketchify/sketchify/backend-go/internal/scene"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidCommand = errors.New("invalid command")
)

const (
	CmdUndo       = "undo"
	CmdRedo       = "redo"
	CmdClear      = "clear"
	CmdZoomIn     = "zoomIn"
	CmdZoomOut    = "zoomOut"
	CmdSetState   = "setState"
	CmdSetTool    = "setTool"
	CmdSetView    = "setView"
	CmdDelete     = "delete"
	CmdLoadSample = "loadSample"
)

// Command is a toolbar action. Only the field matching Name is read.
type Command struct {
	Name  string              `json:"name"`
	State *editor.State       `json:"state,omitempty"`
	Tool  editor.Tool         `json:"tool,omitempty"`
	View  *geom.ViewTransform `json:"view,omitempty"`
}

// Apply runs the command against e. The caller must hold the session.
func (c Command) Apply(e *editor.Editor) (editor.Change, error) {
	switch c.Name {
	case CmdUndo:
		return e.Undo(), nil
	case CmdRedo:
		return e.Redo(), nil
	case CmdClear:
		return e.Clear(), nil
	case CmdZoomIn:
		return e.ZoomIn(), nil
	case CmdZoomOut:
		return e.ZoomOut(), nil
	case CmdDelete:
		return e.DeleteSelection(), nil
	case CmdLoadSample:
		return e.LoadScene(scene.NewSampleScene()), nil
	case CmdSetState:
		if c.State == nil {
			return 0, fmt.Errorf("%w: %s needs a state", ErrInvalidCommand, c.Name)
		}
		return e.SetState(*c.State)
	case CmdSetTool:
		t, err := editor.ParseTool(string(c.Tool))
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
		return e.SetTool(t), nil
	case CmdSetView:
		if c.View == nil {
			return 0, fmt.Errorf("%w: %s needs a view", ErrInvalidCommand, c.Name)
		}
		return e.SetView(*c.View), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, c.Name)
}
