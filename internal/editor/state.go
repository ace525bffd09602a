package editor

import (
	"errors"
	"fmt"

	"github.com/sketchify/sketchify/backend-go/internal/scene"
)

// Tool is the active drawing tool.
type Tool string

const (
	ToolSelect    Tool = "select"
	ToolPen       Tool = "pen"
	ToolEraser    Tool = "eraser"
	ToolCircle    Tool = "circle"
	ToolRectangle Tool = "rectangle"
	ToolTriangle  Tool = "triangle"
	ToolLine      Tool = "line"
	ToolText      Tool = "text"
)

var tools = []Tool{ToolSelect, ToolPen, ToolEraser, ToolCircle, ToolRectangle, ToolTriangle, ToolLine, ToolText}

// toolShortcuts maps unmodified keys to tools.
var toolShortcuts = map[string]Tool{
	"v": ToolSelect,
	"p": ToolPen,
	"e": ToolEraser,
	"c": ToolCircle,
	"r": ToolRectangle,
	"t": ToolTriangle,
	"l": ToolLine,
	"x": ToolText,
}

// ParseTool validates a tool name.
func ParseTool(s string) (Tool, error) {
	for _, t := range tools {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// shapeType returns the shape a tool draws, if any.
func (t Tool) shapeType() (scene.ShapeType, bool) {
	switch t {
	case ToolCircle:
		return scene.ShapeCircle, true
	case ToolRectangle:
		return scene.ShapeRectangle, true
	case ToolTriangle:
		return scene.ShapeTriangle, true
	case ToolLine:
		return scene.ShapeLine, true
	}
	return "", false
}

var (
	// QuickColors is the swatch row offered next to the colour picker.
	QuickColors = []scene.Color{
		scene.MustParseColor("#000000"),
		scene.MustParseColor("#FF0000"),
		scene.MustParseColor("#0000FF"),
		scene.MustParseColor("#008000"),
		scene.MustParseColor("#FFA500"),
	}

	// FontSizes are the S, M, L and XL presets of the text toolbox.
	FontSizes = []float64{16, 24, 32, 48}

	// FontFamilies are the families offered by the text toolbox.
	FontFamilies = []string{"Arial", "Times New Roman", "Comic Sans MS", "Courier New"}
)

// State is the user-adjustable editor configuration. One authoritative State
// belongs to each Editor.
type State struct {
	Tool            Tool            `json:"tool"`
	Color           scene.Color     `json:"color"`
	BrushSize       float64         `json:"brushSize"`
	EraserSize      float64         `json:"eraserSize"`
	FontSize        float64         `json:"fontSize"`
	FontFamily      string          `json:"fontFamily"`
	Alignment       scene.Alignment `json:"alignment"`
	FillShapes      bool            `json:"fillShapes"`
	DarkMode        bool            `json:"darkMode"`
	ShowColorPicker bool            `json:"showColorPicker"`
	ViewportWidth   float64         `json:"viewportWidth"`
	ViewportHeight  float64         `json:"viewportHeight"`
}

// DefaultState returns the state a fresh editor opens with.
func DefaultState() State {
	return State{
		Tool:           ToolPen,
		Color:          scene.Black,
		BrushSize:      10,
		EraserSize:     20,
		FontSize:       20,
		FontFamily:     "Comic Sans MS",
		Alignment:      scene.AlignLeft,
		ViewportWidth:  1280,
		ViewportHeight: 720,
	}
}

var errInvalidState = errors.New("invalid editor state")

// Validate checks that every field holds a usable value.
func (s State) Validate() error {
	if _, err := ParseTool(string(s.Tool)); err != nil {
		return fmt.Errorf("%w: %v", errInvalidState, err)
	}
	switch s.Alignment {
	case scene.AlignLeft, scene.AlignCenter, scene.AlignRight:
	default:
		return fmt.Errorf("%w: unknown alignment %q", errInvalidState, s.Alignment)
	}
	if s.BrushSize <= 0 || s.EraserSize <= 0 || s.FontSize <= 0 {
		return fmt.Errorf("%w: sizes must be positive", errInvalidState)
	}
	if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
		return fmt.Errorf("%w: viewport must be positive", errInvalidState)
	}
	return nil
}

// IsInvalidState reports whether err came from State.Validate.
func IsInvalidState(err error) bool {
	return errors.Is(err, errInvalidState)
}
