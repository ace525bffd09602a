// Package render turns a scene into pixels: draw command buffers for the
// browser canvas, a software rasterizer, and PNG/PDF encoders.
package render

import (
	"encoding/json"
	"strconv"

	"github.com/sketchify/sketchify/backend-go/internal/geom"
	"github.com/sketchify/sketchify/backend-go/internal/scene"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // Operation: "path" or "text"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width in logical units
	LineCap     string        `json:"lineCap,omitempty"`     // "round" for freehand strokes and lines

	// Text ops
	Lines      []string `json:"lines,omitempty"`
	X          float64  `json:"x,omitempty"`
	Y          float64  `json:"y,omitempty"`
	FontSize   float64  `json:"fontSize,omitempty"`
	FontFamily string   `json:"fontFamily,omitempty"`
	Align      string   `json:"align,omitempty"`
}

// Compile generates a draw command buffer from a scene.
// Commands are in painter's order (back to front): shapes, strokes, texts.
func Compile(s *scene.Scene, view geom.ViewTransform) []DrawCommand {
	if s == nil {
		return nil
	}
	transform := view.Matrix().ToSlice()

	commands := make([]DrawCommand, 0, len(s.Shapes)+len(s.Strokes)+len(s.Texts))
	for i, sh := range s.Shapes {
		cmd := DrawCommand{
			Op:          "path",
			ObjectID:    ShapeID(i),
			Transform:   transform,
			Path:        ShapePath(sh),
			Stroke:      sh.Color.Hex(),
			StrokeWidth: sh.StrokeWidth,
		}
		if sh.Filled && sh.Type != scene.ShapeLine {
			cmd.Fill = sh.Color.Hex()
		}
		if sh.Type == scene.ShapeLine {
			cmd.LineCap = "round"
		}
		commands = append(commands, cmd)
	}
	for i, st := range s.Strokes {
		commands = append(commands, DrawCommand{
			Op:          "path",
			ObjectID:    StrokeID(i),
			Transform:   transform,
			Path:        StrokePath(st.Points),
			Stroke:      st.Color.Hex(),
			StrokeWidth: st.StrokeWidth,
			LineCap:     "round",
		})
	}
	for _, t := range s.Texts {
		commands = append(commands, DrawCommand{
			Op:         "text",
			ObjectID:   TextID(t.ID),
			Transform:  transform,
			Lines:      t.Lines(),
			X:          t.Position.X,
			Y:          t.Position.Y,
			Fill:       t.Color.Hex(),
			FontSize:   t.FontSize,
			FontFamily: t.FontFamily,
			Align:      string(t.Alignment),
		})
	}
	return commands
}

// Object ids used in draw commands.
func ShapeID(i int) string { return "shape:" + strconv.Itoa(i) }
func StrokeID(i int) string { return "stroke:" + strconv.Itoa(i) }
func TextID(id int64) string { return "text:" + strconv.FormatInt(id, 10) }

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// SceneBounds returns the logical bounds of everything drawn in s, or an empty
// rect for an empty scene.
func SceneBounds(s *scene.Scene, m scene.TextMeasurer) geom.Rect {
	var r geom.Rect
	for _, sh := range s.Shapes {
		r = r.Union(PathBounds(ShapePath(sh), geom.Identity()).Inset(sh.StrokeWidth / 2))
	}
	for _, st := range s.Strokes {
		r = r.Union(st.Bounds())
	}
	for _, t := range s.Texts {
		r = r.Union(t.Bounds(m))
	}
	return r
}
