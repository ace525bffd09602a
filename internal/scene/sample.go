package scene

import "github.com/sketchify/sketchify/backend-go/internal/geom"

// NewSampleScene returns a small drawing with one of each kind of object, used
// by the browser playground and in tests.
func NewSampleScene() *Scene {
	s := New()

	red := MustParseColor("#FF0000")
	blue := MustParseColor("#0000FF")
	green := MustParseColor("#008000")
	orange := MustParseColor("#FFA500")

	s.AppendShape(Shape{
		Type:        ShapeRectangle,
		Origin:      geom.Pt(80, 80),
		Width:       220,
		Height:      140,
		Color:       blue,
		StrokeWidth: 4,
	})
	s.AppendShape(Shape{
		Type:        ShapeCircle,
		Origin:      geom.Pt(420, 150),
		Width:       140,
		Height:      140,
		Color:       red,
		StrokeWidth: 4,
		Filled:      true,
	})
	s.AppendShape(Shape{
		Type:        ShapeTriangle,
		Origin:      geom.Pt(620, 160),
		Width:       150,
		Height:      150,
		Color:       green,
		StrokeWidth: 4,
	})
	s.AppendShape(Shape{
		Type:        ShapeLine,
		Origin:      geom.Pt(80, 300),
		Width:       600,
		Height:      40,
		Color:       orange,
		StrokeWidth: 6,
	})

	s.AppendStroke(Stroke{
		Tool:        ToolPen,
		Points:      []float64{100, 420, 140, 400, 190, 410, 240, 440, 300, 430, 350, 400},
		Color:       Black,
		StrokeWidth: 8,
	})
	s.AppendStroke(Stroke{
		Tool:        ToolEraser,
		Points:      []float64{180, 380, 200, 440},
		Color:       White,
		StrokeWidth: 20,
	})

	s.UpsertText(TextObject{
		ID:         1,
		Position:   geom.Pt(420, 380),
		Content:    "Hello, Sketchify!",
		FontSize:   24,
		FontFamily: "Comic Sans MS",
		Color:      Black,
		Alignment:  AlignLeft,
	})

	return s
}
