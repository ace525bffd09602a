package scene

import "github.com/sketchify/sketchify/backend-go/internal/geom"

type ToolKind string

const (
	ToolPen    ToolKind = "pen"
	ToolEraser ToolKind = "eraser"
)

type ShapeType string

const (
	ShapeRectangle ShapeType = "rectangle"
	ShapeCircle    ShapeType = "circle"
	ShapeTriangle  ShapeType = "triangle"
	ShapeLine      ShapeType = "line"
)

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Stroke is a freehand pen or eraser line. Points holds flattened x,y pairs in
// logical space.
type Stroke struct {
	Tool        ToolKind  `json:"tool"`
	Points      []float64 `json:"points"`
	Color       Color     `json:"color"`
	StrokeWidth float64   `json:"strokeWidth"`
}

// PointCount returns the number of x,y pairs.
func (s Stroke) PointCount() int {
	return len(s.Points) / 2
}

// Point returns the i-th point.
func (s Stroke) Point(i int) geom.Point {
	return geom.Point{X: s.Points[2*i], Y: s.Points[2*i+1]}
}

// Shape is a rectangle, circle, triangle or line dragged out from Origin.
// Width and Height are signed: the sign records the drag direction and is only
// normalised when rendering or hit testing.
type Shape struct {
	Type        ShapeType  `json:"type"`
	Origin      geom.Point `json:"origin"`
	Width       float64    `json:"width"`
	Height      float64    `json:"height"`
	Color       Color      `json:"color"`
	StrokeWidth float64    `json:"strokeWidth"`
	Filled      bool       `json:"filled"`
}

// TextObject is a block of text anchored at its top-left Position.
type TextObject struct {
	ID         int64      `json:"id"`
	Position   geom.Point `json:"position"`
	Content    string     `json:"content"`
	FontSize   float64    `json:"fontSize"`
	FontFamily string     `json:"fontFamily"`
	Color      Color      `json:"color"`
	Alignment  Alignment  `json:"alignment"`
}

// Scene is the full drawing. Render order is fixed: shapes, then strokes, then
// texts; within each slice, index order is z-order.
type Scene struct {
	Strokes []Stroke     `json:"strokes"`
	Shapes  []Shape      `json:"shapes"`
	Texts   []TextObject `json:"texts"`
}
