package scene

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/sketchify/sketchify/backend-go/internal/geom"
)

func TestUpsertTextPreservesOrder(t *testing.T) {
	s := New()
	s.UpsertText(TextObject{ID: 1, Content: "a"})
	s.UpsertText(TextObject{ID: 2, Content: "b"})
	s.UpsertText(TextObject{ID: 3, Content: "c"})

	s.UpsertText(TextObject{ID: 2, Content: "B"})

	if len(s.Texts) != 3 {
		t.Fatalf("len(Texts) = %d, want 3", len(s.Texts))
	}
	got := []string{s.Texts[0].Content, s.Texts[1].Content, s.Texts[2].Content}
	if want := []string{"a", "B", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("contents = %v, want %v", got, want)
	}
}

func TestRemoveText(t *testing.T) {
	s := New()
	s.UpsertText(TextObject{ID: 7})
	if s.RemoveText(8) {
		t.Error("RemoveText(8) = true for unknown id")
	}
	if !s.RemoveText(7) {
		t.Error("RemoveText(7) = false")
	}
	if len(s.Texts) != 0 {
		t.Errorf("len(Texts) = %d after remove", len(s.Texts))
	}
}

func TestUpdateLastStroke(t *testing.T) {
	s := New()
	s.AppendStroke(Stroke{Tool: ToolPen, Points: []float64{0, 0}, StrokeWidth: 10})
	s.AppendStroke(Stroke{Tool: ToolPen, Points: []float64{5, 5}, StrokeWidth: 10})
	s.UpdateLastStroke([]float64{5, 5, 6, 6}, 7)

	if got := s.Strokes[0].Points; !reflect.DeepEqual(got, []float64{0, 0}) {
		t.Errorf("first stroke changed: %v", got)
	}
	last := s.LastStroke()
	if last.PointCount() != 2 || last.StrokeWidth != 7 {
		t.Errorf("last stroke = %+v", last)
	}
}

func TestUpdateLastWithoutInProgressPanics(t *testing.T) {
	for name, fn := range map[string]func(*Scene){
		"stroke": func(s *Scene) { s.UpdateLastStroke([]float64{1, 1}, 1) },
		"shape":  func(s *Scene) { s.UpdateLastShape(1, 1) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn(New())
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSampleScene()
	c := s.Clone()
	if !reflect.DeepEqual(s, c) {
		t.Fatal("clone differs from original")
	}

	c.Strokes[0].Points[0] = -1
	c.Shapes[0].Width = -1
	c.Texts[0].Content = "changed"

	if s.Strokes[0].Points[0] == -1 || s.Shapes[0].Width == -1 || s.Texts[0].Content == "changed" {
		t.Error("mutating the clone changed the original")
	}
}

func TestClear(t *testing.T) {
	s := NewSampleScene()
	s.Clear()
	if !s.IsEmpty() {
		t.Errorf("scene not empty after Clear: %+v", s)
	}
}

func TestShapeGeometry(t *testing.T) {
	tests := []struct {
		name   string
		shape  Shape
		radius float64
		bounds geom.Rect
	}{
		{
			name:   "rectangle dragged down-right",
			shape:  Shape{Type: ShapeRectangle, Origin: geom.Pt(5, 5), Width: 10, Height: 20},
			radius: 5,
			bounds: geom.Rect{X: 5, Y: 5, Width: 10, Height: 20},
		},
		{
			name:   "rectangle dragged up-left",
			shape:  Shape{Type: ShapeRectangle, Origin: geom.Pt(5, 5), Width: -10, Height: -20},
			radius: 5,
			bounds: geom.Rect{X: -5, Y: -15, Width: 10, Height: 20},
		},
		{
			name:   "circle",
			shape:  Shape{Type: ShapeCircle, Origin: geom.Pt(5, 5), Width: 10, Height: 20},
			radius: 5,
			bounds: geom.Rect{X: 0, Y: 0, Width: 10, Height: 10},
		},
		{
			name:   "line",
			shape:  Shape{Type: ShapeLine, Origin: geom.Pt(5, 5), Width: -10, Height: 20},
			radius: 5,
			bounds: geom.Rect{X: -5, Y: 5, Width: 10, Height: 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.Radius(); got != tt.radius {
				t.Errorf("Radius() = %v, want %v", got, tt.radius)
			}
			if got := tt.shape.Bounds(); got != tt.bounds {
				t.Errorf("Bounds() = %+v, want %+v", got, tt.bounds)
			}
		})
	}
}

func TestTriangleVertices(t *testing.T) {
	sh := Shape{Type: ShapeTriangle, Origin: geom.Pt(0, 0), Width: 20}
	v := sh.TriangleVertices()
	for i, p := range v {
		if d := p.Dist(sh.Origin); d < 9.999 || d > 10.001 {
			t.Errorf("vertex %d at distance %v, want 10", i, d)
		}
	}
	if v[0].Y >= 0 {
		t.Errorf("apex %v should point up", v[0])
	}
}

func TestHitTests(t *testing.T) {
	s := New()
	s.AppendShape(Shape{Type: ShapeRectangle, Origin: geom.Pt(0, 0), Width: 100, Height: 100})
	s.AppendShape(Shape{Type: ShapeLine, Origin: geom.Pt(0, 0), Width: 100, Height: 0, StrokeWidth: 4})
	s.UpsertText(TextObject{ID: 1, Position: geom.Pt(10, 10), Content: "hi", FontSize: 20})
	s.UpsertText(TextObject{ID: 2, Position: geom.Pt(12, 12), Content: "there", FontSize: 20})

	if got, ok := s.TextAt(geom.Pt(15, 15), ApproxMeasurer{}); !ok || got.ID != 2 {
		t.Errorf("TextAt = %v, %v; want topmost id 2", got.ID, ok)
	}
	if _, ok := s.TextAt(geom.Pt(90, 90), ApproxMeasurer{}); ok {
		t.Error("TextAt hit empty area")
	}
	if got := s.ShapeAt(geom.Pt(50, 1), 0); got != 1 {
		t.Errorf("ShapeAt on line = %d, want 1", got)
	}
	if got := s.ShapeAt(geom.Pt(50, 50), 0); got != 0 {
		t.Errorf("ShapeAt inside rect = %d, want 0", got)
	}
	if got := s.ShapeAt(geom.Pt(150, 150), 0); got != -1 {
		t.Errorf("ShapeAt outside = %d, want -1", got)
	}
}

func TestTextBoundsMultiline(t *testing.T) {
	txt := TextObject{Position: geom.Pt(1, 2), Content: "ab\nabcd", FontSize: 10}
	b := txt.Bounds(ApproxMeasurer{})
	if b.Width != 24 || b.Height != 20 {
		t.Errorf("Bounds = %+v, want 24x20", b)
	}
	txt.Alignment = AlignRight
	if got := txt.LineOffset(12, 24); got != 12 {
		t.Errorf("right LineOffset = %v, want 12", got)
	}
	txt.Alignment = AlignCenter
	if got := txt.LineOffset(12, 24); got != 6 {
		t.Errorf("center LineOffset = %v, want 6", got)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#000000", Black, false},
		{"#fff", White, false},
		{"#FFA500", Color{255, 165, 0, 255}, false},
		{"#11223380", Color{0x11, 0x22, 0x33, 0x80}, false},
		{"red", Color{}, true},
		{"#12345", Color{}, true},
		{"#zzzzzz", Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestColorJSON(t *testing.T) {
	data, err := json.Marshal(Stroke{Tool: ToolPen, Points: []float64{1, 2}, Color: MustParseColor("#ff0000")})
	if err != nil {
		t.Fatal(err)
	}
	var back Stroke
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Color.Hex() != "#ff0000" {
		t.Errorf("color after JSON = %s (%s)", back.Color.Hex(), data)
	}
}

func TestIsLight(t *testing.T) {
	if Black.IsLight() || !White.IsLight() {
		t.Error("IsLight mismatch for black/white")
	}
}

func TestValidate(t *testing.T) {
	if err := NewSampleScene().Validate(); err != nil {
		t.Fatalf("sample scene: %v", err)
	}

	tests := []struct {
		name  string
		scene Scene
	}{
		{"odd coordinates", Scene{Strokes: []Stroke{{Points: []float64{1, 2, 3}}}}},
		{"no points", Scene{Strokes: []Stroke{{}}}},
		{"zero text id", Scene{Texts: []TextObject{{Content: "a"}}}},
		{"duplicate text id", Scene{Texts: []TextObject{{ID: 4, Content: "a"}, {ID: 4, Content: "b"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.scene.Validate(); !errors.Is(err, ErrInvalidScene) {
				t.Errorf("Validate() = %v, want ErrInvalidScene", err)
			}
		})
	}
}
