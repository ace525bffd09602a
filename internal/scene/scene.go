package scene

import (
	"slices"

	"github.com/sketchify/sketchify/backend-go/internal/geom"
)

// New returns an empty scene.
func New() *Scene {
	return &Scene{
		Strokes: []Stroke{},
		Shapes:  []Shape{},
		Texts:   []TextObject{},
	}
}

// IsEmpty reports whether nothing has been drawn.
func (s *Scene) IsEmpty() bool {
	return len(s.Strokes) == 0 && len(s.Shapes) == 0 && len(s.Texts) == 0
}

// Clone returns a deep copy that shares no memory with s.
func (s *Scene) Clone() *Scene {
	out := &Scene{
		Strokes: make([]Stroke, len(s.Strokes)),
		Shapes:  slices.Clone(s.Shapes),
		Texts:   slices.Clone(s.Texts),
	}
	if out.Shapes == nil {
		out.Shapes = []Shape{}
	}
	if out.Texts == nil {
		out.Texts = []TextObject{}
	}
	for i, st := range s.Strokes {
		st.Points = slices.Clone(st.Points)
		out.Strokes[i] = st
	}
	return out
}

// Replace overwrites s with a deep copy of other.
func (s *Scene) Replace(other *Scene) {
	*s = *other.Clone()
}

// AppendStroke starts a new in-progress stroke.
func (s *Scene) AppendStroke(st Stroke) {
	st.Points = slices.Clone(st.Points)
	s.Strokes = append(s.Strokes, st)
}

// UpdateLastStroke replaces the points and width of the in-progress stroke.
// Calling it with no stroke is a programming error.
func (s *Scene) UpdateLastStroke(points []float64, width float64) {
	if len(s.Strokes) == 0 {
		panic("scene: UpdateLastStroke with no stroke in progress")
	}
	last := &s.Strokes[len(s.Strokes)-1]
	last.Points = points
	last.StrokeWidth = width
}

// LastStroke returns the in-progress stroke.
func (s *Scene) LastStroke() *Stroke {
	if len(s.Strokes) == 0 {
		return nil
	}
	return &s.Strokes[len(s.Strokes)-1]
}

// AppendShape starts a new in-progress shape.
func (s *Scene) AppendShape(sh Shape) {
	s.Shapes = append(s.Shapes, sh)
}

// UpdateLastShape resizes the in-progress shape. Calling it with no shape is a
// programming error.
func (s *Scene) UpdateLastShape(width, height float64) {
	if len(s.Shapes) == 0 {
		panic("scene: UpdateLastShape with no shape in progress")
	}
	last := &s.Shapes[len(s.Shapes)-1]
	last.Width = width
	last.Height = height
}

// LastShape returns the in-progress shape.
func (s *Scene) LastShape() *Shape {
	if len(s.Shapes) == 0 {
		return nil
	}
	return &s.Shapes[len(s.Shapes)-1]
}

// MoveShape sets the origin of the shape at index i.
func (s *Scene) MoveShape(i int, origin geom.Point) bool {
	if i < 0 || i >= len(s.Shapes) {
		return false
	}
	s.Shapes[i].Origin = origin
	return true
}

// RemoveShape deletes the shape at index i.
func (s *Scene) RemoveShape(i int) bool {
	if i < 0 || i >= len(s.Shapes) {
		return false
	}
	s.Shapes = slices.Delete(s.Shapes, i, i+1)
	return true
}

// UpsertText inserts t when its id is unseen and otherwise replaces the text
// with the same id in place, keeping its z-order.
func (s *Scene) UpsertText(t TextObject) {
	if i := s.textIndex(t.ID); i >= 0 {
		s.Texts[i] = t
		return
	}
	s.Texts = append(s.Texts, t)
}

// Text looks a text object up by id.
func (s *Scene) Text(id int64) (TextObject, bool) {
	if i := s.textIndex(id); i >= 0 {
		return s.Texts[i], true
	}
	return TextObject{}, false
}

// MoveText sets the position of the text with the given id.
func (s *Scene) MoveText(id int64, pos geom.Point) bool {
	i := s.textIndex(id)
	if i < 0 {
		return false
	}
	s.Texts[i].Position = pos
	return true
}

// RemoveText deletes the text with the given id.
func (s *Scene) RemoveText(id int64) bool {
	i := s.textIndex(id)
	if i < 0 {
		return false
	}
	s.Texts = slices.Delete(s.Texts, i, i+1)
	return true
}

// Clear empties every collection.
func (s *Scene) Clear() {
	s.Strokes = []Stroke{}
	s.Shapes = []Shape{}
	s.Texts = []TextObject{}
}

func (s *Scene) textIndex(id int64) int {
	return slices.IndexFunc(s.Texts, func(t TextObject) bool { return t.ID == id })
}
