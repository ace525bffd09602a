package scene

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sketchify/sketchify/backend-go/internal/geom"
)

// Radius is the render radius of circles and triangles: half the absolute
// drag width.
func (sh Shape) Radius() float64 {
	return math.Abs(sh.Width) / 2
}

// LineEnd is the far endpoint of a line shape.
func (sh Shape) LineEnd() geom.Point {
	return geom.Point{X: sh.Origin.X + sh.Width, Y: sh.Origin.Y + sh.Height}
}

// TriangleVertices returns the three vertices of the regular triangle centred
// on Origin, apex up.
func (sh Shape) TriangleVertices() [3]geom.Point {
	r := sh.Radius()
	var out [3]geom.Point
	for i := range out {
		a := 2 * math.Pi * float64(i) / 3
		out[i] = geom.Point{X: sh.Origin.X + r*math.Sin(a), Y: sh.Origin.Y - r*math.Cos(a)}
	}
	return out
}

// Bounds returns the normalised geometric bounds, not including stroke width.
func (sh Shape) Bounds() geom.Rect {
	switch sh.Type {
	case ShapeCircle:
		r := sh.Radius()
		return geom.Rect{X: sh.Origin.X - r, Y: sh.Origin.Y - r, Width: 2 * r, Height: 2 * r}
	case ShapeTriangle:
		v := sh.TriangleVertices()
		return geom.BoundsOf(v[:])
	case ShapeLine:
		return geom.BoundsOf([]geom.Point{sh.Origin, sh.LineEnd()})
	default:
		return geom.NormalizedRect(sh.Origin, sh.Width, sh.Height)
	}
}

// Contains reports whether p hits the shape, allowing tol logical units of
// slack around its outline.
func (sh Shape) Contains(p geom.Point, tol float64) bool {
	slack := sh.StrokeWidth/2 + tol
	switch sh.Type {
	case ShapeLine:
		return geom.SegmentDist(p, sh.Origin, sh.LineEnd()) <= slack
	case ShapeCircle:
		return p.Dist(sh.Origin) <= sh.Radius()+slack
	default:
		return sh.Bounds().Inset(slack).Contains(p)
	}
}

// Bounds returns the logical bounds of a stroke including its width.
func (st Stroke) Bounds() geom.Rect {
	pts := make([]geom.Point, st.PointCount())
	for i := range pts {
		pts[i] = st.Point(i)
	}
	r := geom.BoundsOf(pts)
	return r.Inset(st.StrokeWidth / 2)
}

// TextMeasurer measures the advance width of one line of text.
type TextMeasurer interface {
	MeasureLine(line string, fontSize float64, fontFamily string) float64
}

// ApproxMeasurer estimates widths from rune counts. It is used when no font
// metrics are available.
type ApproxMeasurer struct{}

func (ApproxMeasurer) MeasureLine(line string, fontSize float64, _ string) float64 {
	return float64(utf8.RuneCountInString(line)) * fontSize * 0.6
}

// Lines splits the content into rendered lines.
func (t TextObject) Lines() []string {
	return strings.Split(t.Content, "\n")
}

// Bounds returns the text block bounds: the widest line by the line count
// times the font size.
func (t TextObject) Bounds(m TextMeasurer) geom.Rect {
	if m == nil {
		m = ApproxMeasurer{}
	}
	lines := t.Lines()
	var w float64
	for _, l := range lines {
		w = max(w, m.MeasureLine(l, t.FontSize, t.FontFamily))
	}
	return geom.Rect{X: t.Position.X, Y: t.Position.Y, Width: w, Height: float64(len(lines)) * t.FontSize}
}

// LineOffset returns the horizontal offset of a line of the given width inside
// a block of blockWidth, according to the alignment.
func (t TextObject) LineOffset(lineWidth, blockWidth float64) float64 {
	switch t.Alignment {
	case AlignCenter:
		return (blockWidth - lineWidth) / 2
	case AlignRight:
		return blockWidth - lineWidth
	default:
		return 0
	}
}

// TextAt returns the topmost text whose bounds contain p.
func (s *Scene) TextAt(p geom.Point, m TextMeasurer) (TextObject, bool) {
	for i := len(s.Texts) - 1; i >= 0; i-- {
		if s.Texts[i].Bounds(m).Contains(p) {
			return s.Texts[i], true
		}
	}
	return TextObject{}, false
}

// ShapeAt returns the index of the topmost shape hit by p, or -1.
func (s *Scene) ShapeAt(p geom.Point, tol float64) int {
	for i := len(s.Shapes) - 1; i >= 0; i-- {
		if s.Shapes[i].Contains(p, tol) {
			return i
		}
	}
	return -1
}
