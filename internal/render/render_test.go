package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"testing"

	"github.com/sketchify/sketchify/backend-go/internal/geom"
	"github.com/sketchify/sketchify/backend-go/internal/scene"
)

var (
	red  = scene.Color{R: 255, A: 255}
	blue = scene.Color{B: 255, A: 255}
)

func newRasterizer(t *testing.T) *Rasterizer {
	t.Helper()
	fonts, err := NewFontBook()
	if err != nil {
		t.Fatalf("NewFontBook: %v", err)
	}
	return NewRasterizer(fonts)
}

func render(t *testing.T, s *scene.Scene, opts Options) *image.RGBA {
	t.Helper()
	if opts.Width == 0 {
		opts.Width, opts.Height = 100, 100
	}
	img, err := newRasterizer(t).Render(s, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return img
}

// near reports whether every channel of got is within 8 of want.
func near(got color.Color, want color.RGBA) bool {
	c := color.RGBAModel.Convert(got).(color.RGBA)
	d := func(a, b uint8) bool {
		if a > b {
			return a-b <= 8
		}
		return b-a <= 8
	}
	return d(c.R, want.R) && d(c.G, want.G) && d(c.B, want.B)
}

var (
	white    = color.RGBA{255, 255, 255, 255}
	pureRed  = color.RGBA{255, 0, 0, 255}
	pureBlue = color.RGBA{0, 0, 255, 255}
	cyan     = color.RGBA{0, 255, 255, 255}
)

func penStroke(c scene.Color, width float64, pts ...float64) scene.Stroke {
	return scene.Stroke{Tool: scene.ToolPen, Points: pts, Color: c, StrokeWidth: width}
}

func eraserStroke(width float64, pts ...float64) scene.Stroke {
	return scene.Stroke{Tool: scene.ToolEraser, Points: pts, Color: scene.White, StrokeWidth: width}
}

func TestCompileOrder(t *testing.T) {
	s := scene.New()
	s.AppendStroke(penStroke(scene.Black, 4, 0, 0, 10, 10))
	s.UpsertText(scene.TextObject{ID: 7, Content: "hi", FontSize: 20, Color: scene.Black, Alignment: scene.AlignLeft})
	s.AppendShape(scene.Shape{Type: scene.ShapeRectangle, Width: 5, Height: 5, Color: red, StrokeWidth: 2, Filled: true})

	cmds := Compile(s, geom.DefaultView())
	want := []struct{ op, id string }{
		{"path", "shape:0"},
		{"path", "stroke:0"},
		{"text", "text:7"},
	}
	if len(cmds) != len(want) {
		t.Fatalf("len(cmds) = %d, want %d", len(cmds), len(want))
	}
	for i, w := range want {
		if cmds[i].Op != w.op || cmds[i].ObjectID != w.id {
			t.Errorf("cmds[%d] = %s %s, want %s %s", i, cmds[i].Op, cmds[i].ObjectID, w.op, w.id)
		}
	}
	if cmds[0].Fill != "#ff0000" || cmds[0].Stroke != "#ff0000" {
		t.Errorf("filled shape colours = %q / %q", cmds[0].Fill, cmds[0].Stroke)
	}
	if cmds[1].LineCap != "round" {
		t.Errorf("stroke line cap = %q", cmds[1].LineCap)
	}
	if !reflect.DeepEqual(cmds[0].Transform, []float64{1, 0, 0, 1, 0, 0}) {
		t.Errorf("transform = %v, want identity", cmds[0].Transform)
	}
}

func TestCompileCarriesView(t *testing.T) {
	s := scene.New()
	s.AppendStroke(penStroke(scene.Black, 4, 0, 0))
	cmds := Compile(s, geom.ViewTransform{Scale: 2, Offset: geom.Pt(5, 6)})
	want := []float64{2, 0, 0, 2, 5, 6}
	for i, v := range want {
		if cmds[0].Transform[i] != v {
			t.Fatalf("transform = %v, want %v", cmds[0].Transform, want)
		}
	}
}

func TestCompileNilScene(t *testing.T) {
	if cmds := Compile(nil, geom.DefaultView()); cmds != nil {
		t.Errorf("Compile(nil) = %v", cmds)
	}
}

func TestShapePathNormalizesRect(t *testing.T) {
	path := ShapePath(scene.Shape{Type: scene.ShapeRectangle, Origin: geom.Pt(30, 40), Width: -20, Height: -10})
	got := PathBounds(path, geom.Identity())
	want := geom.Rect{X: 10, Y: 30, Width: 20, Height: 10}
	if got != want {
		t.Errorf("bounds = %+v, want %+v", got, want)
	}
}

func TestShapePathBounds(t *testing.T) {
	tests := []struct {
		name  string
		shape scene.Shape
		want  geom.Rect
	}{
		{"circle", scene.Shape{Type: scene.ShapeCircle, Origin: geom.Pt(50, 50), Width: 20}, geom.Rect{X: 40, Y: 40, Width: 20, Height: 20}},
		{"line", scene.Shape{Type: scene.ShapeLine, Origin: geom.Pt(10, 10), Width: 30, Height: -5}, geom.Rect{X: 10, Y: 5, Width: 30, Height: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PathBounds(ShapePath(tt.shape), geom.Identity()); got != tt.want {
				t.Errorf("bounds = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStrokePath(t *testing.T) {
	t.Run("single point", func(t *testing.T) {
		path := StrokePath([]float64{3, 4})
		if len(path) != 2 || path[0][0] != "M" || path[1][0] != "L" {
			t.Errorf("path = %v", path)
		}
	})
	t.Run("ends on last point", func(t *testing.T) {
		path := StrokePath([]float64{0, 0, 10, 5, 20, 0, 30, 10})
		if len(path) != 4 {
			t.Fatalf("len(path) = %d, want 4", len(path))
		}
		last := path[len(path)-1]
		if last[0] != "C" || last[5] != 30.0 || last[6] != 10.0 {
			t.Errorf("last segment = %v", last)
		}
	})
	t.Run("empty", func(t *testing.T) {
		if path := StrokePath(nil); path != nil {
			t.Errorf("path = %v", path)
		}
	})
}

func TestFlattenPathClosesSubpaths(t *testing.T) {
	subs := FlattenPath(ShapePath(scene.Shape{Type: scene.ShapeTriangle, Origin: geom.Pt(0, 0), Width: 10}), geom.Identity(), 0.5)
	if len(subs) != 1 || !subs[0].Closed || len(subs[0].Points) != 3 {
		t.Errorf("subpaths = %+v", subs)
	}
}

func TestRenderInvalidSize(t *testing.T) {
	if _, err := newRasterizer(t).Render(scene.New(), Options{}); err != ErrInvalidSize {
		t.Errorf("err = %v, want ErrInvalidSize", err)
	}
}

func TestRenderBackground(t *testing.T) {
	img := render(t, scene.New(), Options{})
	for _, p := range []image.Point{{0, 0}, {50, 50}, {99, 99}} {
		if !near(img.At(p.X, p.Y), white) {
			t.Errorf("pixel %v = %v, want white", p, img.At(p.X, p.Y))
		}
	}
}

func TestRenderShapes(t *testing.T) {
	s := scene.New()
	s.AppendShape(scene.Shape{Type: scene.ShapeRectangle, Origin: geom.Pt(10, 10), Width: 30, Height: 30, Color: red, StrokeWidth: 2, Filled: true})
	s.AppendShape(scene.Shape{Type: scene.ShapeCircle, Origin: geom.Pt(70, 70), Width: 40, Color: blue, StrokeWidth: 4})
	img := render(t, s, Options{})

	tests := []struct {
		name string
		at   image.Point
		want color.RGBA
	}{
		{"filled rect interior", image.Pt(25, 25), pureRed},
		{"outside rect", image.Pt(45, 25), white},
		{"circle outline", image.Pt(90, 70), pureBlue},
		{"hollow circle centre", image.Pt(70, 70), white},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.At(tt.at.X, tt.at.Y); !near(got, tt.want) {
				t.Errorf("pixel %v = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestRenderStrokeAndEraser(t *testing.T) {
	s := scene.New()
	s.AppendStroke(penStroke(red, 10, 10, 50, 90, 50))
	s.AppendStroke(eraserStroke(20, 50, 20, 50, 80))

	img := render(t, s, Options{})
	if got := img.At(20, 50); !near(got, pureRed) {
		t.Errorf("stroke pixel = %v, want red", got)
	}
	if got := img.At(50, 50); !near(got, white) {
		t.Errorf("erased pixel = %v, want white", got)
	}
	if got := img.At(20, 60); !near(got, white) {
		t.Errorf("pixel beside stroke = %v, want white", got)
	}
}

func TestRenderView(t *testing.T) {
	s := scene.New()
	s.AppendShape(scene.Shape{Type: scene.ShapeRectangle, Origin: geom.Pt(10, 10), Width: 10, Height: 10, Color: red, StrokeWidth: 1, Filled: true})

	img := render(t, s, Options{View: geom.ViewTransform{Scale: 2, Offset: geom.Pt(5, 5)}})
	if got := img.At(35, 35); !near(got, pureRed) {
		t.Errorf("zoomed pixel = %v, want red", got)
	}
	if got := img.At(15, 15); !near(got, white) {
		t.Errorf("pixel before offset = %v, want white", got)
	}
}

func TestRenderInvert(t *testing.T) {
	s := scene.New()
	s.AppendStroke(penStroke(red, 10, 10, 50, 90, 50))
	s.AppendStroke(eraserStroke(20, 50, 20, 50, 80))

	img := render(t, s, Options{Invert: true})
	tests := []struct {
		name string
		at   image.Point
		want color.RGBA
	}{
		{"painted pixel inverts", image.Pt(20, 50), cyan},
		{"background stays white", image.Pt(5, 5), white},
		{"erased pixel stays white", image.Pt(50, 50), white},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.At(tt.at.X, tt.at.Y); !near(got, tt.want) {
				t.Errorf("pixel %v = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestRenderInvertKeepsCoverageAwayFromEraser(t *testing.T) {
	s := scene.New()
	s.AppendStroke(penStroke(red, 10, 10, 50, 40, 50))
	s.AppendStroke(eraserStroke(4, 80, 5, 95, 5))

	img := render(t, s, Options{Invert: true})
	if got := img.At(20, 50); !near(got, cyan) {
		t.Errorf("painted pixel = %v, want %v", got, cyan)
	}
	if got := img.At(88, 5); !near(got, white) {
		t.Errorf("erased pixel = %v, want %v", got, white)
	}
}

func TestRenderText(t *testing.T) {
	s := scene.New()
	s.UpsertText(scene.TextObject{ID: 1, Position: geom.Pt(5, 5), Content: "HHHH", FontSize: 40, FontFamily: "Arial", Color: scene.Black, Alignment: scene.AlignLeft})
	img := render(t, s, Options{})

	dark := 0
	for y := 5; y < 45; y++ {
		for x := 5; x < 100; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x4000 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("no text pixels drawn")
	}
	if got := img.At(2, 90); !near(got, white) {
		t.Errorf("pixel below text = %v", got)
	}
}

func TestFontBookMeasure(t *testing.T) {
	fonts, err := NewFontBook()
	if err != nil {
		t.Fatal(err)
	}
	short := fonts.MeasureLine("ab", 20, "Arial")
	long := fonts.MeasureLine("abab", 20, "Arial")
	if short <= 0 || long <= short {
		t.Errorf("widths %v, %v not increasing", short, long)
	}
	if big := fonts.MeasureLine("ab", 40, "Arial"); big <= short {
		t.Errorf("width at 40px %v <= width at 20px %v", big, short)
	}
	if fonts.MeasureLine("", 20, "Arial") != 0 {
		t.Error("empty line has width")
	}

	narrow := fonts.MeasureLine("iii", 20, "Courier New")
	wide := fonts.MeasureLine("MMM", 20, "Courier New")
	if narrow != wide {
		t.Errorf("monospace widths differ: %v vs %v", narrow, wide)
	}

	if fonts.MeasureLine("ab", 20, "Unknown Family") != short {
		t.Error("unknown family did not fall back to the regular face")
	}
}

func TestEncodePNG(t *testing.T) {
	img := render(t, scene.NewSampleScene(), Options{Width: 64, Height: 48})
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("decoded size = %v", b)
	}
}

func TestEncodePDF(t *testing.T) {
	img := render(t, scene.NewSampleScene(), Options{Width: 64, Height: 48})
	var buf bytes.Buffer
	if err := EncodePDF(&buf, img); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", buf.Bytes()[:min(8, buf.Len())])
	}
}

func TestSceneBounds(t *testing.T) {
	s := scene.New()
	if !SceneBounds(s, nil).IsEmpty() {
		t.Error("empty scene has bounds")
	}
	s.AppendStroke(penStroke(scene.Black, 2, 10, 10, 20, 20))
	s.AppendShape(scene.Shape{Type: scene.ShapeRectangle, Origin: geom.Pt(50, 50), Width: 10, Height: 10, StrokeWidth: 2})
	got := SceneBounds(s, nil)
	want := geom.Rect{X: 9, Y: 9, Width: 52, Height: 52}
	if got != want {
		t.Errorf("bounds = %+v, want %+v", got, want)
	}
}

func TestSceneBoundsFollowsDrawnCircle(t *testing.T) {
	s := scene.New()
	s.AppendShape(scene.Shape{Type: scene.ShapeCircle, Origin: geom.Pt(50, 50), Width: 20, Height: 8, StrokeWidth: 2})
	got := SceneBounds(s, nil)
	want := geom.Rect{X: 39, Y: 39, Width: 22, Height: 22}
	if got != want {
		t.Errorf("bounds = %+v, want %+v", got, want)
	}
}
