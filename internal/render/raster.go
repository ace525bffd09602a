package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/sketchify/sketchify/backend-go/internal/geom"
	"github.com/sketchify/sketchify/backend-go/internal/scene"
)

// flattenTolerance is the maximum chord length, in pixels, used when
// subdividing curves.
const flattenTolerance = 0.5

// ErrInvalidSize is returned for non-positive output dimensions.
var ErrInvalidSize = errors.New("render: output size must be positive")

// Options controls a single render.
type Options struct {
	Width  int
	Height int
	// View maps logical to pixel coordinates. The zero value means identity.
	View geom.ViewTransform
	// Invert replaces every painted pixel by its channel-wise complement;
	// untouched and erased background stays white.
	Invert bool
}

// Rasterizer draws scenes into RGBA images.
type Rasterizer struct {
	fonts *FontBook
}

func NewRasterizer(fonts *FontBook) *Rasterizer {
	return &Rasterizer{fonts: fonts}
}

// Render draws s on a white background in painter's order: shapes, strokes,
// then texts.
func (r *Rasterizer) Render(s *scene.Scene, opts Options) (*image.RGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, ErrInvalidSize
	}
	if opts.View.Scale <= 0 {
		opts.View = geom.DefaultView()
	}

	bounds := image.Rect(0, 0, opts.Width, opts.Height)
	p := &painter{
		canvas: image.NewRGBA(bounds),
		view:   opts.View,
		z:      vector.NewRasterizer(opts.Width, opts.Height),
	}
	draw.Draw(p.canvas, bounds, image.White, image.Point{}, draw.Src)
	if opts.Invert {
		p.mask = image.NewAlpha(bounds)
	}

	if s != nil {
		for _, sh := range s.Shapes {
			p.shape(sh)
		}
		for _, st := range s.Strokes {
			p.stroke(st)
		}
		for _, t := range s.Texts {
			if err := p.text(r.fonts, t); err != nil {
				return nil, fmt.Errorf("render text %d: %w", t.ID, err)
			}
		}
	}

	if p.mask != nil {
		invertMasked(p.canvas, p.mask)
	}
	return p.canvas, nil
}

// painter holds the targets of one render. mask, when set, tracks coverage
// of painted (non-background) pixels; erased is scratch coverage for one
// eraser stroke.
type painter struct {
	canvas *image.RGBA
	mask   *image.Alpha
	erased *image.Alpha
	view   geom.ViewTransform
	z      *vector.Rasterizer
}

// paint rasterizes the outline produced by build onto the canvas and, for
// inversion, onto the coverage mask. Erasing paints the canvas like any other
// colour but removes coverage.
func (p *painter) paint(build func(z *vector.Rasterizer), c color.Color, erase bool) {
	b := p.canvas.Bounds()

	p.z.Reset(b.Dx(), b.Dy())
	p.z.DrawOp = draw.Over
	build(p.z)
	p.z.Draw(p.canvas, b, image.NewUniform(c), image.Point{})

	if p.mask == nil {
		return
	}
	p.z.Reset(b.Dx(), b.Dy())
	build(p.z)
	if !erase {
		p.z.Draw(p.mask, b, image.Opaque, image.Point{})
		return
	}

	if p.erased == nil {
		p.erased = image.NewAlpha(b)
	} else {
		clear(p.erased.Pix)
	}
	p.z.Draw(p.erased, b, image.Opaque, image.Point{})
	for i, e := range p.erased.Pix {
		if e != 0 {
			p.mask.Pix[i] = uint8(int(p.mask.Pix[i]) * (255 - int(e)) / 255)
		}
	}
}

func (p *painter) shape(sh scene.Shape) {
	subpaths := FlattenPath(ShapePath(sh), p.view.Matrix(), flattenTolerance)
	hw := max(sh.StrokeWidth*p.view.Scale/2, 0.5)

	if sh.Filled && sh.Type != scene.ShapeLine {
		p.paint(func(z *vector.Rasterizer) {
			for _, sp := range subpaths {
				fillPolygon(z, sp.Points)
			}
		}, sh.Color, false)
	}
	p.paint(func(z *vector.Rasterizer) {
		for _, sp := range subpaths {
			strokePolyline(z, sp.Points, sp.Closed, hw)
		}
	}, sh.Color, false)
}

func (p *painter) stroke(st scene.Stroke) {
	subpaths := FlattenPath(StrokePath(st.Points), p.view.Matrix(), flattenTolerance)
	hw := max(st.StrokeWidth*p.view.Scale/2, 0.5)

	p.paint(func(z *vector.Rasterizer) {
		for _, sp := range subpaths {
			strokePolyline(z, sp.Points, false, hw)
		}
	}, st.Color, st.Tool == scene.ToolEraser)
}

func (p *painter) text(fonts *FontBook, t scene.TextObject) error {
	if fonts == nil || t.Content == "" {
		return nil
	}
	scale := p.view.Scale
	lines := t.Lines()

	widths := make([]float64, len(lines))
	var block float64
	for i, l := range lines {
		widths[i] = fonts.MeasureLine(l, t.FontSize, t.FontFamily)
		block = max(block, widths[i])
	}

	origin := p.view.ToScreen(t.Position)
	size := t.FontSize * scale
	return fonts.withFace(t.FontFamily, size, func(face font.Face) {
		ascent := face.Metrics().Ascent
		for i, line := range lines {
			x := origin.X + t.LineOffset(widths[i], block)*scale
			top := origin.Y + float64(i)*size
			dot := fixed.Point26_6{X: toFixed(x), Y: toFixed(top) + ascent}

			d := font.Drawer{Dst: p.canvas, Src: image.NewUniform(t.Color), Face: face, Dot: dot}
			d.DrawString(line)
			if p.mask != nil {
				d = font.Drawer{Dst: p.mask, Src: image.Opaque, Face: face, Dot: dot}
				d.DrawString(line)
			}
		}
	})
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func fillPolygon(z *vector.Rasterizer, pts []geom.Point) {
	if len(pts) < 3 {
		return
	}
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, q := range pts[1:] {
		z.LineTo(float32(q.X), float32(q.Y))
	}
	z.ClosePath()
}

// strokePolyline adds the outline of a polyline of half-width hw with round
// joins and caps. Every subpath is emitted with the same orientation, so the
// overlapping pieces accumulate instead of cancelling.
func strokePolyline(z *vector.Rasterizer, pts []geom.Point, closed bool, hw float64) {
	if len(pts) == 0 {
		return
	}
	if closed && len(pts) > 1 {
		pts = append(pts[:len(pts):len(pts)], pts[0])
	}
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		l := a.Dist(b)
		if l == 0 {
			continue
		}
		n := geom.Pt(-(b.Y-a.Y)/l*hw, (b.X-a.X)/l*hw)
		z.MoveTo(float32(a.X+n.X), float32(a.Y+n.Y))
		z.LineTo(float32(b.X+n.X), float32(b.Y+n.Y))
		z.LineTo(float32(b.X-n.X), float32(b.Y-n.Y))
		z.LineTo(float32(a.X-n.X), float32(a.Y-n.Y))
		z.ClosePath()
	}
	for _, c := range pts {
		disc(z, c, hw)
	}
}

// disc adds a circle traced with decreasing angle, matching the orientation
// of the segment quads in strokePolyline.
func disc(z *vector.Rasterizer, c geom.Point, r float64) {
	n := int(math.Ceil(2 * math.Pi * r / 2))
	n = max(8, min(n, 64))
	z.MoveTo(float32(c.X+r), float32(c.Y))
	for i := 1; i < n; i++ {
		a := -2 * math.Pi * float64(i) / float64(n)
		z.LineTo(float32(c.X+r*math.Cos(a)), float32(c.Y+r*math.Sin(a)))
	}
	z.ClosePath()
}

// invertMasked blends each pixel towards its complement by its coverage.
func invertMasked(img *image.RGBA, mask *image.Alpha) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := int(mask.Pix[mask.PixOffset(x, y)])
			if a == 0 {
				continue
			}
			i := img.PixOffset(x, y)
			for c := range 3 {
				v := int(img.Pix[i+c])
				img.Pix[i+c] = uint8((v*(255-a) + (255-v)*a) / 255)
			}
		}
	}
}
