package session

import (
	"bytes"
	"errors"
	"image"
	"math"

	"github.com/sketchify/sketchify/backend-go/internal/analysis"
	"github.com/sketchify/sketchify/backend-go/internal/geom"
	"github.com/sketchify/sketchify/backend-go/internal/render"
	"github.com/sketchify/sketchify/backend-go/internal/scene"
)

const (
	maxExportSide = 8192
	fitPadding    = 20.0
)

var ErrExportSize = errors.New("export size out of range")

// ExportOptions selects the output of one export. Zero sizes fall back to
// the exporter defaults.
type ExportOptions struct {
	Width  int
	Height int
	Invert bool
	// Fit frames the whole drawing instead of the current view.
	Fit bool
}

// Exporter rasterizes session captures.
type Exporter struct {
	Rasterizer *render.Rasterizer
	// Measurer sizes text when fitting to content; nil approximates.
	Measurer scene.TextMeasurer
	Width    int
	Height   int
}

// Image renders c as it appears on screen, under the capture's view, or
// framed to its content when opts.Fit is set.
func (x *Exporter) Image(c Capture, opts ExportOptions) (*image.RGBA, error) {
	if opts.Width == 0 {
		opts.Width = x.Width
	}
	if opts.Height == 0 {
		opts.Height = x.Height
	}
	if opts.Width <= 0 || opts.Height <= 0 || opts.Width > maxExportSide || opts.Height > maxExportSide {
		return nil, ErrExportSize
	}
	view := c.View
	if opts.Fit {
		view = x.fitView(c.Scene, opts.Width, opts.Height)
	}
	return x.Rasterizer.Render(c.Scene, render.Options{
		Width:  opts.Width,
		Height: opts.Height,
		View:   view,
		Invert: opts.Invert,
	})
}

// fitView centres the drawing in a w×h image with some padding. It never
// enlarges the drawing past 1:1.
func (x *Exporter) fitView(s *scene.Scene, w, h int) geom.ViewTransform {
	b := render.SceneBounds(s, x.Measurer)
	if b.IsEmpty() {
		return geom.DefaultView()
	}
	b = b.Inset(fitPadding)

	scale := min(1, float64(w)/b.Width, float64(h)/b.Height)
	scale = geom.ClampScale(scale)
	c := b.Center()
	return geom.ViewTransform{
		Scale: scale,
		Offset: geom.Point{
			X: float64(w)/2 - c.X*scale,
			Y: float64(h)/2 - c.Y*scale,
		},
	}
}

func (x *Exporter) PNG(c Capture, opts ExportOptions) ([]byte, error) {
	img, err := x.Image(c, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (x *Exporter) PDF(c Capture, opts ExportOptions) ([]byte, error) {
	img, err := x.Image(c, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := render.EncodePDF(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// AnalysisRequest captures the session now and defers rendering until the
// panel has validated the prompt. The canvas is sent the way the user sees
// it: current viewport size, view and dark mode.
func (x *Exporter) AnalysisRequest(s *Session, prompt string) analysis.Request {
	c := s.Capture()
	opts := ExportOptions{
		Width:  int(math.Round(c.State.ViewportWidth)),
		Height: int(math.Round(c.State.ViewportHeight)),
		Invert: c.State.DarkMode,
	}
	return analysis.Request{
		Prompt: prompt,
		Drawn:  !c.Scene.IsEmpty(),
		Render: func() ([]byte, error) { return x.PNG(c, opts) },
	}
}
