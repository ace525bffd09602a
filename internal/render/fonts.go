package render

import (
	"fmt"
	"math"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// maxCachedFaces bounds the face cache; zooming creates a face per scaled size.
const maxCachedFaces = 128

type faceKey struct {
	family string
	// size in 1/64 px so nearby float sizes share a face
	size int
}

// FontBook maps the editor's font families onto the bundled Go fonts and
// caches faces by family and size. It implements scene.TextMeasurer, so hit
// tests measure text with the same metrics the rasterizer draws with.
//
// font.Face values are not safe for concurrent use; every use happens under
// the book's lock.
type FontBook struct {
	mu       sync.Mutex
	families map[string]*opentype.Font
	fallback *opentype.Font
	cache    map[faceKey]font.Face
}

// NewFontBook parses the bundled fonts.
func NewFontBook() (*FontBook, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse goregular: %w", err)
	}
	medium, err := opentype.Parse(gomedium.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse gomedium: %w", err)
	}
	mono, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse gomono: %w", err)
	}

	return &FontBook{
		families: map[string]*opentype.Font{
			"Arial":           regular,
			"Times New Roman": regular,
			"Comic Sans MS":   medium,
			"Courier New":     mono,
		},
		fallback: regular,
		cache:    make(map[faceKey]font.Face),
	}, nil
}

// MeasureLine returns the advance width of line at fontSize, in the same
// units as fontSize.
func (b *FontBook) MeasureLine(line string, fontSize float64, family string) float64 {
	var w float64
	err := b.withFace(family, fontSize, func(face font.Face) {
		w = float64(font.MeasureString(face, line)) / 64
	})
	if err != nil {
		return float64(utf8.RuneCountInString(line)) * fontSize * 0.6
	}
	return w
}

// withFace runs fn with the cached face for family at size px.
func (b *FontBook) withFace(family string, size float64, fn func(font.Face)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := faceKey{family: family, size: int(math.Round(size * 64))}
	face, ok := b.cache[key]
	if !ok {
		f, ok := b.families[family]
		if !ok {
			f = b.fallback
		}
		var err error
		face, err = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    float64(key.size) / 64,
			DPI:     72,
			Hinting: font.HintingNone,
		})
		if err != nil {
			return fmt.Errorf("new face %q %.2fpx: %w", family, size, err)
		}
		if len(b.cache) >= maxCachedFaces {
			for k, old := range b.cache {
				_ = old.Close()
				delete(b.cache, k)
			}
		}
		b.cache[key] = face
	}
	fn(face)
	return nil
}
