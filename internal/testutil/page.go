// Package testutil builds synthetic scanned pages for tests: a white
// raster with rendered text, plus the recognition result a perfect OCR
// engine would return for it.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/ocr"
)

// PageBuilder accumulates text fragments and renders them into a page
// raster alongside the matching OCR result.
type PageBuilder struct {
	size  geometry.Size
	frags []ocr.TextFragment
}

// NewPage starts a synthetic page of the given pixel size.
func NewPage(w, h int) *PageBuilder {
	return &PageBuilder{size: geometry.Size{W: w, H: h}}
}

// AddText places one text fragment at the given position. The box is
// sized from the glyph metrics of the fixed test font.
func (b *PageBuilder) AddText(x, y int, text string) *PageBuilder {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	b.frags = append(b.frags, ocr.TextFragment{
		Box:        geometry.Box{X: x, Y: y, W: w, H: face.Height},
		Text:       text,
		Confidence: 0.95,
	})
	return b
}

// Build renders the page and returns it with its OCR result.
func (b *PageBuilder) Build() (image.Image, *ocr.Result) {
	img := image.NewNRGBA(image.Rect(0, 0, b.size.W, b.size.H))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	full := ""
	for _, f := range b.frags {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.Black),
			Face: face,
			Dot:  fixed.P(f.Box.X, f.Box.Y+face.Ascent),
		}
		d.DrawString(f.Text)
		if full != "" {
			full += " "
		}
		full += f.Text
	}

	return img, &ocr.Result{
		Width:     b.size.W,
		Height:    b.size.H,
		FullText:  full,
		Fragments: append([]ocr.TextFragment(nil), b.frags...),
	}
}

// SavePNG writes an image for tests that need a file on disk.
func SavePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()
	require.NoError(t, png.Encode(f, img))
}
