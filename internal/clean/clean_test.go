package clean

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repage-dev/repage/internal/geometry"
)

// paper builds a light-gray raster with a dark glyph block inside box.
func paper(w, h int, glyph geometry.Box) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	bg := color.NRGBA{R: 230, G: 230, B: 230, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, bg)
		}
	}
	r := glyph.ToRect()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
		}
	}
	return img
}

func TestEstimateBackgroundFindsPaperTone(t *testing.T) {
	img := paper(100, 100, geometry.Box{X: 10, Y: 10, W: 20, H: 10})
	bg := estimateBackground(img, 95)
	assert.Equal(t, uint8(230), bg.R)
}

func TestSolidFillRemovesGlyph(t *testing.T) {
	glyph := geometry.Box{X: 30, Y: 30, W: 20, H: 12}
	img := paper(100, 100, glyph)
	c := New(Config{Strategy: StrategySolidFill, Post: PostNone, FillPadding: 3, BackgroundPercentile: 95})
	out, err := c.Clean(img, []geometry.Box{glyph})
	require.NoError(t, err)

	// Center of the old glyph is now background-colored.
	px := out.NRGBAAt(40, 36)
	assert.Equal(t, uint8(230), px.R)
}

func TestInpaintFillsFromSurroundings(t *testing.T) {
	glyph := geometry.Box{X: 40, Y: 40, W: 10, H: 8}
	img := paper(100, 100, glyph)
	c := New(Config{Strategy: StrategyInpaint, Post: PostNone, FillPadding: 2, InpaintRadius: 3, BackgroundPercentile: 95})
	out, err := c.Clean(img, []geometry.Box{glyph})
	require.NoError(t, err)

	px := out.NRGBAAt(45, 44)
	assert.Greater(t, px.R, uint8(200), "masked pixel should take on paper tone")
}

func TestRawStrategyKeepsGlyph(t *testing.T) {
	glyph := geometry.Box{X: 30, Y: 30, W: 20, H: 12}
	img := paper(100, 100, glyph)
	c := New(Config{Strategy: StrategyRaw, Post: PostNone, BackgroundPercentile: 95})
	out, err := c.Clean(img, []geometry.Box{glyph})
	require.NoError(t, err)
	assert.Equal(t, uint8(20), out.NRGBAAt(40, 36).R)
}

func TestEnhancedBinarizesToBlackOnWhite(t *testing.T) {
	glyph := geometry.Box{X: 20, Y: 20, W: 30, H: 16}
	img := paper(120, 120, glyph)
	cfg := DefaultConfig()
	cfg.Strategy = StrategyRaw
	cfg.SpeckleMaxArea = 0 // keep the glyph regardless of size
	c := New(cfg)
	out, err := c.Clean(img, nil)
	require.NoError(t, err)

	// Background is pure white, glyph interior is pure black.
	assert.Equal(t, uint8(255), out.NRGBAAt(100, 100).R)
	assert.Equal(t, uint8(0), out.NRGBAAt(35, 28).R)
}

func TestSpeckleRemoval(t *testing.T) {
	w, h := 50, 50
	ink := make([]bool, w*h)
	// 3x3 speckle (area 9) and a 10x10 block (area 100).
	for y := 5; y < 8; y++ {
		for x := 5; x < 8; x++ {
			ink[y*w+x] = true
		}
	}
	for y := 20; y < 30; y++ {
		for x := 20; x < 30; x++ {
			ink[y*w+x] = true
		}
	}
	removeSpeckles(ink, w, h, 40)
	assert.False(t, ink[6*w+6], "small component removed")
	assert.True(t, ink[25*w+25], "large component preserved")
}

func TestLightModeBrightensTowardWhite(t *testing.T) {
	glyph := geometry.Box{X: 20, Y: 20, W: 10, H: 10}
	img := paper(100, 100, glyph)
	cfg := DefaultConfig()
	cfg.Strategy = StrategyRaw
	cfg.Post = PostLight
	c := New(cfg)
	out, err := c.Clean(img, nil)
	require.NoError(t, err)

	assert.Equal(t, uint8(255), out.NRGBAAt(80, 80).R, "background rescaled to white")
	assert.Less(t, out.NRGBAAt(25, 25).R, uint8(80), "ink stays dark")
}

func TestCleanNilCrop(t *testing.T) {
	c := New(DefaultConfig())
	_, err := c.Clean(nil, nil)
	assert.Error(t, err)
}

func TestAdaptiveThresholdUniformImageHasNoInk(t *testing.T) {
	w, h := 40, 40
	gray := make([]int, w*h)
	for i := range gray {
		gray[i] = 200
	}
	ink := adaptiveThreshold(gray, w, h, 25, 15)
	for _, v := range ink {
		assert.False(t, v)
	}
}
