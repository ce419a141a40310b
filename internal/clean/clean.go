// Package clean removes source-language glyphs from figure rasters and
// optionally normalizes paper noise, producing the blank canvas the
// overlay engine draws translated labels onto.
package clean

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/repage-dev/repage/internal/geometry"
)

// Strategy selects how source glyphs are removed.
type Strategy int

const (
	// StrategyRaw skips glyph removal entirely.
	StrategyRaw Strategy = iota
	// StrategySolidFill paints each fragment box with the estimated
	// background color. Cheap, and right for near-uniform backgrounds.
	StrategySolidFill
	// StrategyInpaint reconstructs masked pixels from surrounding
	// texture. For photographed pages with shading.
	StrategyInpaint
)

// Post selects the optional normalization pass after glyph removal.
type Post int

const (
	// PostNone leaves the raster as removed.
	PostNone Post = iota
	// PostEnhanced applies adaptive binarization plus speckle removal,
	// flattening paper noise into crisp black ink on white.
	PostEnhanced
	// PostLight rescales intensities toward the background estimate
	// without binarization, preserving gradient shading.
	PostLight
)

// Config holds the cleaning parameters.
type Config struct {
	Strategy Strategy
	Post     Post
	// FillPadding expands each fragment box before filling or masking.
	FillPadding int
	// InpaintRadius is the neighborhood radius for inpainting.
	InpaintRadius int
	// ThresholdBlock is the local window size for adaptive binarization.
	ThresholdBlock int
	// ThresholdBias is subtracted from the local mean; larger values
	// suppress more noise.
	ThresholdBias int
	// SpeckleMaxArea removes binarized components at or below this area
	// in square pixels.
	SpeckleMaxArea int
	// BackgroundPercentile is the grayscale histogram percentile used
	// as the background estimate (0-100).
	BackgroundPercentile float64
}

// DefaultConfig returns cleaning parameters tuned for scanned
// technical diagrams.
func DefaultConfig() Config {
	return Config{
		Strategy:             StrategySolidFill,
		Post:                 PostEnhanced,
		FillPadding:          3,
		InpaintRadius:        3,
		ThresholdBlock:       25,
		ThresholdBias:        15,
		SpeckleMaxArea:       40,
		BackgroundPercentile: 95,
	}
}

// Cleaner applies the configured removal strategy and post-pass.
type Cleaner struct {
	cfg Config
}

// New builds a Cleaner.
func New(cfg Config) *Cleaner {
	if cfg.FillPadding <= 0 {
		cfg.FillPadding = 3
	}
	if cfg.InpaintRadius <= 0 {
		cfg.InpaintRadius = 3
	}
	if cfg.ThresholdBlock < 3 {
		cfg.ThresholdBlock = 25
	}
	if cfg.ThresholdBlock%2 == 0 {
		cfg.ThresholdBlock++
	}
	if cfg.BackgroundPercentile <= 0 || cfg.BackgroundPercentile > 100 {
		cfg.BackgroundPercentile = 95
	}
	return &Cleaner{cfg: cfg}
}

// Clean removes the given fragment boxes (crop-local coordinates) from
// the figure crop and applies the post-pass.
func (c *Cleaner) Clean(crop image.Image, fragBoxes []geometry.Box) (*image.NRGBA, error) {
	if crop == nil {
		return nil, fmt.Errorf("nil crop")
	}
	img := imaging.Clone(crop)
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return img, nil
	}

	switch c.cfg.Strategy {
	case StrategyRaw:
		// keep glyphs
	case StrategySolidFill:
		bg := estimateBackground(img, c.cfg.BackgroundPercentile)
		for _, box := range fragBoxes {
			rect := box.Pad(c.cfg.FillPadding).Clamp(b.Dx(), b.Dy()).ToRect()
			fillNRGBA(img, rect, bg)
		}
	case StrategyInpaint:
		mask := buildMask(b.Dx(), b.Dy(), fragBoxes, c.cfg.FillPadding)
		inpaint(img, mask, c.cfg.InpaintRadius)
	default:
		return nil, fmt.Errorf("unknown cleaning strategy %d", c.cfg.Strategy)
	}

	switch c.cfg.Post {
	case PostNone:
		return img, nil
	case PostEnhanced:
		return c.enhance(img), nil
	case PostLight:
		return c.lighten(img), nil
	default:
		return nil, fmt.Errorf("unknown post pass %d", c.cfg.Post)
	}
}

func fillNRGBA(img *image.NRGBA, rect image.Rectangle, col color.NRGBA) {
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetNRGBA(x, y, col)
		}
	}
}

func buildMask(w, h int, boxes []geometry.Box, padding int) []bool {
	mask := make([]bool, w*h)
	for _, box := range boxes {
		rect := box.Pad(padding).Clamp(w, h).ToRect()
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				mask[y*w+x] = true
			}
		}
	}
	return mask
}
