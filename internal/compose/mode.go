// Package compose renders reconstructed pages into PDF documents:
// flowing translated text, cleaned figure rasters with annotation
// overlays or marker legends, and structured tables and charts.
package compose

import (
	"strings"
	"unicode"

	"github.com/repage-dev/repage/internal/overlay"
	"github.com/repage-dev/repage/internal/translate"
)

// Mode is the rendering decision for one figure annotation.
type Mode string

const (
	// ModeInline draws the translated text directly on the figure.
	ModeInline Mode = "inline"
	// ModeMarker draws a numbered marker on the figure and moves the
	// text to the legend below it.
	ModeMarker Mode = "marker"
	// ModeLegend moves the text to the legend without a marker, used
	// for captions along the bottom of a figure.
	ModeLegend Mode = "legend"
)

// FigureInfo carries the figure geometry the mode decision needs, in
// source raster pixels.
type FigureInfo struct {
	Width      int
	Height     int
	PageHeight int
}

// DecideMode picks how an annotation is rendered. Long translations
// that would overflow their original box become markers so the figure
// stays legible, but short labels, single-letter diagram tokens like
// "P1" or "V2", and labels on small inline diagrams always render in
// place. Captions sitting in the bottom band of a figure go straight
// to the legend.
func (c Config) DecideMode(pl overlay.Placement, fig FigureInfo) Mode {
	lbl := pl.Label

	if fig.Height > 0 {
		centerY := float64(lbl.Box.Y) + float64(lbl.Box.H)/2
		if centerY > c.CaptionBandRatio*float64(fig.Height) {
			return ModeLegend
		}
	}

	if fig.PageHeight > 0 && float64(fig.Height) < c.SmallFigureRatio*float64(fig.PageHeight) {
		return ModeInline
	}
	if translate.IsCriticalToken(lbl.Text) {
		return ModeInline
	}
	if shortLabel(lbl.Translation, c.ShortMaxChars, c.ShortMaxWords) {
		return ModeInline
	}

	overrun := lbl.Box.W > 0 && float64(pl.Box.W) > c.WidthOverrunFactor*float64(lbl.Box.W)
	if overrun || pl.Forced {
		return ModeMarker
	}
	return ModeInline
}

func shortLabel(s string, maxChars, maxWords int) bool {
	runes := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			runes++
		}
	}
	return runes <= maxChars && len(strings.Fields(s)) <= maxWords
}
