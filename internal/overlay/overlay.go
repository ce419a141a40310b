// Package overlay computes non-overlapping positions for translated
// labels on a cleaned figure raster. Placement is pure geometry: the
// engine knows nothing about PDF or raster rendering and measures text
// through a width-factor estimate so any renderer can consume its
// output.
package overlay

import (
	"log/slog"
	"math"

	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/translate"
)

// Anchor names the candidate position relative to the original box.
type Anchor string

const (
	AnchorBelow Anchor = "below"
	AnchorAbove Anchor = "above"
	AnchorRight Anchor = "right"
	AnchorLeft  Anchor = "left"
)

// Placement is the computed target rectangle for one translated label,
// in figure-local pixel coordinates.
type Placement struct {
	Label    translate.TranslatedLabel
	Box      geometry.Box
	FontSize float64
	Anchor   Anchor
	// Leader marks offset placements that need a connecting line back
	// to the original box.
	Leader bool
	// Forced marks the only placements allowed to violate the
	// clearance invariant.
	Forced bool
}

// Config holds the placement parameters. Font sizes are in pixels on
// the figure raster.
type Config struct {
	BaseFontSize float64
	// MinFontSize bounds the shrink ladder from below (the 7pt-
	// equivalent legibility floor).
	MinFontSize float64
	// Clearance is the minimum separation between placed labels and
	// any obstacle, in pixels.
	Clearance int
	// NearGap separates a near candidate from the original box.
	NearGap int
	// OffsetGap separates a leader-line candidate from the original box.
	OffsetGap int
	// WidthFactor estimates rendered glyph width as a fraction of the
	// font size.
	WidthFactor float64
	// LineHeightFactor estimates rendered text height as a multiple of
	// the font size.
	LineHeightFactor float64
}

// DefaultConfig returns placement parameters for ~300 DPI figure crops.
func DefaultConfig() Config {
	return Config{
		BaseFontSize:     22,
		MinFontSize:      10,
		Clearance:        5,
		NearGap:          4,
		OffsetGap:        28,
		WidthFactor:      0.55,
		LineHeightFactor: 1.2,
	}
}

// Engine places translated labels.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine builds a placement engine.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseFontSize <= 0 {
		cfg.BaseFontSize = 22
	}
	if cfg.MinFontSize <= 0 {
		cfg.MinFontSize = 10
	}
	if cfg.WidthFactor <= 0 {
		cfg.WidthFactor = 0.55
	}
	if cfg.LineHeightFactor <= 0 {
		cfg.LineHeightFactor = 1.2
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Measure estimates the rendered box size for text at a font size.
func (e *Engine) Measure(text string, fontSize float64) geometry.Size {
	runes := 0
	for range text {
		runes++
	}
	w := int(math.Ceil(float64(runes) * fontSize * e.cfg.WidthFactor))
	h := int(math.Ceil(fontSize * e.cfg.LineHeightFactor))
	return geometry.Size{W: w, H: h}
}

// FontSizes returns the descending size ladder {base, 0.8·base,
// 0.6·base}, clipped at the legibility floor.
func (e *Engine) FontSizes() []float64 {
	var out []float64
	for _, factor := range []float64{1.0, 0.8, 0.6} {
		size := e.cfg.BaseFontSize * factor
		if size < e.cfg.MinFontSize {
			size = e.cfg.MinFontSize
		}
		if len(out) > 0 && out[len(out)-1] == size {
			continue
		}
		out = append(out, size)
	}
	return out
}

// Place computes a position for every label. Labels are processed in
// input order; obstacles are the untranslated fragment boxes that must
// keep their clearance. Labels that fit nowhere are force-placed at the
// minimum size and flagged, which is logged as a quality signal.
func (e *Engine) Place(labels []translate.TranslatedLabel, obstacles []geometry.Box, canvas geometry.Size) []Placement {
	placements := make([]Placement, 0, len(labels))
	blocked := make([]geometry.Box, 0, len(obstacles)+len(labels))
	blocked = append(blocked, obstacles...)

	for _, l := range labels {
		p := e.placeOne(l, blocked, canvas)
		placements = append(placements, p)
		blocked = append(blocked, p.Box)
	}
	return placements
}

func (e *Engine) placeOne(l translate.TranslatedLabel, blocked []geometry.Box, canvas geometry.Size) Placement {
	for _, size := range e.FontSizes() {
		dims := e.Measure(l.Translation, size)
		for _, cand := range e.candidates(l.Box, dims) {
			if e.fits(cand.box, blocked, canvas) {
				return Placement{
					Label:    l,
					Box:      cand.box,
					FontSize: size,
					Anchor:   cand.anchor,
					Leader:   cand.leader,
				}
			}
		}
	}

	// Nothing fits anywhere: anchor at minimum size near the original
	// box, clamped to the canvas.
	dims := e.Measure(l.Translation, e.cfg.MinFontSize)
	box := geometry.Box{X: l.Box.X, Y: l.Box.Bottom() + e.cfg.NearGap, W: dims.W, H: dims.H}
	box = clampToCanvas(box, canvas)
	e.logger.Warn("force-placed label",
		"text", l.Translation, "x", box.X, "y", box.Y)
	return Placement{
		Label:    l,
		Box:      box,
		FontSize: e.cfg.MinFontSize,
		Anchor:   AnchorBelow,
		Forced:   true,
	}
}

type candidate struct {
	box    geometry.Box
	anchor Anchor
	leader bool
}

// candidates returns the fixed priority order: the four near positions
// first, then the same four offset further out with a leader line.
func (e *Engine) candidates(orig geometry.Box, dims geometry.Size) []candidate {
	build := func(gap int, leader bool) []candidate {
		return []candidate{
			{box: geometry.Box{X: orig.X, Y: orig.Bottom() + gap, W: dims.W, H: dims.H}, anchor: AnchorBelow, leader: leader},
			{box: geometry.Box{X: orig.X, Y: orig.Y - gap - dims.H, W: dims.W, H: dims.H}, anchor: AnchorAbove, leader: leader},
			{box: geometry.Box{X: orig.Right() + gap, Y: orig.Y, W: dims.W, H: dims.H}, anchor: AnchorRight, leader: leader},
			{box: geometry.Box{X: orig.X - gap - dims.W, Y: orig.Y, W: dims.W, H: dims.H}, anchor: AnchorLeft, leader: leader},
		}
	}
	out := build(e.cfg.NearGap, false)
	return append(out, build(e.cfg.OffsetGap, true)...)
}

func (e *Engine) fits(box geometry.Box, blocked []geometry.Box, canvas geometry.Size) bool {
	if box.X < 0 || box.Y < 0 || box.Right() > canvas.W || box.Bottom() > canvas.H {
		return false
	}
	for _, b := range blocked {
		if box.OverlapsWithClearance(b, e.cfg.Clearance) {
			return false
		}
	}
	return true
}

func clampToCanvas(box geometry.Box, canvas geometry.Size) geometry.Box {
	if box.Right() > canvas.W {
		box.X = canvas.W - box.W
	}
	if box.Bottom() > canvas.H {
		box.Y = canvas.H - box.H
	}
	if box.X < 0 {
		box.X = 0
	}
	if box.Y < 0 {
		box.Y = 0
	}
	return box.Clamp(canvas.W, canvas.H)
}
