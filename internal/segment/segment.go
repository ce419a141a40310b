// Package segment partitions a page into alternating text-flow
// sections and figure regions. Two strategies exist: HintSegmenter
// consumes semantic regions from the layout classifier, GapSegmenter
// falls back to vertical-gap detection over the OCR fragments.
package segment

import (
	"sort"

	"github.com/repage-dev/repage/internal/cluster"
	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/layout"
	"github.com/repage-dev/repage/internal/ocr"
)

// Section is one vertical slice of the page. Band is the half-open
// vertical interval [Y0,Y1) the section owns; bands of all sections
// tile the full page height with no gaps and no overlaps. Box is the
// tight content region used for cropping figure rasters.
type Section struct {
	Kind      layout.RegionType  `json:"kind"`
	Band      Span               `json:"band"`
	Box       geometry.Box       `json:"box"`
	Labels    []cluster.Label    `json:"labels,omitempty"`
	Fragments []ocr.TextFragment `json:"fragments,omitempty"`
}

// Span is a half-open vertical interval in page pixel coordinates.
type Span struct {
	Y0 int `json:"y0"`
	Y1 int `json:"y1"`
}

// Height returns the span height.
func (s Span) Height() int { return s.Y1 - s.Y0 }

// Contains reports whether y lies inside the span.
func (s Span) Contains(y int) bool { return y >= s.Y0 && y < s.Y1 }

// IsFigure reports whether the section holds a figure rather than
// flowing text.
func (s Section) IsFigure() bool { return s.Kind != layout.RegionText }

// Segmenter partitions a page into ordered sections.
type Segmenter interface {
	Segment(page geometry.Size, frags []ocr.TextFragment) ([]Section, error)
}

// Select returns the hint-based segmenter when a usable analysis is
// available, otherwise the heuristic fallback.
func Select(analysis *layout.Analysis, cfg Config) Segmenter {
	if analysis != nil && analysis.Validate() == nil && len(analysis.Regions) > 0 {
		return NewHintSegmenter(analysis, cfg)
	}
	return NewGapSegmenter(cfg)
}

// Config holds the segmentation tolerances. The zero value is not
// usable; call DefaultConfig.
type Config struct {
	// GapThreshold is the vertical whitespace in pixels that closes a
	// text section and opens a figure region.
	GapThreshold int
	// TopPad and BottomPad expand a figure region around its content.
	// Bottom padding is larger because figure bottoms are the most
	// truncation-prone edge.
	TopPad    int
	BottomPad int
	// SidePad expands the horizontal span around figure-label fragments.
	SidePad int
	// ProseWidthRatio marks a fragment as prose when its width exceeds
	// this fraction of the page width.
	ProseWidthRatio float64
	// NeighborHeightFactor is the multiple of a fragment's own height
	// within which a vertically adjacent, horizontally overlapping
	// neighbor still marks it as prose.
	NeighborHeightFactor float64
	// ContainTolerance is the pixel slack when testing whether a
	// fragment is inside a hinted figure region.
	ContainTolerance int
	// Cluster controls the prose label clustering.
	Cluster cluster.Options
}

// DefaultConfig returns tolerances tuned for ~300 DPI scans.
func DefaultConfig() Config {
	return Config{
		GapThreshold:         100,
		TopPad:               60,
		BottomPad:            140,
		SidePad:              40,
		ProseWidthRatio:      0.3,
		NeighborHeightFactor: 2.5,
		ContainTolerance:     5,
		Cluster:              cluster.DefaultOptions(),
	}
}

// tile builds the final ordered section list from figure intervals:
// figure sections own their bands, text sections fill the complement so
// the union covers the page exactly. A page with no figures becomes a
// single full-height text section.
func tile(page geometry.Size, figures []Section, prose, excluded []ocr.TextFragment, opts cluster.Options) []Section {
	sort.SliceStable(figures, func(i, j int) bool { return figures[i].Band.Y0 < figures[j].Band.Y0 })

	// Excluded fragments outside every figure band (typically a page
	// number in the header) flow back into their text section.
	var orphans []ocr.TextFragment
	for _, f := range excluded {
		claimed := false
		for _, fig := range figures {
			if fig.Band.Contains(f.Box.Y) {
				claimed = true
				break
			}
		}
		if !claimed {
			orphans = append(orphans, f)
		}
	}

	var out []Section
	cursor := 0
	emitText := func(y0, y1 int) {
		if y1 <= y0 {
			return
		}
		band := Span{Y0: y0, Y1: y1}
		var inBand []ocr.TextFragment
		for _, f := range prose {
			if band.Contains(f.Box.Y) {
				inBand = append(inBand, f)
			}
		}
		for _, f := range orphans {
			if band.Contains(f.Box.Y) {
				inBand = append(inBand, f)
			}
		}
		sec := Section{
			Kind:      layout.RegionText,
			Band:      band,
			Box:       geometry.Box{X: 0, Y: y0, W: page.W, H: y1 - y0},
			Labels:    cluster.Cluster(inBand, opts),
			Fragments: inBand,
		}
		out = append(out, sec)
	}

	for _, fig := range figures {
		if fig.Band.Y0 > cursor {
			emitText(cursor, fig.Band.Y0)
		}
		for _, f := range excluded {
			if fig.Band.Contains(f.Box.Y) {
				fig.Fragments = append(fig.Fragments, f)
			}
		}
		out = append(out, fig)
		if fig.Band.Y1 > cursor {
			cursor = fig.Band.Y1
		}
	}
	emitText(cursor, page.H)

	if len(out) == 0 {
		emitText(0, page.H)
	}
	return out
}
