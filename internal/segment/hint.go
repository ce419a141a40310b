package segment

import (
	"sort"

	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/layout"
	"github.com/repage-dev/repage/internal/ocr"
)

// HintSegmenter maps semantic regions from the layout classifier into
// page sections. Fragments contained in a figure region are excluded
// from prose reconstruction and attached to that region.
type HintSegmenter struct {
	analysis *layout.Analysis
	cfg      Config
}

// NewHintSegmenter builds the hint-based segmenter.
func NewHintSegmenter(analysis *layout.Analysis, cfg Config) *HintSegmenter {
	return &HintSegmenter{analysis: analysis, cfg: cfg}
}

// Segment partitions the page using classified regions. Figure regions
// are ordered by supplied reading order, falling back to top-to-bottom,
// left-to-right per column; their bands are made vertically monotone so
// sections still tile the page.
func (h *HintSegmenter) Segment(page geometry.Size, frags []ocr.TextFragment) ([]Section, error) {
	frags = ocr.NonEmpty(frags)

	type hinted struct {
		region layout.Region
		box    geometry.Box
	}
	var figs []hinted
	for _, r := range h.analysis.Regions {
		if r.Type == layout.RegionText {
			continue
		}
		box := r.Box.ToPixels(page)
		if box.Empty() {
			continue
		}
		figs = append(figs, hinted{region: r, box: box})
	}
	sort.SliceStable(figs, func(i, j int) bool {
		a, b := figs[i].region, figs[j].region
		if a.ReadingOrder != b.ReadingOrder {
			return a.ReadingOrder < b.ReadingOrder
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		if figs[i].box.Y != figs[j].box.Y {
			return figs[i].box.Y < figs[j].box.Y
		}
		return figs[i].box.X < figs[j].box.X
	})

	var prose, excluded []ocr.TextFragment
	for _, f := range frags {
		attached := false
		for _, fig := range figs {
			if fig.box.Contains(f.Box, h.cfg.ContainTolerance) {
				attached = true
				break
			}
		}
		if attached {
			excluded = append(excluded, f)
		} else {
			prose = append(prose, f)
		}
	}

	figures := make([]Section, 0, len(figs))
	cursor := 0
	for _, fig := range figs {
		y0 := maxIntS(fig.box.Y, cursor)
		y1 := maxIntS(fig.box.Bottom(), y0)
		figures = append(figures, Section{
			Kind: fig.region.Type,
			Band: Span{Y0: y0, Y1: y1},
			Box:  fig.box,
		})
		cursor = y1
	}
	return tile(page, figures, prose, excluded, h.cfg.Cluster), nil
}
