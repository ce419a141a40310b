package segment

import (
	"sort"
	"strings"

	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/layout"
	"github.com/repage-dev/repage/internal/ocr"
)

// GapSegmenter detects figure regions from vertical whitespace between
// prose lines. Used when no semantic layout hints are available.
type GapSegmenter struct {
	cfg Config
}

// NewGapSegmenter builds the heuristic segmenter.
func NewGapSegmenter(cfg Config) *GapSegmenter {
	return &GapSegmenter{cfg: cfg}
}

// Segment partitions the page by gap detection. Pages with no
// significant gap become a single full-height text section.
func (g *GapSegmenter) Segment(page geometry.Size, frags []ocr.TextFragment) ([]Section, error) {
	frags = ocr.NonEmpty(frags)
	if len(frags) == 0 {
		return tile(page, nil, nil, nil, g.cfg.Cluster), nil
	}
	prose := g.filterProse(page, frags)
	excluded := subtract(frags, prose)

	gaps := g.findGaps(page, prose)
	figures := make([]Section, 0, len(gaps))
	for _, gap := range gaps {
		// A contentless gap touching the bottom edge is page margin,
		// not a figure.
		if gap.Y1 >= page.H && !bandHasContent(gap, frags) {
			continue
		}
		figures = append(figures, g.refineFigure(page, gap, frags, prose))
	}
	return tile(page, figures, prose, excluded, g.cfg.Cluster), nil
}

// filterProse keeps fragments likely to belong to the main text flow:
// wide lines, or fragments with a vertically adjacent horizontally
// overlapping neighbor. Short isolated fragments are presumed figure
// labels.
func (g *GapSegmenter) filterProse(page geometry.Size, frags []ocr.TextFragment) []ocr.TextFragment {
	sorted := make([]ocr.TextFragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Box.Y < sorted[j].Box.Y })

	var prose []ocr.TextFragment
	for i, f := range sorted {
		if float64(f.Box.W) > float64(page.W)*g.cfg.ProseWidthRatio {
			prose = append(prose, f)
			continue
		}
		vThresh := float64(f.Box.H) * g.cfg.NeighborHeightFactor
		for j, other := range sorted {
			if i == j {
				continue
			}
			yDist := abs(f.Box.Y - other.Box.Y)
			if yDist > 0 && float64(yDist) < vThresh && f.Box.HorizontalOverlap(other.Box) > 0 {
				prose = append(prose, f)
				break
			}
		}
	}
	return prose
}

// findGaps walks the prose fragments top to bottom and records the
// whitespace intervals wider than the gap threshold, including a
// trailing gap below the last prose line.
func (g *GapSegmenter) findGaps(page geometry.Size, prose []ocr.TextFragment) []Span {
	sorted := make([]ocr.TextFragment, len(prose))
	copy(sorted, prose)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Box.Y == sorted[j].Box.Y {
			return sorted[i].Box.X < sorted[j].Box.X
		}
		return sorted[i].Box.Y < sorted[j].Box.Y
	})

	var gaps []Span
	lastBottom := 0
	seen := false
	for _, f := range sorted {
		if seen && f.Box.Y-lastBottom > g.cfg.GapThreshold {
			gaps = append(gaps, Span{Y0: lastBottom, Y1: f.Box.Y})
		}
		if f.Box.Bottom() > lastBottom {
			lastBottom = f.Box.Bottom()
		}
		seen = true
	}
	if page.H-lastBottom > g.cfg.GapThreshold {
		gaps = append(gaps, Span{Y0: lastBottom, Y1: page.H})
	}
	return gaps
}

// refineFigure shrinks or grows a gap interval around the content
// actually present in the band, padded asymmetrically, and tightens the
// horizontal span around the excluded label fragments. The band never
// crosses into neighboring prose.
func (g *GapSegmenter) refineFigure(page geometry.Size, gap Span, all, prose []ocr.TextFragment) Section {
	band := gap
	box := geometry.Box{X: 0, Y: gap.Y0, W: page.W, H: gap.Height()}

	var inBand []ocr.TextFragment
	for _, f := range all {
		if f.Box.Bottom() > gap.Y0 && f.Box.Y < gap.Y1 {
			inBand = append(inBand, f)
		}
	}
	if len(inBand) > 0 {
		contentTop := inBand[0].Box.Y
		contentBottom := inBand[0].Box.Bottom()
		for _, f := range inBand[1:] {
			if f.Box.Y < contentTop {
				contentTop = f.Box.Y
			}
			if f.Box.Bottom() > contentBottom {
				contentBottom = f.Box.Bottom()
			}
		}
		y0 := maxIntS(0, contentTop-g.cfg.TopPad)
		y1 := minIntS(page.H, contentBottom+g.cfg.BottomPad)
		// Keep the band inside the whitespace interval so figure and
		// text sections never overlap.
		y0 = maxIntS(y0, gap.Y0)
		y1 = minIntS(y1, gap.Y1)
		if y1 > y0 {
			band = Span{Y0: y0, Y1: y1}
		}

		proseSet := fragmentSet(prose)
		minX, maxX := -1, -1
		for _, f := range inBand {
			if _, ok := proseSet[fragKey(f)]; ok {
				continue
			}
			if strings.TrimSpace(f.Text) == "" {
				continue
			}
			if minX < 0 || f.Box.X < minX {
				minX = f.Box.X
			}
			if f.Box.Right() > maxX {
				maxX = f.Box.Right()
			}
		}
		box = geometry.Box{X: 0, Y: band.Y0, W: page.W, H: band.Height()}
		if minX >= 0 {
			x0 := maxIntS(0, minX-g.cfg.SidePad)
			x1 := minIntS(page.W, maxX+g.cfg.SidePad)
			box.X = x0
			box.W = x1 - x0
		}
	}

	return Section{Kind: layout.RegionDiagram, Band: band, Box: box}
}

func bandHasContent(band Span, frags []ocr.TextFragment) bool {
	for _, f := range frags {
		if f.Box.Bottom() > band.Y0 && f.Box.Y < band.Y1 && strings.TrimSpace(f.Text) != "" {
			return true
		}
	}
	return false
}

func subtract(all, remove []ocr.TextFragment) []ocr.TextFragment {
	set := fragmentSet(remove)
	var out []ocr.TextFragment
	for _, f := range all {
		if _, ok := set[fragKey(f)]; !ok {
			out = append(out, f)
		}
	}
	return out
}

type fragID struct {
	box  geometry.Box
	text string
}

func fragKey(f ocr.TextFragment) fragID {
	return fragID{box: f.Box, text: f.Text}
}

func fragmentSet(frags []ocr.TextFragment) map[fragID]struct{} {
	set := make(map[fragID]struct{}, len(frags))
	for _, f := range frags {
		set[fragKey(f)] = struct{}{}
	}
	return set
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minIntS(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxIntS(a, b int) int {
	if a > b {
		return a
	}
	return b
}
