package segment

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/layout"
	"github.com/repage-dev/repage/internal/ocr"
)

func frag(x, y, w, h int, text string) ocr.TextFragment {
	return ocr.TextFragment{
		Box:        geometry.Box{X: x, Y: y, W: w, H: h},
		Text:       text,
		Confidence: 0.9,
	}
}

func TestGapSegmenterEmptyPage(t *testing.T) {
	g := NewGapSegmenter(DefaultConfig())
	secs, err := g.Segment(geometry.Size{W: 1000, H: 1400}, nil)
	require.NoError(t, err)
	// A blank page yields one full-height text section so downstream
	// composition has something to walk.
	require.Len(t, secs, 1)
	assert.Equal(t, layout.RegionText, secs[0].Kind)
	assertTiling(t, secs, 1400)
}

func TestGapSegmenterNoGapSinglePage(t *testing.T) {
	g := NewGapSegmenter(DefaultConfig())
	frags := []ocr.TextFragment{
		frag(50, 50, 800, 40, "first line of prose"),
		frag(50, 110, 800, 40, "second line of prose"),
		frag(50, 170, 800, 40, "third line of prose"),
	}
	secs, err := g.Segment(geometry.Size{W: 1000, H: 280}, frags)
	require.NoError(t, err)
	require.Len(t, secs, 1)
	assert.Equal(t, layout.RegionText, secs[0].Kind)
	assert.Equal(t, Span{Y0: 0, Y1: 280}, secs[0].Band)
	assert.NotEmpty(t, secs[0].Labels)
}

// Mirrors the three-section page: prose at the top, an isolated figure
// label in the middle whitespace, prose at the bottom.
func TestGapSegmenterThreeSections(t *testing.T) {
	g := NewGapSegmenter(DefaultConfig())
	frags := []ocr.TextFragment{
		frag(50, 100, 400, 60, "wide prose line left"),
		frag(460, 100, 390, 60, "wide prose line right"),
		frag(400, 300, 100, 30, "V1"),
		frag(50, 500, 400, 60, "closing prose left"),
		frag(460, 500, 390, 60, "closing prose right"),
	}
	page := geometry.Size{W: 1000, H: 600}
	secs, err := g.Segment(page, frags)
	require.NoError(t, err)
	require.Len(t, secs, 3)

	assert.Equal(t, layout.RegionText, secs[0].Kind)
	assert.Equal(t, layout.RegionDiagram, secs[1].Kind)
	assert.Equal(t, layout.RegionText, secs[2].Kind)

	// Figure band wraps the isolated label with asymmetric padding,
	// clamped to the whitespace interval.
	fig := secs[1]
	assert.Equal(t, 240, fig.Band.Y0)
	assert.Equal(t, 470, fig.Band.Y1)

	// Horizontal span tightens around the excluded label.
	assert.Equal(t, 360, fig.Box.X)
	assert.Equal(t, 180, fig.Box.W)

	// The isolated label must not leak into any text section.
	for _, sec := range []Section{secs[0], secs[2]} {
		for _, l := range sec.Labels {
			assert.NotContains(t, l.Text, "V1")
		}
	}
	// It belongs to the figure.
	require.Len(t, fig.Fragments, 1)
	assert.Equal(t, "V1", fig.Fragments[0].Text)

	assertTiling(t, secs, page.H)
}

func TestGapSegmenterTrailingFigure(t *testing.T) {
	g := NewGapSegmenter(DefaultConfig())
	frags := []ocr.TextFragment{
		frag(50, 50, 800, 40, "only prose line"),
		frag(400, 500, 80, 30, "V2"),
	}
	page := geometry.Size{W: 1000, H: 800}
	secs, err := g.Segment(page, frags)
	require.NoError(t, err)
	require.Len(t, secs, 3)
	assert.Equal(t, layout.RegionText, secs[0].Kind)
	assert.Equal(t, layout.RegionDiagram, secs[1].Kind)
	assert.Equal(t, layout.RegionText, secs[2].Kind)
	require.Len(t, secs[1].Fragments, 1)
	assert.Equal(t, "V2", secs[1].Fragments[0].Text)
	assertTiling(t, secs, page.H)
}

func TestGapSegmenterBottomMarginIsNotAFigure(t *testing.T) {
	g := NewGapSegmenter(DefaultConfig())
	frags := []ocr.TextFragment{
		frag(50, 50, 800, 40, "only prose line"),
	}
	page := geometry.Size{W: 1000, H: 800}
	secs, err := g.Segment(page, frags)
	require.NoError(t, err)
	require.Len(t, secs, 1)
	assert.Equal(t, layout.RegionText, secs[0].Kind)
	assertTiling(t, secs, page.H)
}

// A page number is short and isolated, so it never counts as prose;
// with no figure band to claim it, it must still surface in the text
// section it sits in.
func TestOrphanedHeaderFragmentJoinsTextSection(t *testing.T) {
	g := NewGapSegmenter(DefaultConfig())
	frags := []ocr.TextFragment{
		frag(450, 40, 100, 24, "[12]"),
		frag(100, 100, 400, 24, "first line"),
		frag(100, 140, 400, 24, "second line"),
	}
	page := geometry.Size{W: 1000, H: 1400}
	secs, err := g.Segment(page, frags)
	require.NoError(t, err)
	require.Len(t, secs, 1)

	var texts []string
	for _, l := range secs[0].Labels {
		texts = append(texts, l.Text)
	}
	require.NotEmpty(t, texts)
	assert.Equal(t, "[12]", texts[0])
	assert.Contains(t, texts, "first line")
}

func TestGapSegmenterIsolatedShortFragmentsExcluded(t *testing.T) {
	g := NewGapSegmenter(DefaultConfig())
	page := geometry.Size{W: 1000, H: 400}
	prose := g.filterProse(page, []ocr.TextFragment{
		frag(50, 50, 400, 30, "wide enough to be prose"),
		frag(700, 200, 50, 20, "P2"),
	})
	require.Len(t, prose, 1)
	assert.Equal(t, "wide enough to be prose", prose[0].Text)
}

func TestGapSegmenterNeighborConnectivity(t *testing.T) {
	g := NewGapSegmenter(DefaultConfig())
	page := geometry.Size{W: 1000, H: 400}
	// Narrow fragments stacked as consecutive lines: connectivity keeps
	// them in prose even though each is under the width threshold.
	prose := g.filterProse(page, []ocr.TextFragment{
		frag(100, 100, 200, 20, "short line one"),
		frag(100, 130, 200, 20, "short line two"),
	})
	assert.Len(t, prose, 2)
}

func TestHintSegmenterAttachesContainedFragments(t *testing.T) {
	analysis := &layout.Analysis{Regions: []layout.Region{
		{Type: layout.RegionTable, Box: layout.NormBox{X: 0.1, Y: 0.5, W: 0.8, H: 0.3}, ReadingOrder: 2},
		{Type: layout.RegionText, Box: layout.NormBox{X: 0.0, Y: 0.0, W: 1.0, H: 0.4}, ReadingOrder: 1},
	}}
	h := NewHintSegmenter(analysis, DefaultConfig())
	page := geometry.Size{W: 1000, H: 1000}
	frags := []ocr.TextFragment{
		frag(50, 100, 800, 40, "prose at the top"),
		frag(200, 600, 80, 30, "cell"),
	}
	secs, err := h.Segment(page, frags)
	require.NoError(t, err)

	var table *Section
	for i := range secs {
		if secs[i].Kind == layout.RegionTable {
			table = &secs[i]
		}
	}
	require.NotNil(t, table)
	require.Len(t, table.Fragments, 1)
	assert.Equal(t, "cell", table.Fragments[0].Text)

	for _, sec := range secs {
		if sec.Kind == layout.RegionText {
			for _, l := range sec.Labels {
				assert.NotContains(t, l.Text, "cell")
			}
		}
	}
	assertTiling(t, secs, page.H)
}

func TestSelectFallsBackWithoutHints(t *testing.T) {
	cfg := DefaultConfig()
	_, ok := Select(nil, cfg).(*GapSegmenter)
	assert.True(t, ok)

	_, ok = Select(&layout.Analysis{}, cfg).(*GapSegmenter)
	assert.True(t, ok, "empty analysis falls back")

	a := &layout.Analysis{Regions: []layout.Region{
		{Type: layout.RegionDiagram, Box: layout.NormBox{X: 0.1, Y: 0.1, W: 0.5, H: 0.3}},
	}}
	_, ok = Select(a, cfg).(*HintSegmenter)
	assert.True(t, ok)
}

// Coverage invariant: sections tile the page height exactly, with no
// gaps and no overlaps, for arbitrary fragment sets.
func TestSegmentationCoverageProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	page := geometry.Size{W: 1200, H: 1600}
	genFragment := gopter.CombineGens(
		gen.IntRange(0, 1100),
		gen.IntRange(0, 1550),
		gen.IntRange(10, 900),
		gen.IntRange(10, 40),
	).Map(func(vals []interface{}) ocr.TextFragment {
		f := frag(vals[0].(int), vals[1].(int), vals[2].(int), vals[3].(int), "w")
		f.Box = f.Box.Clamp(page.W, page.H)
		return f
	})

	properties := gopter.NewProperties(parameters)
	properties.Property("sections tile the page height", prop.ForAll(
		func(frags []ocr.TextFragment) bool {
			secs, err := NewGapSegmenter(DefaultConfig()).Segment(page, frags)
			if err != nil {
				return false
			}
			cursor := 0
			for _, s := range secs {
				if s.Band.Y0 != cursor && s.Band.Height() > 0 {
					return false
				}
				if s.Band.Height() < 0 {
					return false
				}
				if s.Band.Height() > 0 {
					cursor = s.Band.Y1
				}
			}
			return cursor == page.H
		},
		gen.SliceOf(genFragment),
	))
	properties.TestingRun(t)
}

func assertTiling(t *testing.T, secs []Section, pageH int) {
	t.Helper()
	cursor := 0
	for _, s := range secs {
		if s.Band.Height() == 0 {
			continue
		}
		require.Equal(t, cursor, s.Band.Y0, "band must start at previous end")
		require.Greater(t, s.Band.Y1, s.Band.Y0)
		cursor = s.Band.Y1
	}
	require.Equal(t, pageH, cursor, "bands must cover the page height")
}
