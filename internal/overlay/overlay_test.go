package overlay

import (
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repage-dev/repage/internal/cluster"
	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/translate"
)

func quietEngine(cfg Config) *Engine {
	return NewEngine(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func label(x, y, w, h int, text string) translate.TranslatedLabel {
	return translate.TranslatedLabel{
		Label:       cluster.Label{Box: geometry.Box{X: x, Y: y, W: w, H: h}, Text: text},
		Translation: text,
	}
}

func TestFontSizeLadder(t *testing.T) {
	e := quietEngine(Config{BaseFontSize: 20, MinFontSize: 10})
	assert.Equal(t, []float64{20, 16, 12}, e.FontSizes())

	// Floor collapses the tail of the ladder.
	e = quietEngine(Config{BaseFontSize: 12, MinFontSize: 10})
	assert.Equal(t, []float64{12, 10}, e.FontSizes())
}

func TestPlaceBelowWhenFree(t *testing.T) {
	e := quietEngine(DefaultConfig())
	canvas := geometry.Size{W: 800, H: 600}
	got := e.Place([]translate.TranslatedLabel{label(100, 100, 60, 24, "valve")}, nil, canvas)
	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, AnchorBelow, p.Anchor)
	assert.False(t, p.Leader)
	assert.False(t, p.Forced)
	assert.Equal(t, 100, p.Box.X)
	assert.Equal(t, 128, p.Box.Y)
	assert.Equal(t, DefaultConfig().BaseFontSize, p.FontSize)
}

func TestPlaceAvoidsObstacle(t *testing.T) {
	e := quietEngine(DefaultConfig())
	canvas := geometry.Size{W: 800, H: 600}
	// Obstacle fills the band directly below the label.
	obstacle := geometry.Box{X: 0, Y: 125, W: 800, H: 60}
	got := e.Place([]translate.TranslatedLabel{label(100, 100, 60, 24, "pump")}, []geometry.Box{obstacle}, canvas)
	require.Len(t, got, 1)
	p := got[0]
	assert.NotEqual(t, AnchorBelow, p.Anchor)
	assert.False(t, p.Forced)
	assert.False(t, p.Box.OverlapsWithClearance(obstacle, DefaultConfig().Clearance))
}

func TestPlaceUsesLeaderWhenNearIsBlocked(t *testing.T) {
	e := quietEngine(DefaultConfig())
	canvas := geometry.Size{W: 2000, H: 2000}
	// Ring of obstacles hugging the label blocks all four near
	// positions but leaves the offset positions open.
	orig := geometry.Box{X: 1000, Y: 1000, W: 60, H: 24}
	obstacles := []geometry.Box{
		{X: 970, Y: 1026, W: 120, H: 10}, // below
		{X: 970, Y: 985, W: 120, H: 10},  // above
		{X: 1062, Y: 995, W: 10, H: 30},  // right
		{X: 988, Y: 995, W: 10, H: 30},   // left
	}
	got := e.Place([]translate.TranslatedLabel{label(orig.X, orig.Y, orig.W, orig.H, "v1 inlet")}, obstacles, canvas)
	require.Len(t, got, 1)
	assert.True(t, got[0].Leader)
	assert.False(t, got[0].Forced)
}

func TestPlaceForcesWhenNothingFits(t *testing.T) {
	e := quietEngine(DefaultConfig())
	// Canvas barely larger than the label leaves no room anywhere.
	canvas := geometry.Size{W: 80, H: 40}
	got := e.Place([]translate.TranslatedLabel{label(5, 5, 70, 30, "overflow relief")}, nil, canvas)
	require.Len(t, got, 1)
	p := got[0]
	assert.True(t, p.Forced)
	assert.Equal(t, DefaultConfig().MinFontSize, p.FontSize)
	assert.GreaterOrEqual(t, p.Box.X, 0)
	assert.GreaterOrEqual(t, p.Box.Y, 0)
	assert.LessOrEqual(t, p.Box.Right(), canvas.W)
	assert.LessOrEqual(t, p.Box.Bottom(), canvas.H)
}

func TestPlacementsKeepClearance(t *testing.T) {
	cfg := DefaultConfig()
	e := quietEngine(cfg)
	canvas := geometry.Size{W: 1200, H: 900}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	genLabel := gopter.CombineGens(
		gen.IntRange(0, 1000),
		gen.IntRange(0, 700),
		gen.IntRange(20, 120),
		gen.IntRange(14, 32),
		gen.OneConstOf("valve", "pump body", "inlet", "relief", "drain line"),
	).Map(func(vals []interface{}) translate.TranslatedLabel {
		return label(vals[0].(int), vals[1].(int), vals[2].(int), vals[3].(int), vals[4].(string))
	})

	properties := gopter.NewProperties(parameters)
	properties.Property("non-forced placements never crowd each other", gopter.SaveProp(
		prop.ForAll(func(labels []translate.TranslatedLabel) bool {
			placed := e.Place(labels, nil, canvas)
			for i := range placed {
				if placed[i].Forced {
					continue
				}
				for j := i + 1; j < len(placed); j++ {
					if placed[j].Forced {
						continue
					}
					if placed[i].Box.OverlapsWithClearance(placed[j].Box, cfg.Clearance) {
						return false
					}
				}
			}
			return true
		}, gen.SliceOf(genLabel)),
	))
	properties.TestingRun(t)
}

func TestRenderAnnotated(t *testing.T) {
	e := quietEngine(DefaultConfig())
	canvas := geometry.Size{W: 400, H: 300}
	placed := e.Place([]translate.TranslatedLabel{label(50, 50, 60, 24, "tank")}, nil, canvas)
	require.Len(t, placed, 1)

	img := image.NewNRGBA(image.Rect(0, 0, 400, 300))
	out := RenderAnnotated(img, placed)
	require.NotNil(t, out)
	assert.Equal(t, img.Bounds(), out.Bounds())

	// Top-left corner of the placement rectangle carries the outline
	// color.
	box := placed[0].Box
	r, g, b, _ := out.At(box.X, box.Y).RGBA()
	assert.False(t, r == 0 && g == 0 && b == 0)
}
