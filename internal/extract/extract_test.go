package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repage-dev/repage/internal/artifact"
	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/ocr"
)

func frag(x, y, w, h int, text string) ocr.TextFragment {
	return ocr.TextFragment{
		Box:        geometry.Box{X: x, Y: y, W: w, H: h},
		Text:       text,
		Confidence: 0.9,
	}
}

// tableFrags lays out a 3x3 grid of aligned fragments.
func tableFrags() []ocr.TextFragment {
	texts := [][]string{
		{"Year", "Flow", "Pressure"},
		{"1990", "12.5", "101.3"},
		{"2000", "14.1", "99.8"},
	}
	var frags []ocr.TextFragment
	for r, row := range texts {
		for c, text := range row {
			frags = append(frags, frag(100+c*200, 100+r*40, 80, 20, text))
		}
	}
	return frags
}

func TestExtractSpatialTable(t *testing.T) {
	e := New(DefaultConfig())
	tab := e.ExtractTable(context.Background(), tableFrags())
	require.NotNil(t, tab)
	assert.Equal(t, 3, tab.Rows)
	assert.Equal(t, 3, tab.Cols)
	assert.Equal(t, "spatial", tab.Detector)
	assert.Equal(t, "Year", tab.CellAt(0, 0))
	assert.Equal(t, "14.1", tab.CellAt(2, 1))
}

func TestExtractRejectsNonTable(t *testing.T) {
	e := New(DefaultConfig())
	frags := []ocr.TextFragment{
		frag(100, 100, 400, 20, "just a sentence"),
		frag(100, 140, 400, 20, "another sentence"),
	}
	assert.Nil(t, e.ExtractTable(context.Background(), frags))
}

func TestExtractEmptyInput(t *testing.T) {
	e := New(DefaultConfig())
	assert.Nil(t, e.ExtractTable(context.Background(), nil))
}

func TestExtractHonorsCancelledContext(t *testing.T) {
	e := New(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, e.ExtractTable(ctx, tableFrags()))
}

func TestExtractWithDelimiters(t *testing.T) {
	e := New(DefaultConfig())
	var frags []ocr.TextFragment
	// Three rows of "a | b | c | d" style content: enough pipes to
	// trigger the delimiter strategy.
	for r := 0; r < 3; r++ {
		y := 100 + r*40
		frags = append(frags,
			frag(100, y, 40, 20, "c1"),
			frag(150, y, 10, 20, "|"),
			frag(170, y, 40, 20, "c2"),
			frag(220, y, 10, 20, "|"),
			frag(240, y, 40, 20, "c3"),
			frag(290, y, 10, 20, "|"),
			frag(310, y, 40, 20, "c4"),
		)
	}
	tab := e.ExtractTable(context.Background(), frags)
	require.NotNil(t, tab)
	assert.Equal(t, "delimiter", tab.Detector)
	assert.Equal(t, 3, tab.Rows)
	assert.Equal(t, 4, tab.Cols)
	assert.Equal(t, "c1", tab.CellAt(0, 0))
	assert.Equal(t, "c4", tab.CellAt(2, 3))
}

func TestScanRegionWholePage(t *testing.T) {
	e := New(DefaultConfig())
	page := geometry.Size{W: 1000, H: 1000}

	big := geometry.Box{X: 50, Y: 50, W: 900, H: 850}
	assert.Equal(t, geometry.Box{X: 0, Y: 0, W: 1000, H: 1000}, e.ScanRegion(page, big))

	small := geometry.Box{X: 200, Y: 200, W: 300, H: 200}
	got := e.ScanRegion(page, small)
	assert.Equal(t, geometry.Box{X: 150, Y: 150, W: 400, H: 300}, got)
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.5", 12.5, true},
		{"1,000", 1000, true},
		{"85%", 85, true},
		{" 3 ", 3, true},
		{"n/a", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseNumber(tc.in)
		assert.Equal(t, tc.ok, ok, "input=%q", tc.in)
		if ok {
			assert.InDelta(t, tc.want, got, 1e-9)
		}
	}
}

func TestLooksLikeDate(t *testing.T) {
	assert.True(t, looksLikeDate("1995"))
	assert.True(t, looksLikeDate("1995-04-01"))
	assert.True(t, looksLikeDate("Mar 1995"))
	assert.False(t, looksLikeDate("Total"))
	assert.False(t, looksLikeDate("12.5"))
}

func TestNormalizeDate(t *testing.T) {
	iso, gran := normalizeDate("1995")
	assert.Equal(t, "1995-01-01", iso)
	assert.Equal(t, "year", gran)

	iso, gran = normalizeDate("Mar 1995")
	assert.Equal(t, "1995-03-01", iso)
	assert.Equal(t, "yearmonth", gran)

	iso, gran = normalizeDate("1995-04-01")
	assert.Equal(t, "1995-04-01", iso)
	assert.Equal(t, "date", gran)
}

func TestExtractUnit(t *testing.T) {
	assert.Equal(t, "kPa", extractUnit("Pressure (kPa)"))
	assert.Equal(t, "", extractUnit("Pressure"))
}

func newTable(rows, cols int, grid [][]string) artifact.Table {
	t := artifact.Table{Rows: rows, Cols: cols}
	for r := range grid {
		for c := range grid[r] {
			if grid[r][c] == "" {
				continue
			}
			t.Cells = append(t.Cells, artifact.Cell{Row: r, Col: c, Text: grid[r][c]})
		}
	}
	return t
}

func TestChartTemporalSingleSeries(t *testing.T) {
	tab := newTable(4, 2, [][]string{
		{"Year", "Output (kW)"},
		{"1990", "10"},
		{"1995", "20"},
		{"2000", "30"},
	})
	c := FromTable(&tab)
	require.NotNil(t, c)
	assert.Equal(t, artifact.MarkLine, c.Mark)
	assert.Equal(t, artifact.XTemporal, c.XType)
	assert.Equal(t, "year", c.TimeUnit)
	assert.Equal(t, "Year", c.XTitle)
	assert.Equal(t, "Output (kW)", c.YTitle)
	assert.Equal(t, "kW", c.YUnit)
	require.Len(t, c.Values, 3)
	assert.Equal(t, "1990-01-01", c.Values[0].X)
	assert.InDelta(t, 10, c.Values[0].Y, 1e-9)
}

func TestChartCategoricalBar(t *testing.T) {
	tab := newTable(4, 2, [][]string{
		{"Model", "Units"},
		{"A", "120"},
		{"B", "80"},
		{"C", "60"},
	})
	c := FromTable(&tab)
	require.NotNil(t, c)
	assert.Equal(t, artifact.MarkBar, c.Mark)
	assert.Equal(t, artifact.XCategorical, c.XType)
}

func TestChartMultiSeriesStacking(t *testing.T) {
	tab := newTable(3, 3, [][]string{
		{"Region", "Old (%)", "New (%)"},
		{"North", "40%", "60%"},
		{"South", "55%", "45%"},
	})
	c := FromTable(&tab)
	require.NotNil(t, c)
	assert.Equal(t, artifact.MarkBar, c.Mark)
	assert.Equal(t, artifact.StackNormalize, c.Stack)
	assert.Equal(t, []string{"Old (%)", "New (%)"}, c.Series)
	require.Len(t, c.Values, 4)
	assert.True(t, c.Values[0].Numeric)
}

func TestChartNonNumericYFallsBackToLine(t *testing.T) {
	tab := newTable(3, 2, [][]string{
		{"Part", "State"},
		{"Valve", "open"},
		{"Pump", "closed"},
	})
	c := FromTable(&tab)
	require.NotNil(t, c)
	assert.Equal(t, artifact.MarkLine, c.Mark)
}

func TestChartRejectsTinyTables(t *testing.T) {
	tab := newTable(1, 2, [][]string{{"a", "b"}})
	assert.Nil(t, FromTable(&tab))
	assert.Nil(t, FromTable(nil))
}

func TestFromTables(t *testing.T) {
	tabs := []artifact.Table{
		newTable(1, 1, [][]string{{"x"}}),
		// Numeric-y ratio counts the header row too: 3 of 4 rows must
		// parse for the bar mark.
		newTable(4, 2, [][]string{
			{"Model", "Units"},
			{"A", "120"},
			{"B", "80"},
			{"C", "95"},
		}),
	}
	charts := FromTables(tabs)
	require.Len(t, charts, 1)
	assert.Equal(t, artifact.MarkBar, charts[0].Mark)
}
