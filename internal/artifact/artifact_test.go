package artifact

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repage-dev/repage/internal/geometry"
)

func sampleTable() *Table {
	return &Table{
		Region: geometry.Box{X: 10, Y: 10, W: 500, H: 200},
		Rows:   3,
		Cols:   2,
		Cells: []Cell{
			{Row: 0, Col: 0, Text: "年", Translation: "Year"},
			{Row: 0, Col: 1, Text: "圧力 (kPa)", Translation: "Pressure (kPa)"},
			{Row: 1, Col: 0, Text: "1990"},
			{Row: 1, Col: 1, Text: "101.3"},
			{Row: 2, Col: 0, Text: "2000"},
			{Row: 2, Col: 1, Text: "99.8"},
		},
	}
}

func TestCellDisplayPrefersTranslation(t *testing.T) {
	c := Cell{Text: "年", Translation: "Year"}
	assert.Equal(t, "Year", c.Display())
	assert.Equal(t, "1990", Cell{Text: "1990"}.Display())
}

func TestTableGrid(t *testing.T) {
	g := sampleTable().Grid()
	require.Len(t, g, 3)
	assert.Equal(t, []string{"Year", "Pressure (kPa)"}, g[0])
	assert.Equal(t, []string{"1990", "101.3"}, g[1])
}

func TestTableCSVRoundTrip(t *testing.T) {
	tab := sampleTable()
	data, err := tab.ToCSV()
	require.NoError(t, err)

	back, err := ParseCSV(data)
	require.NoError(t, err)
	assert.Equal(t, tab.Rows, back.Rows)
	assert.Equal(t, tab.Cols, back.Cols)
	assert.Equal(t, tab.Grid(), back.Grid())
}

// CSV round-trip holds for arbitrary grids, including cells containing
// separators and quotes.
func TestTableCSVRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	// Fully blank CSV rows are skipped by the reader, so every generated
	// cell carries text.
	genCellText := gen.OneConstOf("plain", "a,b", `quo"ted`, "line1\nline2", "42.5", "日本語")

	properties := gopter.NewProperties(parameters)
	properties.Property("grid survives csv round trip", prop.ForAll(
		func(rows, cols int, seed []string) bool {
			tab := &Table{Rows: rows, Cols: cols}
			if len(seed) == 0 {
				seed = []string{"x"}
			}
			for r := 0; r < rows; r++ {
				for c := 0; c < cols; c++ {
					text := seed[(r*cols+c)%len(seed)]
					tab.Cells = append(tab.Cells, Cell{Row: r, Col: c, Text: text})
				}
			}
			data, err := tab.ToCSV()
			if err != nil {
				return false
			}
			back, err := ParseCSV(data)
			if err != nil {
				return false
			}
			orig, rt := tab.Grid(), back.Grid()
			if len(orig) != len(rt) {
				return false
			}
			for r := range orig {
				for c := range orig[r] {
					if orig[r][c] != rt[r][c] {
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(1, 8),
		gen.IntRange(1, 6),
		gen.SliceOf(genCellText),
	))
	properties.TestingRun(t)
}

func TestTableToHTMLEscapes(t *testing.T) {
	tab := &Table{Rows: 1, Cols: 1, Cells: []Cell{{Row: 0, Col: 0, Text: "<b>&"}}}
	out := tab.ToHTML()
	assert.Contains(t, out, "&lt;b&gt;&amp;")
	assert.Contains(t, out, "<th>")
}

func TestManifestJSONRoundTrip(t *testing.T) {
	m := &Manifest{
		Page:       3,
		PageNumber: "29",
		Tables:     []Table{*sampleTable()},
		Charts: []Chart{{
			Mark:   MarkBar,
			XType:  XCategorical,
			XTitle: "Year",
			YTitle: "Pressure",
			YUnit:  "kPa",
			Values: []Value{{X: "1990", Y: 101.3, Numeric: true}},
		}},
		Warnings: []Warning{{Stage: "translate", Message: "1 label echoed"}},
	}
	data, err := m.EncodeJSON()
	require.NoError(t, err)

	back, err := DecodeManifest(data)
	require.NoError(t, err)
	assert.Equal(t, m.Page, back.Page)
	assert.Equal(t, m.PageNumber, back.PageNumber)
	require.Len(t, back.Charts, 1)
	assert.Equal(t, MarkBar, back.Charts[0].Mark)
	require.Len(t, back.Warnings, 1)
	assert.Equal(t, "translate", back.Warnings[0].Stage)
}

func TestManifestYAML(t *testing.T) {
	m := &Manifest{Page: 1, Warnings: []Warning{{Stage: "extract", Message: "timeout"}}}
	data, err := m.EncodeYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "page: 1")
	assert.Contains(t, string(data), "stage: extract")
}

func TestGridIgnoresOutOfRangeCells(t *testing.T) {
	tab := &Table{Rows: 1, Cols: 1, Cells: []Cell{
		{Row: 0, Col: 0, Text: "ok"},
		{Row: 5, Col: 9, Text: "stray"},
	}}
	g := tab.Grid()
	require.Len(t, g, 1)
	assert.Equal(t, "ok", g[0][0])
}
