package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/repage-dev/repage/internal/artifact"
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}[-/.]\d{1,2}[-/.]\d{1,2}$`),
	regexp.MustCompile(`^\d{1,2}[-/.]\d{1,2}[-/.]\d{4}$`),
	regexp.MustCompile(`(?i)^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}$`),
	regexp.MustCompile(`^\d{4}$`),
}

var unitRe = regexp.MustCompile(`\(([^)]+)\)`)

// parseNumber parses a cell as a number, tolerating thousands commas
// and a trailing percent sign.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isNumeric(s string) bool {
	_, ok := parseNumber(s)
	return ok
}

func looksLikeDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, re := range datePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// normalizeDate canonicalizes a temporal cell to ISO form and reports
// its granularity ("date", "yearmonth" or "year"). Unparseable values
// return the input unchanged with empty granularity.
func normalizeDate(s string) (string, string) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"02-01-2006", "02/01/2006", "02.01.2006",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), "date"
		}
	}
	for _, layout := range []string{"January 2006", "Jan 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01") + "-01", "yearmonth"
		}
	}
	if regexp.MustCompile(`^\d{4}$`).MatchString(s) {
		return s + "-01-01", "year"
	}
	return s, ""
}

// extractUnit pulls a parenthesized unit suffix out of a header label.
func extractUnit(label string) string {
	m := unitRe.FindStringSubmatch(label)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func majority(items []string) string {
	counts := map[string]int{}
	best, bestN := "", 0
	for _, it := range items {
		if it == "" {
			continue
		}
		counts[it]++
		if counts[it] > bestN {
			best, bestN = it, counts[it]
		}
	}
	return best
}

// FromTables derives chart specs from reconstructed tables. Tables with
// fewer than 2 rows or 2 columns never produce a chart.
func FromTables(tables []artifact.Table) []artifact.Chart {
	var charts []artifact.Chart
	for i := range tables {
		if c := FromTable(&tables[i]); c != nil {
			charts = append(charts, *c)
		}
	}
	return charts
}

// FromTable derives a chart spec from one table: the first column is
// the x axis, the remaining columns are series. Mark type follows the
// axis inference: line for temporal x, bar for categorical x with
// mostly-numeric y (stacked and normalized when values look like
// percentages).
func FromTable(t *artifact.Table) *artifact.Chart {
	if t == nil || t.Rows < 2 || t.Cols < 2 {
		return nil
	}
	grid := t.Grid()
	if t.Cols == 2 {
		return singleSeries(grid)
	}
	return multiSeries(grid)
}

func singleSeries(grid [][]string) *artifact.Chart {
	rows := len(grid)
	xVals := make([]string, rows)
	yVals := make([]string, rows)
	for r := range grid {
		xVals[r] = grid[r][0]
		yVals[r] = grid[r][1]
	}

	hasHeader := !isNumeric(xVals[0]) && !isNumeric(yVals[0])
	xTitle, yTitle := "x", "y"
	if hasHeader {
		xTitle, yTitle = xVals[0], yVals[0]
	}
	yUnit := extractUnit(yTitle)

	numericCount := 0
	for _, v := range yVals {
		if isNumeric(v) {
			numericCount++
		}
	}
	numericRatio := float64(numericCount) / float64(len(yVals))

	temporalCount := 0
	for _, v := range xVals {
		if looksLikeDate(v) {
			temporalCount++
		}
	}
	xTemporal := float64(temporalCount)/float64(len(xVals)) >= 0.7

	start := 0
	if hasHeader {
		start = 1
	}
	var grans []string
	var values []artifact.Value
	for r := start; r < rows; r++ {
		x := xVals[r]
		if xTemporal {
			iso, gran := normalizeDate(x)
			grans = append(grans, gran)
			x = iso
		}
		v := artifact.Value{X: x}
		if num, ok := parseNumber(yVals[r]); ok {
			v.Y = num
			v.Numeric = true
		} else {
			v.YText = yVals[r]
		}
		values = append(values, v)
	}

	chart := &artifact.Chart{
		XType:  artifact.XCategorical,
		XTitle: xTitle,
		YTitle: yTitle,
		YUnit:  yUnit,
		Values: values,
	}
	switch {
	case xTemporal:
		chart.Mark = artifact.MarkLine
		chart.XType = artifact.XTemporal
		chart.TimeUnit = timeUnitFor(majority(grans))
	case numericRatio >= 0.7:
		chart.Mark = artifact.MarkBar
	default:
		chart.Mark = artifact.MarkLine
	}
	return chart
}

func multiSeries(grid [][]string) *artifact.Chart {
	rows, cols := len(grid), len(grid[0])

	// Header present when most non-first-column cells of row 0 are
	// non-numeric.
	nonNumeric := 0
	for c := 1; c < cols; c++ {
		if !isNumeric(grid[0][c]) {
			nonNumeric++
		}
	}
	hasHeader := nonNumeric >= maxIntE(1, (cols-1)/2)

	start := 0
	xTitle := "x"
	if hasHeader {
		start = 1
		xTitle = grid[0][0]
	}

	sampleEnd := minIntE(rows, start+6)
	temporalCount, sampleN := 0, 0
	for r := start; r < sampleEnd; r++ {
		sampleN++
		if looksLikeDate(grid[r][0]) {
			temporalCount++
		}
	}
	xTemporal := sampleN > 0 && float64(temporalCount)/float64(sampleN) >= 0.7

	var grans []string
	var series []string
	var values []artifact.Value
	yNumeric, yTotal, percentLike := 0, 0, 0

	for c := 1; c < cols; c++ {
		name := fmt.Sprintf("Series %d", c)
		if hasHeader && strings.TrimSpace(grid[0][c]) != "" {
			name = grid[0][c]
		}
		series = append(series, name)
		for r := start; r < rows; r++ {
			x := grid[r][0]
			if xTemporal {
				iso, gran := normalizeDate(x)
				if gran != "" {
					grans = append(grans, gran)
				}
				x = iso
			}
			raw := grid[r][c]
			v := artifact.Value{X: x, Series: name}
			if num, ok := parseNumber(raw); ok {
				v.Y = num
				v.Numeric = true
				yNumeric++
				if strings.HasSuffix(strings.TrimSpace(raw), "%") {
					percentLike++
				}
			} else {
				v.YText = raw
			}
			yTotal++
			values = append(values, v)
		}
	}

	chart := &artifact.Chart{
		XType:  artifact.XCategorical,
		XTitle: xTitle,
		YTitle: "Value",
		Series: series,
		Values: values,
	}
	numericRatio := float64(yNumeric) / float64(maxIntE(1, yTotal))
	percentRatio := float64(percentLike) / float64(maxIntE(1, yTotal))
	switch {
	case xTemporal:
		chart.Mark = artifact.MarkLine
		chart.XType = artifact.XTemporal
		chart.TimeUnit = timeUnitFor(majority(grans))
	case numericRatio >= 0.7:
		chart.Mark = artifact.MarkBar
		chart.Stack = artifact.StackZero
		if percentRatio >= 0.7 {
			chart.Stack = artifact.StackNormalize
		}
	default:
		chart.Mark = artifact.MarkLine
	}
	return chart
}

func timeUnitFor(gran string) string {
	switch gran {
	case "year":
		return "year"
	case "yearmonth":
		return "yearmonth"
	case "date":
		return "yearmonthdate"
	default:
		return ""
	}
}
