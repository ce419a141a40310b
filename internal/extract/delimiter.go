package extract

import (
	"context"
	"sort"
	"strings"

	"github.com/repage-dev/repage/internal/artifact"
	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/ocr"
)

// extractWithDelimiters reconstructs a grid using '|' glyphs as column
// dividers. Returns nil when the result fails the quality check, which
// sends the caller back to the spatial strategy.
func (e *Extractor) extractWithDelimiters(ctx context.Context, frags []ocr.TextFragment) *artifact.Table {
	medianH := medianOf(frags, func(f ocr.TextFragment) int { return f.Box.H })
	rows := e.clusterRows(frags, medianH)

	type gridRow struct {
		cells []string
	}
	var grid []gridRow

	for _, row := range rows {
		if ctx.Err() != nil {
			return nil
		}
		var dividers, content []ocr.TextFragment
		for _, f := range row {
			if strings.TrimSpace(f.Text) == "|" {
				dividers = append(dividers, f)
			} else {
				content = append(content, f)
			}
		}
		sort.SliceStable(dividers, func(i, j int) bool { return dividers[i].Box.X < dividers[j].Box.X })

		if len(dividers) == 0 {
			if len(content) == 0 {
				continue
			}
			parts := make([]string, 0, len(content))
			for _, f := range content {
				parts = append(parts, strings.TrimSpace(f.Text))
			}
			grid = append(grid, gridRow{cells: []string{strings.Join(parts, " ")}})
			continue
		}

		// Each divider's center is a column boundary, open-ended on
		// both sides.
		boundaries := []int{0}
		for _, d := range dividers {
			boundaries = append(boundaries, centerX(d))
		}
		rowRight := 0
		for _, f := range row {
			if f.Box.Right() > rowRight {
				rowRight = f.Box.Right()
			}
		}
		boundaries = append(boundaries, rowRight+100)

		numCols := len(dividers) + 1
		cellFrags := make([][]ocr.TextFragment, numCols)
		for _, f := range content {
			cx := centerX(f)
			col := numCols - 1
			for j := 0; j+1 < len(boundaries); j++ {
				if boundaries[j] <= cx && cx < boundaries[j+1] {
					col = j
					break
				}
			}
			cellFrags[col] = append(cellFrags[col], f)
		}

		gr := gridRow{cells: make([]string, numCols)}
		for ci, cf := range cellFrags {
			sort.SliceStable(cf, func(i, j int) bool { return cf[i].Box.X < cf[j].Box.X })
			parts := make([]string, 0, len(cf))
			for _, f := range cf {
				parts = append(parts, strings.TrimSpace(f.Text))
			}
			gr.cells[ci] = strings.TrimSpace(strings.Join(parts, " "))
		}
		grid = append(grid, gr)
	}

	if len(grid) == 0 {
		return nil
	}

	maxCols := 0
	dataRows := 0
	for _, gr := range grid {
		if len(gr.cells) > maxCols {
			maxCols = len(gr.cells)
		}
		for _, c := range gr.cells {
			if strings.TrimSpace(c) != "" {
				dataRows++
				break
			}
		}
	}
	// Many data rows but few columns means OCR did not pick up the pipe
	// glyphs; the spatial strategy will do better.
	if maxCols < 4 && dataRows > 10 {
		return nil
	}

	var cells []artifact.Cell
	for ri, gr := range grid {
		for ci, text := range gr.cells {
			cells = append(cells, artifact.Cell{Row: ri, Col: ci, Text: text})
		}
	}
	boxes := make([]geometry.Box, len(frags))
	for i, f := range frags {
		boxes[i] = f.Box
	}
	return &artifact.Table{
		Region:   geometry.BoundingBox(boxes),
		Rows:     len(grid),
		Cols:     maxCols,
		Cells:    cells,
		Detector: "delimiter",
	}
}
