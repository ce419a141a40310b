// Package extract reconstructs table-classified regions into
// structured cell grids and derives declarative chart specs from them.
package extract

import (
	"context"
	"sort"
	"strings"

	"github.com/repage-dev/repage/internal/artifact"
	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/ocr"
)

// Config holds the table reconstruction tolerances.
type Config struct {
	// RowThreshMin / RowThreshFactor: a fragment joins a row when its
	// top edge is within max(RowThreshMin, RowThreshFactor·medianH) of
	// the row's running mean.
	RowThreshMin    int
	RowThreshFactor float64
	// ColTolMin / ColTolFactor: x-center clustering tolerance,
	// max(ColTolMin, ColTolFactor·medianW).
	ColTolMin    int
	ColTolFactor float64
	// MaxCols caps the number of derived columns.
	MaxCols int
	// MinPipes enables the delimiter strategy when at least this many
	// '|' glyphs appear in the region text.
	MinPipes int
	// WholePageAreaRatio: a single table region covering more of the
	// page than this is scanned as the whole page.
	WholePageAreaRatio float64
	// CropPadding expands a table region crop to avoid clipping header
	// rows or borders.
	CropPadding int
}

// DefaultConfig returns tolerances tuned for ~300 DPI scans.
func DefaultConfig() Config {
	return Config{
		RowThreshMin:       12,
		RowThreshFactor:    0.8,
		ColTolMin:          15,
		ColTolFactor:       0.6,
		MaxCols:            24,
		MinPipes:           6,
		WholePageAreaRatio: 0.7,
		CropPadding:        50,
	}
}

// Extractor reconstructs tables from OCR fragments.
type Extractor struct {
	cfg Config
}

// New builds an Extractor.
func New(cfg Config) *Extractor {
	if cfg.MaxCols <= 0 {
		cfg.MaxCols = 24
	}
	return &Extractor{cfg: cfg}
}

// ScanRegion decides which fragments feed the extraction for a table
// region: the whole page when the region dominates it, otherwise the
// region expanded by the crop padding.
func (e *Extractor) ScanRegion(page geometry.Size, region geometry.Box) geometry.Box {
	if float64(region.Area()) > e.cfg.WholePageAreaRatio*float64(page.Area()) {
		return geometry.Box{X: 0, Y: 0, W: page.W, H: page.H}
	}
	return region.Pad(e.cfg.CropPadding).Clamp(page.W, page.H)
}

// ExtractTable reconstructs one table from the fragments inside the
// scan region. Returns nil when the fragments do not look like a table.
// The context is checked between stages; on cancellation the result
// degrades to nil so the page continues without structured content.
func (e *Extractor) ExtractTable(ctx context.Context, frags []ocr.TextFragment) *artifact.Table {
	frags = ocr.NonEmpty(frags)
	if len(frags) == 0 {
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	if countPipes(frags) >= e.cfg.MinPipes {
		if t := e.extractWithDelimiters(ctx, frags); t != nil {
			return t
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return e.extractSpatial(frags)
}

// extractSpatial clusters fragments into rows by vertical proximity and
// columns by x-center clustering.
func (e *Extractor) extractSpatial(frags []ocr.TextFragment) *artifact.Table {
	medianH := medianOf(frags, func(f ocr.TextFragment) int { return f.Box.H })
	medianW := medianOf(frags, func(f ocr.TextFragment) int { return f.Box.W })

	rows := e.clusterRows(frags, medianH)

	// Either several clearly multi-column rows, or many rows overall.
	multiCol := 0
	for _, r := range rows {
		if len(r) >= 3 {
			multiCol++
		}
	}
	if multiCol < 2 && len(rows) < 4 {
		return nil
	}

	colTol := maxIntE(e.cfg.ColTolMin, int(float64(medianW)*e.cfg.ColTolFactor))
	centroids := e.clusterColumns(rows, colTol)
	numCols := minIntE(len(centroids), e.cfg.MaxCols)
	if numCols == 0 {
		return nil
	}

	var cells []artifact.Cell
	for ri, row := range rows {
		for ci, centroid := range centroids[:numCols] {
			var cellFrags []ocr.TextFragment
			for _, f := range row {
				if absE(centerX(f)-centroid) < colTol {
					cellFrags = append(cellFrags, f)
				}
			}
			if len(cellFrags) == 0 {
				continue
			}
			sort.SliceStable(cellFrags, func(i, j int) bool { return cellFrags[i].Box.X < cellFrags[j].Box.X })
			parts := make([]string, 0, len(cellFrags))
			for _, f := range cellFrags {
				parts = append(parts, strings.TrimSpace(f.Text))
			}
			text := strings.TrimSpace(strings.Join(parts, " "))
			if text == "" {
				continue
			}
			cells = append(cells, artifact.Cell{Row: ri, Col: ci, Text: text})
		}
	}
	if len(cells) == 0 {
		return nil
	}

	boxes := make([]geometry.Box, len(frags))
	for i, f := range frags {
		boxes[i] = f.Box
	}
	return &artifact.Table{
		Region:   geometry.BoundingBox(boxes),
		Rows:     len(rows),
		Cols:     numCols,
		Cells:    cells,
		Detector: "spatial",
	}
}

// clusterRows groups fragments into rows, comparing each fragment's top
// edge against the running mean of the row it may join.
func (e *Extractor) clusterRows(frags []ocr.TextFragment, medianH int) [][]ocr.TextFragment {
	sorted := make([]ocr.TextFragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Box.Y == sorted[j].Box.Y {
			return sorted[i].Box.X < sorted[j].Box.X
		}
		return sorted[i].Box.Y < sorted[j].Box.Y
	})

	thresh := maxIntE(e.cfg.RowThreshMin, int(float64(medianH)*e.cfg.RowThreshFactor))
	var rows [][]ocr.TextFragment
	for _, f := range sorted {
		placed := false
		for i, row := range rows {
			sum := 0
			for _, rf := range row {
				sum += rf.Box.Y
			}
			avg := sum / len(row)
			if absE(f.Box.Y-avg) <= thresh {
				rows[i] = append(rows[i], f)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, []ocr.TextFragment{f})
		}
	}
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].Box.X < row[j].Box.X })
	}
	return rows
}

// clusterColumns derives column centroids from the x-centers of every
// fragment, merging centers within the tolerance.
func (e *Extractor) clusterColumns(rows [][]ocr.TextFragment, colTol int) []int {
	var centers []int
	for _, row := range rows {
		for _, f := range row {
			centers = append(centers, centerX(f))
		}
	}
	sort.Ints(centers)

	var centroids []int
	for _, xc := range centers {
		if len(centroids) == 0 || absE(xc-centroids[len(centroids)-1]) > colTol {
			centroids = append(centroids, xc)
		} else {
			centroids[len(centroids)-1] = (centroids[len(centroids)-1] + xc) / 2
		}
	}
	return centroids
}

func centerX(f ocr.TextFragment) int { return f.Box.X + f.Box.W/2 }

func countPipes(frags []ocr.TextFragment) int {
	n := 0
	for _, f := range frags {
		n += strings.Count(f.Text, "|")
	}
	return n
}

func medianOf(frags []ocr.TextFragment, get func(ocr.TextFragment) int) int {
	vals := make([]int, 0, len(frags))
	for _, f := range frags {
		v := get(f)
		if v < 1 {
			v = 1
		}
		vals = append(vals, v)
	}
	sort.Ints(vals)
	return vals[len(vals)/2]
}

func absE(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minIntE(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxIntE(a, b int) int {
	if a > b {
		return a
	}
	return b
}
