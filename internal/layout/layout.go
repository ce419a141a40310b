package layout

import (
	"fmt"

	"github.com/repage-dev/repage/internal/geometry"
)

// RegionType classifies a semantic page region.
type RegionType string

const (
	RegionText    RegionType = "text"
	RegionDiagram RegionType = "diagram"
	RegionChart   RegionType = "chart"
	RegionTable   RegionType = "table"
)

// Valid reports whether the region type is one of the known kinds.
func (t RegionType) Valid() bool {
	switch t {
	case RegionText, RegionDiagram, RegionChart, RegionTable:
		return true
	}
	return false
}

// NormBox is an axis-aligned box in normalized [0,1] page coordinates,
// as produced by the layout classifier.
type NormBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ToPixels maps a normalized box into pixel space for the given page
// size, clamped to the page bounds.
func (nb NormBox) ToPixels(page geometry.Size) geometry.Box {
	b := geometry.Box{
		X: int(nb.X * float64(page.W)),
		Y: int(nb.Y * float64(page.H)),
		W: int(nb.W * float64(page.W)),
		H: int(nb.H * float64(page.H)),
	}
	return b.Clamp(page.W, page.H)
}

// Region is one classified page region.
type Region struct {
	Type         RegionType `json:"type"`
	Box          NormBox    `json:"box"`
	Column       int        `json:"column"`
	ReadingOrder int        `json:"reading_order"`
	Confidence   float64    `json:"confidence"`
}

// Analysis is the layout classifier's response for a single page.
type Analysis struct {
	PageNumber string   `json:"page_number,omitempty"`
	Columns    int      `json:"columns"`
	Regions    []Region `json:"regions"`
}

// Validate checks the analysis for structural problems. A failed
// validation means the analysis should be discarded in favor of the
// heuristic segmentation fallback.
func (a *Analysis) Validate() error {
	if a == nil {
		return fmt.Errorf("nil analysis")
	}
	for i, r := range a.Regions {
		if !r.Type.Valid() {
			return fmt.Errorf("region %d: unknown type %q", i, r.Type)
		}
		if r.Box.W <= 0 || r.Box.H <= 0 {
			return fmt.Errorf("region %d: degenerate box", i)
		}
		if r.Box.X < 0 || r.Box.Y < 0 || r.Box.X+r.Box.W > 1.001 || r.Box.Y+r.Box.H > 1.001 {
			return fmt.Errorf("region %d: box outside unit square", i)
		}
	}
	return nil
}
