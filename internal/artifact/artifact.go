// Package artifact defines the per-page output artifacts: annotated
// figures, structured tables, derived chart specs, and the JSON/YAML
// manifest bundling them.
package artifact

import (
	"image"

	"github.com/repage-dev/repage/internal/geometry"
)

// PlacementMode distinguishes inline annotations from marker+key ones.
type PlacementMode string

const (
	ModeInline PlacementMode = "inline"
	ModeMarker PlacementMode = "marker"
)

// Annotation is one translated label positioned in figure-local pixel
// coordinates on the cleaned raster.
type Annotation struct {
	Box      geometry.Box  `json:"box"`
	Original string        `json:"original"`
	Text     string        `json:"text"`
	FontSize float64       `json:"font_size"`
	Mode     PlacementMode `json:"mode"`
	Marker   int           `json:"marker,omitempty"` // 1-based key index for marker mode
	Leader   bool          `json:"leader,omitempty"` // connecting line back to the original box
	Origin   geometry.Box  `json:"origin"`           // original label box on the raster
	Forced   bool          `json:"forced,omitempty"` // placed in violation of the clearance invariant
}

// Figure is a cleaned figure region with its annotations. Immutable
// after creation.
type Figure struct {
	Kind        string       `json:"kind"` // diagram or chart
	Region      geometry.Box `json:"region"`
	Image       image.Image  `json:"-"`
	Annotations []Annotation `json:"annotations"`
	// Legend holds the marker-keyed entries rendered below the figure,
	// plus caption-band labels routed straight to the key.
	Legend []LegendEntry `json:"legend,omitempty"`
	// SmallInline marks figures too short for marker+key rendering.
	SmallInline bool `json:"small_inline,omitempty"`
}

// LegendEntry is one "Diagram Key" line below a figure.
type LegendEntry struct {
	Marker   int    `json:"marker,omitempty"` // 0 for caption-band entries
	Original string `json:"original"`
	Text     string `json:"text"`
}

// Cell is one table cell. RowSpan/ColSpan above 1 mark merged cells.
type Cell struct {
	Row         int    `json:"row"`
	Col         int    `json:"col"`
	RowSpan     int    `json:"row_span,omitempty"`
	ColSpan     int    `json:"col_span,omitempty"`
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
}

// Display returns the cell's translation when present, else the
// original text.
func (c Cell) Display() string {
	if c.Translation != "" {
		return c.Translation
	}
	return c.Text
}

// Table is a reconstructed cell grid. Cells are sparse; absent
// positions are empty.
type Table struct {
	Region geometry.Box `json:"region"`
	Rows   int          `json:"rows"`
	Cols   int          `json:"cols"`
	Cells  []Cell       `json:"cells"`
	// Detector records which extraction strategy produced the grid.
	Detector string `json:"detector,omitempty"`
}

// XType classifies a chart's x axis.
type XType string

const (
	XTemporal    XType = "temporal"
	XCategorical XType = "ordinal"
)

// Mark is the chart mark type.
type Mark string

const (
	MarkLine Mark = "line"
	MarkBar  Mark = "bar"
)

// Stack is the bar stacking mode.
type Stack string

const (
	StackNone      Stack = ""
	StackZero      Stack = "zero"
	StackNormalize Stack = "normalize"
)

// Value is one chart data point.
type Value struct {
	X       string  `json:"x"`
	Series  string  `json:"series,omitempty"`
	Y       float64 `json:"y"`
	YText   string  `json:"y_text,omitempty"`
	Numeric bool    `json:"numeric"`
}

// Chart is a declarative chart specification derived from a Table.
type Chart struct {
	Mark     Mark     `json:"mark"`
	XType    XType    `json:"x_type"`
	TimeUnit string   `json:"time_unit,omitempty"` // year, yearmonth, yearmonthdate
	Stack    Stack    `json:"stack,omitempty"`
	XTitle   string   `json:"x_title"`
	YTitle   string   `json:"y_title"`
	YUnit    string   `json:"y_unit,omitempty"`
	Series   []string `json:"series,omitempty"`
	Values   []Value  `json:"values"`
}

// Warning is one non-fatal degradation recorded during processing.
type Warning struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Manifest is the machine-readable bundle written next to each page's
// rendered PDF.
type Manifest struct {
	Page       int       `json:"page"`
	PageNumber string    `json:"page_number,omitempty"` // printed number from the header
	Figures    []Figure  `json:"figures,omitempty"`
	Tables     []Table   `json:"tables,omitempty"`
	Charts     []Chart   `json:"charts,omitempty"`
	Warnings   []Warning `json:"warnings,omitempty"`
}
