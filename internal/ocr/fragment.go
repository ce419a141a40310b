package ocr

import (
	"fmt"
	"strings"

	"github.com/repage-dev/repage/internal/geometry"
)

// TextFragment is a single recognized text run from the OCR engine, in
// page pixel coordinates. Fragments are immutable inputs to the rest of
// the pipeline.
type TextFragment struct {
	Box        geometry.Box `json:"box"`
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
}

// Result is the full OCR response for a page raster.
type Result struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	FullText  string         `json:"full_text"`
	Fragments []TextFragment `json:"fragments"`
}

// Validate performs consistency checks on an OCR result.
func Validate(res *Result) error {
	if res == nil {
		return fmt.Errorf("nil result")
	}
	if res.Width <= 0 || res.Height <= 0 {
		return fmt.Errorf("invalid page size %dx%d", res.Width, res.Height)
	}
	for i, f := range res.Fragments {
		if err := validateFragment(f, res.Width, res.Height, i); err != nil {
			return err
		}
	}
	return nil
}

func validateFragment(f TextFragment, width, height, index int) error {
	if f.Box.W < 0 || f.Box.H < 0 {
		return fmt.Errorf("fragment %d has negative size", index)
	}
	if f.Box.X < 0 || f.Box.Y < 0 {
		return fmt.Errorf("fragment %d has negative coords", index)
	}
	if f.Box.Right() > width {
		return fmt.Errorf("fragment %d exceeds page width", index)
	}
	if f.Box.Bottom() > height {
		return fmt.Errorf("fragment %d exceeds page height", index)
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return fmt.Errorf("fragment %d confidence out of range", index)
	}
	return nil
}

// NonEmpty filters out fragments whose text is blank after trimming.
func NonEmpty(frags []TextFragment) []TextFragment {
	out := make([]TextFragment, 0, len(frags))
	for _, f := range frags {
		if strings.TrimSpace(f.Text) != "" {
			out = append(out, f)
		}
	}
	return out
}
