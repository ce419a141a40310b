// Package cluster merges raw OCR fragments into line-level labels.
// Figure label placement and paragraph assembly both operate on labels
// rather than individual word fragments.
package cluster

import (
	"sort"
	"strings"

	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/ocr"
)

// Label is a merged run of same-line fragments: the union box, the
// joined text, and the mean confidence of its members.
type Label struct {
	Box        geometry.Box `json:"box"`
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	Fragments  int          `json:"fragments"`
}

// Options controls the clustering tolerances.
type Options struct {
	// LineTolerance is the maximum difference in top-edge y between two
	// fragments considered part of the same text line.
	LineTolerance int
	// MaxGap is the maximum horizontal whitespace between two same-line
	// fragments that still merges them into one label.
	MaxGap int
	// Separator joins fragment texts within a label.
	Separator string
}

// DefaultOptions returns the tolerances tuned for ~300 DPI scans.
func DefaultOptions() Options {
	return Options{
		LineTolerance: 8,
		MaxGap:        15,
		Separator:     " ",
	}
}

// Fragments converts fragments into single-member labels without
// merging. Useful when the caller needs label semantics but wants to
// preserve fragment granularity.
func Fragments(frags []ocr.TextFragment) []Label {
	out := make([]Label, 0, len(frags))
	for _, f := range frags {
		out = append(out, Label{
			Box:        f.Box,
			Text:       f.Text,
			Confidence: f.Confidence,
			Fragments:  1,
		})
	}
	return out
}

// Cluster merges fragments into line labels. The operation is
// idempotent: clustering the boxes of an already-clustered result
// produces the same labels, since merges only happen within the gap
// tolerance and merged labels are separated by more than it.
func Cluster(frags []ocr.TextFragment, opts Options) []Label {
	return merge(Fragments(ocr.NonEmpty(frags)), opts)
}

// Labels re-clusters existing labels, e.g. after filtering.
func Labels(labels []Label, opts Options) []Label {
	return merge(labels, opts)
}

func merge(items []Label, opts Options) []Label {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]Label, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Box.Y == sorted[j].Box.Y {
			return sorted[i].Box.X < sorted[j].Box.X
		}
		return sorted[i].Box.Y < sorted[j].Box.Y
	})

	var out []Label
	cur := sorted[0]
	curSum := cur.Confidence * float64(cur.Fragments)
	flush := func() {
		cur.Confidence = curSum / float64(cur.Fragments)
		out = append(out, cur)
	}
	for _, l := range sorted[1:] {
		sameLine := abs(l.Box.Y-cur.Box.Y) <= opts.LineTolerance
		gap := l.Box.X - cur.Box.Right()
		if sameLine && gap >= 0 && gap <= opts.MaxGap {
			cur.Box = cur.Box.Union(l.Box)
			cur.Text = joinText(cur.Text, l.Text, opts.Separator)
			cur.Fragments += l.Fragments
			curSum += l.Confidence * float64(l.Fragments)
			continue
		}
		flush()
		cur = l
		curSum = l.Confidence * float64(l.Fragments)
	}
	flush()
	return out
}

func joinText(a, b, sep string) string {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + sep + b
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
