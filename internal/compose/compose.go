package compose

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"

	"github.com/repage-dev/repage/internal/artifact"
	"github.com/repage-dev/repage/internal/overlay"
)

// Config holds the page layout parameters, in points.
type Config struct {
	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64
	BodyFontSize float64
	// LineHeightFactor scales the body font size into a line height.
	LineHeightFactor float64
	FontFamily       string
	// MinAnnotationPt floors the size of annotation text drawn over a
	// scaled-down figure.
	MinAnnotationPt float64
	// SmallFigureRatio: figures shorter than this fraction of the page
	// render all annotations inline, with no marker legend.
	SmallFigureRatio float64
	// CaptionBandRatio: annotations whose original center sits below
	// this fraction of the figure height are captions.
	CaptionBandRatio float64
	// WidthOverrunFactor: placements wider than this multiple of the
	// original box become markers.
	WidthOverrunFactor float64
	// ShortMaxChars / ShortMaxWords bound what counts as a short label.
	ShortMaxChars int
	ShortMaxWords int
}

// DefaultConfig returns the standard A4 book layout.
func DefaultConfig() Config {
	return Config{
		MarginLeft:         60,
		MarginRight:        60,
		MarginTop:          80,
		MarginBottom:       80,
		BodyFontSize:       11,
		LineHeightFactor:   1.5,
		FontFamily:         "Helvetica",
		MinAnnotationPt:    7,
		SmallFigureRatio:   0.18,
		CaptionBandRatio:   0.75,
		WidthOverrunFactor: 1.3,
		ShortMaxChars:      10,
		ShortMaxWords:      2,
	}
}

// Document is one reconstructed page ready for composition, blocks in
// reading order.
type Document struct {
	// PageLabel is the printed page number, rendered as a centered
	// header when non-empty.
	PageLabel string
	Blocks    []Block
}

// Block is one composable unit of a document.
type Block interface{ block() }

// TextBlock is flowing translated prose.
type TextBlock struct {
	Paragraphs []string
}

// FigureBlock is a cleaned figure raster plus its annotation layout.
type FigureBlock struct {
	Figure     *artifact.Figure
	Placements []overlay.Placement
	// PageHeight is the source page raster height, used for the
	// small-figure decision.
	PageHeight int
}

// TableBlock is a reconstructed table rendered as a cell grid.
type TableBlock struct {
	Table *artifact.Table
}

// ChartBlock is a derived chart rendered as an axis summary box.
type ChartBlock struct {
	Chart *artifact.Chart
}

func (TextBlock) block()   {}
func (FigureBlock) block() {}
func (TableBlock) block()  {}
func (ChartBlock) block()  {}

// cursor tracks the write position while blocks flow onto pages.
type cursor struct {
	page int
	y    float64
}

// Compositor renders documents to PDF.
type Compositor struct {
	cfg Config
}

// New builds a Compositor.
func New(cfg Config) *Compositor {
	if cfg.BodyFontSize <= 0 {
		cfg.BodyFontSize = 11
	}
	if cfg.LineHeightFactor <= 0 {
		cfg.LineHeightFactor = 1.5
	}
	if cfg.FontFamily == "" {
		cfg.FontFamily = "Helvetica"
	}
	return &Compositor{cfg: cfg}
}

// Config returns the layout parameters the compositor renders with.
func (c *Compositor) Config() Config {
	return c.cfg
}

// WritePDF composes the document and writes the PDF to w.
func (c *Compositor) WritePDF(doc *Document, w io.Writer) error {
	pdf, _, err := c.render(doc)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// PageCount composes the document and reports how many pages it fills.
func (c *Compositor) PageCount(doc *Document) (int, error) {
	_, cur, err := c.render(doc)
	if err != nil {
		return 0, err
	}
	return cur.page, nil
}

func (c *Compositor) render(doc *Document) (*gofpdf.Fpdf, cursor, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	// Identical inputs must produce identical bytes, so the metadata
	// dates are pinned (a zero date would fall back to time.Now).
	fixed := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	pdf.SetCreationDate(fixed)
	pdf.SetModificationDate(fixed)
	pdf.SetMargins(c.cfg.MarginLeft, c.cfg.MarginTop, c.cfg.MarginRight)
	pdf.SetAutoPageBreak(false, 0)

	r := &renderer{
		pdf:   pdf,
		cfg:   c.cfg,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		figID: 0,
	}
	r.pageW, r.pageH = pdf.GetPageSize()
	r.bodyW = r.pageW - c.cfg.MarginLeft - c.cfg.MarginRight
	r.newPage(doc.PageLabel)

	for _, b := range doc.Blocks {
		var err error
		switch blk := b.(type) {
		case TextBlock:
			err = r.text(blk)
		case FigureBlock:
			err = r.figure(blk)
		case TableBlock:
			err = r.table(blk)
		case ChartBlock:
			err = r.chart(blk)
		default:
			err = fmt.Errorf("unknown block type %T", b)
		}
		if err != nil {
			return nil, r.cur, err
		}
	}
	if pdf.Err() {
		return nil, r.cur, fmt.Errorf("composing pdf: %w", pdf.Error())
	}
	return pdf, r.cur, nil
}

type renderer struct {
	pdf   *gofpdf.Fpdf
	cfg   Config
	tr    func(string) string
	cur   cursor
	figID int

	pageW, pageH, bodyW float64
	pageLabel           string
}

func (r *renderer) lineHeight() float64 {
	return r.cfg.BodyFontSize * r.cfg.LineHeightFactor
}

func (r *renderer) bottomLimit() float64 {
	return r.pageH - r.cfg.MarginBottom
}

func (r *renderer) newPage(label string) {
	r.pdf.AddPage()
	r.cur.page++
	r.cur.y = r.cfg.MarginTop
	r.pageLabel = label

	if label != "" {
		r.pdf.SetFont(r.cfg.FontFamily, "", r.cfg.BodyFontSize-1)
		w := r.pdf.GetStringWidth(label)
		r.pdf.Text((r.pageW-w)/2, r.cfg.MarginTop-20, r.tr(label))
	}
}

// ensure breaks the page unless h points of vertical room remain.
func (r *renderer) ensure(h float64) {
	if r.cur.y+h > r.bottomLimit() {
		r.newPage(r.pageLabel)
	}
}

func (r *renderer) text(blk TextBlock) error {
	r.pdf.SetFont(r.cfg.FontFamily, "", r.cfg.BodyFontSize)
	r.pdf.SetTextColor(0, 0, 0)
	lh := r.lineHeight()
	for _, para := range blk.Paragraphs {
		if para == "" {
			continue
		}
		for _, line := range r.wrap(para, r.bodyW) {
			r.ensure(lh)
			r.pdf.Text(r.cfg.MarginLeft, r.cur.y+r.cfg.BodyFontSize, r.tr(line))
			r.cur.y += lh
		}
		r.cur.y += lh / 2
	}
	return nil
}

// wrap breaks text into lines no wider than width, splitting on spaces
// and falling back to rune boundaries for unspaced runs.
func (r *renderer) wrap(text string, width float64) []string {
	fits := func(s string) bool { return r.pdf.GetStringWidth(r.tr(s)) <= width }
	if fits(text) {
		return []string{text}
	}

	var lines []string
	var line string
	flush := func() {
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
	}
	appendRunes := func(word string) {
		for _, ru := range word {
			next := line + string(ru)
			if line != "" && !fits(next) {
				flush()
				next = string(ru)
			}
			line = next
		}
	}

	for i, word := range splitWords(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		switch {
		case fits(candidate):
			line = candidate
		case fits(word):
			flush()
			line = word
		default:
			if i > 0 && line != "" {
				line += " "
			}
			appendRunes(word)
		}
	}
	flush()
	return lines
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	for _, ru := range s {
		if ru == ' ' || ru == '\t' || ru == '\n' {
			if len(cur) > 0 {
				words = append(words, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, ru)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

// figure draws the cleaned raster scaled to the body width, then lays
// the annotations over it in canvas coordinates. Marker and caption
// annotations accumulate into a legend printed below.
func (r *renderer) figure(blk FigureBlock) error {
	fig := blk.Figure
	if fig == nil || fig.Image == nil {
		return nil
	}
	bounds := fig.Image.Bounds()
	imgW, imgH := float64(bounds.Dx()), float64(bounds.Dy())
	if imgW <= 0 || imgH <= 0 {
		return nil
	}

	scale := 1.0
	if imgW > r.bodyW {
		scale = r.bodyW / imgW
	}
	maxH := r.bottomLimit() - r.cfg.MarginTop
	if imgH*scale > maxH {
		scale = maxH / imgH
	}
	drawW, drawH := imgW*scale, imgH*scale
	r.ensure(drawH)

	r.figID++
	name := fmt.Sprintf("figure-%d", r.figID)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fig.Image, imaging.PNG); err != nil {
		return fmt.Errorf("encoding figure %d: %w", r.figID, err)
	}
	r.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)

	originX := r.cfg.MarginLeft
	originY := r.cur.y
	r.pdf.ImageOptions(name, originX, originY, drawW, drawH, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	info := FigureInfo{Width: bounds.Dx(), Height: bounds.Dy(), PageHeight: blk.PageHeight}
	var legend []artifact.LegendEntry
	marker := 0
	for _, pl := range blk.Placements {
		mode := r.cfg.DecideMode(pl, info)
		if fig.SmallInline {
			mode = ModeInline
		}
		switch mode {
		case ModeInline:
			r.inlineAnnotation(pl, originX, originY, scale)
		case ModeMarker:
			marker++
			r.markerGlyph(marker, pl, originX, originY, scale)
			legend = append(legend, artifact.LegendEntry{
				Marker:   marker,
				Original: pl.Label.Text,
				Text:     pl.Label.Translation,
			})
		case ModeLegend:
			legend = append(legend, artifact.LegendEntry{
				Original: pl.Label.Text,
				Text:     pl.Label.Translation,
			})
		}
	}
	r.cur.y += drawH + r.lineHeight()/2

	if len(legend) > 0 && !fig.SmallInline {
		r.legend(legend)
	}
	return nil
}

func (r *renderer) annotationFontPt(pl overlay.Placement, scale float64) float64 {
	pt := pl.FontSize * scale
	if pt < r.cfg.MinAnnotationPt {
		pt = r.cfg.MinAnnotationPt
	}
	return pt
}

func (r *renderer) inlineAnnotation(pl overlay.Placement, originX, originY, scale float64) {
	pt := r.annotationFontPt(pl, scale)
	x := originX + float64(pl.Box.X)*scale
	y := originY + float64(pl.Box.Y)*scale

	if pl.Leader {
		r.pdf.SetDrawColor(120, 120, 120)
		fromX := originX + pl.Label.Box.Center().X*scale
		fromY := originY + pl.Label.Box.Center().Y*scale
		toX := x + float64(pl.Box.W)*scale/2
		toY := y + float64(pl.Box.H)*scale/2
		r.pdf.Line(fromX, fromY, toX, toY)
	}

	r.pdf.SetFont(r.cfg.FontFamily, "", pt)
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.Text(x, y+pt, r.tr(pl.Label.Translation))
}

func (r *renderer) markerGlyph(n int, pl overlay.Placement, originX, originY, scale float64) {
	cx := originX + pl.Label.Box.Center().X*scale
	cy := originY + pl.Label.Box.Center().Y*scale
	radius := 7.0

	r.pdf.SetFillColor(220, 50, 50)
	r.pdf.Circle(cx, cy, radius, "F")

	label := fmt.Sprintf("%d", n)
	r.pdf.SetFont(r.cfg.FontFamily, "B", 9)
	r.pdf.SetTextColor(255, 255, 255)
	w := r.pdf.GetStringWidth(label)
	r.pdf.Text(cx-w/2, cy+3, label)
	r.pdf.SetTextColor(0, 0, 0)
}

func (r *renderer) legend(entries []artifact.LegendEntry) {
	lh := r.lineHeight()
	r.ensure(lh * 2)

	r.pdf.SetFont(r.cfg.FontFamily, "B", r.cfg.BodyFontSize)
	r.pdf.Text(r.cfg.MarginLeft, r.cur.y+r.cfg.BodyFontSize, "Diagram Key:")
	r.cur.y += lh

	r.pdf.SetFont(r.cfg.FontFamily, "", r.cfg.BodyFontSize-1)
	for _, e := range entries {
		text := e.Text
		if e.Marker > 0 {
			text = fmt.Sprintf("%d. %s", e.Marker, e.Text)
		}
		for _, line := range r.wrap(text, r.bodyW-20) {
			r.ensure(lh)
			r.pdf.Text(r.cfg.MarginLeft+20, r.cur.y+r.cfg.BodyFontSize, r.tr(line))
			r.cur.y += lh
		}
	}
	r.cur.y += lh / 2
}

// table renders a dense cell grid with a filled header row.
func (r *renderer) table(blk TableBlock) error {
	t := blk.Table
	if t == nil || t.Rows == 0 || t.Cols == 0 {
		return nil
	}
	grid := t.Grid()
	colW := r.bodyW / float64(t.Cols)
	rowH := r.lineHeight() + 4

	r.pdf.SetFont(r.cfg.FontFamily, "", r.cfg.BodyFontSize-1)
	r.pdf.SetDrawColor(90, 90, 90)
	for ri, row := range grid {
		r.ensure(rowH)
		fill := ri == 0
		if fill {
			r.pdf.SetFillColor(230, 230, 230)
			r.pdf.SetFont(r.cfg.FontFamily, "B", r.cfg.BodyFontSize-1)
		} else {
			r.pdf.SetFont(r.cfg.FontFamily, "", r.cfg.BodyFontSize-1)
		}
		r.pdf.SetXY(r.cfg.MarginLeft, r.cur.y)
		for _, cell := range row {
			r.pdf.CellFormat(colW, rowH, r.tr(r.fitCell(cell, colW-4)), "1", 0, "L", fill, 0, "")
		}
		r.cur.y += rowH
	}
	r.cur.y += r.lineHeight() / 2
	return nil
}

// fitCell truncates cell text that cannot fit its column.
func (r *renderer) fitCell(s string, width float64) string {
	if r.pdf.GetStringWidth(r.tr(s)) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		if r.pdf.GetStringWidth(r.tr(string(runes)+"…")) <= width {
			break
		}
	}
	return string(runes) + "…"
}

// chart renders a summary axis box: the declarative spec itself ships
// in the artifact manifest, the PDF shows titles, series and extents.
func (r *renderer) chart(blk ChartBlock) error {
	c := blk.Chart
	if c == nil {
		return nil
	}
	boxH := 140.0
	lh := r.lineHeight()
	r.ensure(boxH + 3*lh)

	top := r.cur.y
	left := r.cfg.MarginLeft
	r.pdf.SetDrawColor(90, 90, 90)
	r.pdf.Rect(left, top, r.bodyW, boxH, "D")
	// Axis lines inset from the frame.
	r.pdf.Line(left+30, top+10, left+30, top+boxH-20)
	r.pdf.Line(left+30, top+boxH-20, left+r.bodyW-10, top+boxH-20)

	r.pdf.SetFont(r.cfg.FontFamily, "B", r.cfg.BodyFontSize-1)
	title := fmt.Sprintf("%s chart: %s vs %s", c.Mark, c.YTitle, c.XTitle)
	r.pdf.Text(left+36, top+16, r.tr(title))

	r.pdf.SetFont(r.cfg.FontFamily, "", r.cfg.BodyFontSize-2)
	y := top + 16 + lh
	if len(c.Series) > 0 {
		r.pdf.Text(left+36, y, r.tr("Series: "+joinLimited(c.Series, 5)))
		y += lh
	}
	if lo, hi, ok := valueExtent(c.Values); ok {
		r.pdf.Text(left+36, y, r.tr(chartRangeLine(lo, hi, c.YUnit)))
	}
	r.cur.y += boxH + lh
	return nil
}

// chartRangeLine formats the value extent in plain ASCII so it matches
// the rest of the rendered text.
func chartRangeLine(lo, hi float64, unit string) string {
	return fmt.Sprintf("Range: %g - %g %s", lo, hi, unit)
}

func joinLimited(items []string, max int) string {
	if len(items) <= max {
		out := ""
		for i, it := range items {
			if i > 0 {
				out += ", "
			}
			out += it
		}
		return out
	}
	return joinLimited(items[:max], max) + fmt.Sprintf(" (+%d more)", len(items)-max)
}

func valueExtent(values []artifact.Value) (float64, float64, bool) {
	lo, hi := 0.0, 0.0
	found := false
	for _, v := range values {
		if !v.Numeric {
			continue
		}
		if !found {
			lo, hi = v.Y, v.Y
			found = true
			continue
		}
		if v.Y < lo {
			lo = v.Y
		}
		if v.Y > hi {
			hi = v.Y
		}
	}
	return lo, hi, found
}
