package pipeline

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/repage-dev/repage/internal/artifact"
	"github.com/repage-dev/repage/internal/cluster"
	"github.com/repage-dev/repage/internal/compose"
	"github.com/repage-dev/repage/internal/extract"
	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/layout"
	"github.com/repage-dev/repage/internal/ocr"
	"github.com/repage-dev/repage/internal/segment"
	"github.com/repage-dev/repage/internal/translate"
)

// PageResult is everything one page produces.
type PageResult struct {
	Page           int
	Document       *compose.Document
	Manifest       artifact.Manifest
	SourceText     string
	TranslatedText string
	Warnings       []artifact.Warning
	Duration       time.Duration
}

// ProcessPage reconstructs one page from its raster. Every stage
// except composition degrades on failure, appending a warning and
// carrying on with what it has.
func (p *Pipeline) ProcessPage(ctx context.Context, img image.Image, pageNum int) (*PageResult, error) {
	start := time.Now()
	res, err := p.processPage(ctx, img, pageNum)
	if err != nil {
		pagesFailedTotal.Inc()
		return nil, err
	}
	res.Duration = time.Since(start)
	pagesProcessedTotal.Inc()
	pageDuration.Observe(res.Duration.Seconds())
	return res, nil
}

func (p *Pipeline) processPage(ctx context.Context, img image.Image, pageNum int) (*PageResult, error) {
	bounds := img.Bounds()
	page := geometry.Size{W: bounds.Dx(), H: bounds.Dy()}

	result := &PageResult{
		Page:     pageNum,
		Manifest: artifact.Manifest{Page: pageNum},
	}
	warn := func(stage, format string, args ...any) {
		w := artifact.Warning{Stage: stage, Message: fmt.Sprintf(format, args...)}
		result.Warnings = append(result.Warnings, w)
		p.logger.Warn("page degraded", "page", pageNum, "stage", stage, "reason", w.Message)
	}

	ocrResult, err := p.ocrClient.Recognize(ctx, img)
	if err != nil {
		warn("ocr", "recognition failed: %v", err)
		ocrResult = &ocr.Result{Width: page.W, Height: page.H}
	}
	result.SourceText = ocrResult.FullText
	frags := ocr.NonEmpty(ocrResult.Fragments)

	var analysis *layout.Analysis
	if p.layoutClient != nil {
		analysis, err = p.layoutClient.Classify(ctx, img)
		if err != nil {
			warn("layout", "analysis unavailable, using heuristic segmentation: %v", err)
			analysis = nil
		}
	}

	segmenter := segment.Select(analysis, p.segCfg)
	sections, err := segmenter.Segment(page, frags)
	if err != nil {
		warn("segment", "segmentation failed, treating page as flowing text: %v", err)
		sections = []segment.Section{{
			Kind:   layout.RegionText,
			Band:   segment.Span{Y0: 0, Y1: page.H},
			Box:    geometry.Box{W: page.W, H: page.H},
			Labels: cluster.Cluster(frags, p.segCfg.Cluster),
		}}
	}

	doc := &compose.Document{}
	var translatedParas []string

	for _, sec := range sections {
		switch {
		case sec.Kind == layout.RegionTable:
			p.tableSection(ctx, sec, page, frags, result, doc, warn)
		case sec.IsFigure():
			p.figureSection(ctx, sec, img, page, result, doc, warn)
		default:
			para := p.textSection(ctx, sec, doc, result, warn)
			if para != "" {
				translatedParas = append(translatedParas, para)
			}
		}
	}

	result.TranslatedText = strings.Join(translatedParas, "\n\n")
	result.Manifest.PageNumber = doc.PageLabel
	result.Document = doc
	return result, nil
}

// textSection translates one prose section and appends it to the
// document. Returns the translated paragraph for the audit file.
func (p *Pipeline) textSection(
	ctx context.Context,
	sec segment.Section,
	doc *compose.Document,
	result *PageResult,
	warn func(string, string, ...any),
) string {
	lines := make([]string, 0, len(sec.Labels))
	for _, l := range sec.Labels {
		lines = append(lines, l.Text)
	}
	if len(lines) == 0 {
		return ""
	}

	// A lone page number on the first line becomes the page header.
	if doc.PageLabel == "" && len(doc.Blocks) == 0 {
		if label, ok := compose.ExtractPageLabel(lines[0]); ok {
			doc.PageLabel = label
			lines = lines[1:]
			if len(lines) == 0 {
				return ""
			}
		}
	}

	para := strings.Join(lines, " ")
	translated, err := p.translator.TranslateText(ctx, para, "body text")
	if err != nil {
		warn("translate", "paragraph kept untranslated: %v", err)
		translationsEchoedTotal.Inc()
		translated = para
	}
	doc.Blocks = append(doc.Blocks, compose.TextBlock{Paragraphs: []string{translated}})
	return translated
}

// figureSection cleans the figure crop, translates its labels and
// computes the annotation layout.
func (p *Pipeline) figureSection(
	ctx context.Context,
	sec segment.Section,
	img image.Image,
	page geometry.Size,
	result *PageResult,
	doc *compose.Document,
	warn func(string, string, ...any),
) {
	box := sec.Box.Clamp(page.W, page.H)
	if box.Empty() {
		return
	}
	crop := imaging.Crop(img, box.ToRect())

	localBoxes := make([]geometry.Box, 0, len(sec.Fragments))
	localFrags := make([]ocr.TextFragment, 0, len(sec.Fragments))
	for _, f := range sec.Fragments {
		lf := f
		lf.Box = f.Box.Translate(-box.X, -box.Y).Clamp(box.W, box.H)
		if lf.Box.Empty() {
			continue
		}
		localBoxes = append(localBoxes, lf.Box)
		localFrags = append(localFrags, lf)
	}

	cleaned, err := p.cleaner.Clean(crop, localBoxes)
	if err != nil {
		warn("clean", "figure kept uncleaned: %v", err)
		cleaned = imaging.Clone(crop)
	}

	labels := cluster.Cluster(localFrags, p.segCfg.Cluster)
	translated := p.translator.TranslateLabels(ctx, labels, "diagram label")
	for _, tl := range translated {
		if tl.Echoed {
			translationsEchoedTotal.Inc()
		}
	}

	canvas := geometry.Size{W: box.W, H: box.H}
	placements := p.engine.Place(translated, nil, canvas)

	cfg := p.composer.Config()
	info := compose.FigureInfo{Width: box.W, Height: box.H, PageHeight: page.H}
	small := page.H > 0 && float64(box.H) < cfg.SmallFigureRatio*float64(page.H)

	fig := artifact.Figure{
		Kind:        string(sec.Kind),
		Region:      sec.Box,
		Image:       cleaned,
		SmallInline: small,
	}
	marker := 0
	for _, pl := range placements {
		if pl.Forced {
			placementsForcedTotal.Inc()
			warn("overlay", "label %q force-placed", pl.Label.Translation)
		}
		ann := artifact.Annotation{
			Box:      pl.Box,
			Original: pl.Label.Text,
			Text:     pl.Label.Translation,
			FontSize: pl.FontSize,
			Mode:     artifact.ModeInline,
			Leader:   pl.Leader,
			Origin:   pl.Label.Box,
			Forced:   pl.Forced,
		}
		switch cfg.DecideMode(pl, info) {
		case compose.ModeMarker:
			if !small {
				marker++
				ann.Mode = artifact.ModeMarker
				ann.Marker = marker
				fig.Legend = append(fig.Legend, artifact.LegendEntry{
					Marker: marker, Original: pl.Label.Text, Text: pl.Label.Translation,
				})
			}
		case compose.ModeLegend:
			if !small {
				fig.Legend = append(fig.Legend, artifact.LegendEntry{
					Original: pl.Label.Text, Text: pl.Label.Translation,
				})
			}
		}
		fig.Annotations = append(fig.Annotations, ann)
	}

	result.Manifest.Figures = append(result.Manifest.Figures, fig)
	doc.Blocks = append(doc.Blocks, compose.FigureBlock{
		Figure:     &fig,
		Placements: placements,
		PageHeight: page.H,
	})
}

// tableSection extracts structured content under its own deadline and
// derives charts from the result.
func (p *Pipeline) tableSection(
	ctx context.Context,
	sec segment.Section,
	page geometry.Size,
	frags []ocr.TextFragment,
	result *PageResult,
	doc *compose.Document,
	warn func(string, string, ...any),
) {
	scan := p.extractor.ScanRegion(page, sec.Box)
	var regionFrags []ocr.TextFragment
	for _, f := range frags {
		if scan.Contains(f.Box, 0) {
			regionFrags = append(regionFrags, f)
		}
	}

	tctx, cancel := context.WithTimeout(ctx, p.extractTimeout)
	defer cancel()

	table := p.extractor.ExtractTable(tctx, regionFrags)
	if tctx.Err() != nil && ctx.Err() == nil {
		extractionTimeoutsTotal.Inc()
		terr := &TimeoutError{Stage: "extract", Page: result.Page, Err: tctx.Err()}
		warn("extract", "%v", terr)
		return
	}
	if table == nil {
		warn("extract", "table region yielded no grid")
		return
	}

	p.translateCells(ctx, table, warn)

	result.Manifest.Tables = append(result.Manifest.Tables, *table)
	doc.Blocks = append(doc.Blocks, compose.TableBlock{Table: table})

	if chart := extract.FromTable(table); chart != nil {
		result.Manifest.Charts = append(result.Manifest.Charts, *chart)
		doc.Blocks = append(doc.Blocks, compose.ChartBlock{Chart: chart})
	}
}

func (p *Pipeline) translateCells(ctx context.Context, table *artifact.Table, warn func(string, string, ...any)) {
	warned := false
	for i := range table.Cells {
		cell := &table.Cells[i]
		if cell.Text == "" || translate.PassThrough(cell.Text) {
			continue
		}
		translated, err := p.translator.TranslateText(ctx, cell.Text, "table cell")
		if err != nil {
			if !warned {
				warn("translate", "table cells kept untranslated: %v", err)
				warned = true
			}
			translationsEchoedTotal.Inc()
			continue
		}
		cell.Translation = translated
	}
}
