// Package pipeline orchestrates page reconstruction: OCR, clustering,
// segmentation, figure cleaning, translation, annotation placement,
// structured extraction and PDF composition. Pages are independent;
// parallelism exists only across pages.
package pipeline

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/repage-dev/repage/internal/clean"
	"github.com/repage-dev/repage/internal/compose"
	"github.com/repage-dev/repage/internal/extract"
	"github.com/repage-dev/repage/internal/layout"
	"github.com/repage-dev/repage/internal/ocr"
	"github.com/repage-dev/repage/internal/overlay"
	"github.com/repage-dev/repage/internal/segment"
	"github.com/repage-dev/repage/internal/translate"
)

// Pipeline processes single pages. Safe for concurrent use: all fields
// are set at build time and never mutated.
type Pipeline struct {
	ocrClient    ocr.Client
	layoutClient layout.Client // nil disables layout hints
	translator   *translate.LabelTranslator

	segCfg    segment.Config
	cleaner   *clean.Cleaner
	engine    *overlay.Engine
	extractor *extract.Extractor
	composer  *compose.Compositor

	extractTimeout time.Duration
	logger         *slog.Logger
}

// Builder assembles a Pipeline.
type Builder struct {
	p   Pipeline
	err error
}

// NewBuilder returns a Builder seeded with defaults for everything
// except the external clients.
func NewBuilder() *Builder {
	return &Builder{p: Pipeline{
		segCfg:         segment.DefaultConfig(),
		cleaner:        clean.New(clean.DefaultConfig()),
		engine:         overlay.NewEngine(overlay.DefaultConfig(), nil),
		extractor:      extract.New(extract.DefaultConfig()),
		composer:       compose.New(compose.DefaultConfig()),
		extractTimeout: 120 * time.Second,
		logger:         slog.Default(),
	}}
}

// WithOCRClient sets the OCR service client. Required.
func (b *Builder) WithOCRClient(c ocr.Client) *Builder {
	b.p.ocrClient = c
	return b
}

// WithLayoutClient sets the optional layout analysis client.
func (b *Builder) WithLayoutClient(c layout.Client) *Builder {
	b.p.layoutClient = c
	return b
}

// WithTranslator sets the label translator. Required.
func (b *Builder) WithTranslator(t *translate.LabelTranslator) *Builder {
	b.p.translator = t
	return b
}

// WithSegmentConfig overrides the segmentation tuning.
func (b *Builder) WithSegmentConfig(cfg segment.Config) *Builder {
	b.p.segCfg = cfg
	return b
}

// WithCleaner overrides the figure cleaner.
func (b *Builder) WithCleaner(c *clean.Cleaner) *Builder {
	if c != nil {
		b.p.cleaner = c
	}
	return b
}

// WithOverlayEngine overrides the placement engine.
func (b *Builder) WithOverlayEngine(e *overlay.Engine) *Builder {
	if e != nil {
		b.p.engine = e
	}
	return b
}

// WithExtractor overrides the structured extractor.
func (b *Builder) WithExtractor(e *extract.Extractor) *Builder {
	if e != nil {
		b.p.extractor = e
	}
	return b
}

// WithComposer overrides the PDF compositor.
func (b *Builder) WithComposer(c *compose.Compositor) *Builder {
	if c != nil {
		b.p.composer = c
	}
	return b
}

// WithExtractTimeout sets the structured extraction deadline.
func (b *Builder) WithExtractTimeout(d time.Duration) *Builder {
	if d > 0 {
		b.p.extractTimeout = d
	}
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.p.logger = l
	}
	return b
}

// Close releases service clients that hold resources. Clients that do
// not implement io.Closer are left alone.
func (p *Pipeline) Close() error {
	var firstErr error
	for _, c := range []any{p.ocrClient, p.layoutClient} {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Build validates and returns the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.p.ocrClient == nil {
		return nil, errors.New("pipeline requires an OCR client")
	}
	if b.p.translator == nil {
		return nil, errors.New("pipeline requires a translator")
	}
	p := b.p
	return &p, nil
}
