package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repage-dev/repage/internal/artifact"
	"github.com/repage-dev/repage/internal/geometry"
	"github.com/repage-dev/repage/internal/ocr"
	"github.com/repage-dev/repage/internal/translate"
)

type fakeOCR struct {
	result *ocr.Result
	err    error
}

func (f *fakeOCR) Recognize(ctx context.Context, img image.Image) (*ocr.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeTranslate struct {
	err   error
	calls int
}

func (f *fakeTranslate) Translate(ctx context.Context, req translate.Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "EN:" + req.Text, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T, ocrClient ocr.Client, tc translate.Client) *Pipeline {
	t.Helper()
	translator := translate.NewLabelTranslator(tc, translate.LabelTranslatorConfig{}, quietLogger())
	p, err := NewBuilder().
		WithOCRClient(ocrClient).
		WithTranslator(translator).
		WithLogger(quietLogger()).
		Build()
	require.NoError(t, err)
	return p
}

func frag(x, y, w, h int, text string) ocr.TextFragment {
	return ocr.TextFragment{
		Box:        geometry.Box{X: x, Y: y, W: w, H: h},
		Text:       text,
		Confidence: 0.9,
	}
}

func pageImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

// textPage lays out prose lines plus a bracketed page number header.
func textPage() *ocr.Result {
	return &ocr.Result{
		Width:    1000,
		Height:   1400,
		FullText: "[12] first line second line",
		Fragments: []ocr.TextFragment{
			frag(450, 40, 100, 24, "[12]"),
			frag(100, 100, 400, 24, "first line"),
			frag(100, 140, 400, 24, "second line"),
		},
	}
}

func TestBuilderRequiresClients(t *testing.T) {
	_, err := NewBuilder().Build()
	assert.Error(t, err)

	translator := translate.NewLabelTranslator(&fakeTranslate{}, translate.LabelTranslatorConfig{}, quietLogger())
	_, err = NewBuilder().WithTranslator(translator).Build()
	assert.Error(t, err)

	_, err = NewBuilder().WithOCRClient(&fakeOCR{}).Build()
	assert.Error(t, err)
}

func TestProcessTextPage(t *testing.T) {
	p := newTestPipeline(t, &fakeOCR{result: textPage()}, &fakeTranslate{})
	res, err := p.ProcessPage(context.Background(), pageImage(1000, 1400), 12)
	require.NoError(t, err)

	assert.Equal(t, 12, res.Page)
	assert.Equal(t, "12", res.Document.PageLabel)
	assert.Equal(t, "12", res.Manifest.PageNumber)
	require.NotEmpty(t, res.Document.Blocks)
	assert.Contains(t, res.TranslatedText, "EN:")
	assert.Contains(t, res.TranslatedText, "first line second line")
	assert.Empty(t, res.Warnings)
}

func TestProcessPageDegradesOnOCRFailure(t *testing.T) {
	p := newTestPipeline(t, &fakeOCR{err: errors.New("service down")}, &fakeTranslate{})
	res, err := p.ProcessPage(context.Background(), pageImage(1000, 1400), 3)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "ocr", res.Warnings[0].Stage)
	assert.Empty(t, res.TranslatedText)
}

func TestProcessPageDegradesOnTranslationFailure(t *testing.T) {
	p := newTestPipeline(t, &fakeOCR{result: textPage()}, &fakeTranslate{err: errors.New("quota")})
	res, err := p.ProcessPage(context.Background(), pageImage(1000, 1400), 12)
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, "translate", res.Warnings[0].Stage)
	// The original text carries through untranslated.
	assert.Contains(t, res.TranslatedText, "first line second line")
}

// figurePage produces prose above and below a whitespace gap holding a
// narrow diagram label, the shape the gap segmenter turns into a
// figure section.
func figurePage() *ocr.Result {
	r := &ocr.Result{Width: 1000, Height: 1400}
	for i := 0; i < 4; i++ {
		r.Fragments = append(r.Fragments,
			frag(100, 100+i*40, 400, 24, fmt.Sprintf("intro %d", i)))
	}
	r.Fragments = append(r.Fragments, frag(400, 600, 60, 24, "V1"))
	for i := 0; i < 4; i++ {
		r.Fragments = append(r.Fragments,
			frag(100, 900+i*40, 400, 24, fmt.Sprintf("outro %d", i)))
	}
	return r
}

func TestProcessFigurePage(t *testing.T) {
	p := newTestPipeline(t, &fakeOCR{result: figurePage()}, &fakeTranslate{})
	res, err := p.ProcessPage(context.Background(), pageImage(1000, 1400), 7)
	require.NoError(t, err)

	require.Len(t, res.Manifest.Figures, 1)
	fig := res.Manifest.Figures[0]
	require.Len(t, fig.Annotations, 1)
	// "V1" is a pass-through token: it survives translation untouched.
	assert.Equal(t, "V1", fig.Annotations[0].Text)
	assert.Equal(t, artifact.ModeInline, fig.Annotations[0].Mode)
	assert.NotNil(t, fig.Image)
}

func TestWriteOutputs(t *testing.T) {
	p := newTestPipeline(t, &fakeOCR{result: textPage()}, &fakeTranslate{})
	res, err := p.ProcessPage(context.Background(), pageImage(1000, 1400), 12)
	require.NoError(t, err)

	dir := t.TempDir()
	paths := PathsFor(dir, "page_012", "json")
	require.NoError(t, p.WriteOutputs(res, paths, "json"))

	pdf, err := os.ReadFile(paths.PDF)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))

	data, err := os.ReadFile(paths.Manifest)
	require.NoError(t, err)
	m, err := artifact.DecodeManifest(data)
	require.NoError(t, err)
	assert.Equal(t, 12, m.Page)

	_, err = os.Stat(paths.Source)
	assert.NoError(t, err)
	_, err = os.Stat(paths.Translated)
	assert.NoError(t, err)
}

func TestProcessPagesParallelKeepsOrder(t *testing.T) {
	p := newTestPipeline(t, &fakeOCR{result: textPage()}, &fakeTranslate{})

	var jobs []PageJob
	for i := 1; i <= 8; i++ {
		jobs = append(jobs, PageJob{Number: i, Image: pageImage(1000, 1400)})
	}
	results, err := p.ProcessPagesParallel(context.Background(), jobs, ParallelConfig{MaxWorkers: 4})
	require.NoError(t, err)
	require.Len(t, results, 8)
	for i, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, i+1, res.Page)
	}
}

func TestProcessPagesParallelEmptyInput(t *testing.T) {
	p := newTestPipeline(t, &fakeOCR{result: textPage()}, &fakeTranslate{})
	_, err := p.ProcessPagesParallel(context.Background(), nil, DefaultParallelConfig())
	assert.Error(t, err)
}

func TestErrorTaxonomy(t *testing.T) {
	base := errors.New("disk full")
	var err error = &CompositionError{Page: 3, Err: base}
	assert.True(t, IsPageFatal(err))
	assert.True(t, errors.Is(err, base))

	var te *TimeoutError
	err = fmt.Errorf("stage: %w", &TimeoutError{Stage: "extract", Page: 1, Err: context.DeadlineExceeded})
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "extract", te.Stage)
	assert.False(t, IsPageFatal(err))

	var ee *ExtractionError
	err = &ExtractionError{Page: 2, Err: base}
	require.True(t, errors.As(err, &ee))
	assert.False(t, IsPageFatal(err))

	var tre *TranslationError
	err = &TranslationError{Page: 2, Err: base}
	require.True(t, errors.As(err, &tre))
	assert.False(t, IsPageFatal(err))
}
