package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/repage-dev/repage/internal/cluster"
)

// TranslatedLabel pairs a source label with its translation. Echoed is
// set when the engine failed and the original text was kept, so the
// caller can surface a warning without failing the page.
type TranslatedLabel struct {
	cluster.Label
	Translation string `json:"translation"`
	Echoed      bool   `json:"echoed,omitempty"`
}

// LabelTranslatorConfig configures the label translation adapter.
type LabelTranslatorConfig struct {
	SourceLang  string
	TargetLang  string
	BookContext string // optional document-level context appended to hints
}

// LabelTranslator applies token-preservation rules in front of the
// translation engine. Pure numbers and unit tokens never reach the
// engine; critical diagram tokens are translated but compared against
// the original so identifier text is never lost.
type LabelTranslator struct {
	client Client
	cfg    LabelTranslatorConfig
	logger *slog.Logger
}

// NewLabelTranslator builds the adapter around a translation client.
func NewLabelTranslator(client Client, cfg LabelTranslatorConfig, logger *slog.Logger) *LabelTranslator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SourceLang == "" {
		cfg.SourceLang = "ja"
	}
	if cfg.TargetLang == "" {
		cfg.TargetLang = "en"
	}
	return &LabelTranslator{client: client, cfg: cfg, logger: logger}
}

// TranslateLabels translates a batch of figure labels. Failures degrade
// to echoing the original text; the page never fails on a translation
// error.
func (lt *LabelTranslator) TranslateLabels(ctx context.Context, labels []cluster.Label, hint string) []TranslatedLabel {
	out := make([]TranslatedLabel, 0, len(labels))
	for _, l := range labels {
		out = append(out, lt.translateLabel(ctx, l, hint))
	}
	return out
}

func (lt *LabelTranslator) translateLabel(ctx context.Context, l cluster.Label, hint string) TranslatedLabel {
	original := strings.TrimSpace(l.Text)
	if original == "" || PassThrough(original) {
		return TranslatedLabel{Label: l, Translation: original}
	}
	text, err := lt.client.Translate(ctx, Request{
		Text:        original,
		ContextHint: lt.hint(hint),
		SourceLang:  lt.cfg.SourceLang,
		TargetLang:  lt.cfg.TargetLang,
	})
	if err != nil {
		lt.logger.Warn("label translation failed, keeping original",
			"text", original, "error", err)
		return TranslatedLabel{Label: l, Translation: original, Echoed: true}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return TranslatedLabel{Label: l, Translation: original, Echoed: true}
	}
	return TranslatedLabel{Label: l, Translation: text}
}

// TranslateText translates a paragraph or cell with full context. The
// error is returned so callers decide how to degrade.
func (lt *LabelTranslator) TranslateText(ctx context.Context, text, hint string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if PassThrough(text) {
		return text, nil
	}
	out, err := lt.client.Translate(ctx, Request{
		Text:        text,
		ContextHint: lt.hint(hint),
		SourceLang:  lt.cfg.SourceLang,
		TargetLang:  lt.cfg.TargetLang,
	})
	if err != nil {
		return "", fmt.Errorf("translate text: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (lt *LabelTranslator) hint(hint string) string {
	if lt.cfg.BookContext == "" {
		return hint
	}
	if hint == "" {
		return lt.cfg.BookContext
	}
	return hint + ". Book: " + lt.cfg.BookContext
}
