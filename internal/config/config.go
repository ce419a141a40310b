package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/repage-dev/repage/internal/clean"
	"github.com/repage-dev/repage/internal/compose"
	"github.com/repage-dev/repage/internal/overlay"
	"github.com/repage-dev/repage/internal/segment"
	"github.com/repage-dev/repage/internal/translate"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	seg := segment.DefaultConfig()
	ov := overlay.DefaultConfig()
	co := compose.DefaultConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Services: ServicesConfig{
			OCRURL:           "http://localhost:8070/ocr",
			LayoutURL:        "",
			TranslateURL:     "http://localhost:8071/translate",
			OCRTimeoutSec:    60,
			LayoutTimeout:    90,
			TranslateTimeout: 30,
		},
		Translate: TranslateConfig{
			SourceLang: "ja",
			TargetLang: "en",
		},
		Segment: SegmentConfig{
			GapThreshold: seg.GapThreshold,
			TopPad:       seg.TopPad,
			BottomPad:    seg.BottomPad,
			SidePad:      seg.SidePad,
		},
		Clean: CleanConfig{
			Strategy: "solid",
			Post:     "enhanced",
		},
		Overlay: OverlayConfig{
			BaseFontSize: ov.BaseFontSize,
			MinFontSize:  ov.MinFontSize,
			Clearance:    ov.Clearance,
		},
		Compose: ComposeConfig{
			BodyFontSize:     co.BodyFontSize,
			SmallFigureRatio: co.SmallFigureRatio,
			CaptionBandRatio: co.CaptionBandRatio,
		},
		Extract: ExtractConfig{
			TimeoutSec: 120,
		},
		Batch: BatchConfig{
			Workers:         4,
			ContinueOnError: false,
			ManifestFormat:  "json",
		},
	}
}

// Validate checks the configuration and returns the first error found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)",
			c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validStrategies := []string{"raw", "solid", "inpaint"}
	if !contains(validStrategies, c.Clean.Strategy) {
		return fmt.Errorf("invalid clean strategy: %s (must be one of: %s)",
			c.Clean.Strategy, strings.Join(validStrategies, ", "))
	}
	validPosts := []string{"none", "enhanced", "light"}
	if !contains(validPosts, c.Clean.Post) {
		return fmt.Errorf("invalid clean post pass: %s (must be one of: %s)",
			c.Clean.Post, strings.Join(validPosts, ", "))
	}

	if err := validateRatio(c.Compose.SmallFigureRatio, "compose.small_figure_ratio"); err != nil {
		return err
	}
	if err := validateRatio(c.Compose.CaptionBandRatio, "compose.caption_band_ratio"); err != nil {
		return err
	}

	if c.Segment.GapThreshold <= 0 {
		return fmt.Errorf("invalid gap threshold: %d (must be positive)", c.Segment.GapThreshold)
	}
	if c.Overlay.MinFontSize > c.Overlay.BaseFontSize {
		return fmt.Errorf("overlay min font size %.1f exceeds base font size %.1f",
			c.Overlay.MinFontSize, c.Overlay.BaseFontSize)
	}
	if c.Extract.TimeoutSec <= 0 {
		return fmt.Errorf("invalid extract timeout: %d (must be positive)", c.Extract.TimeoutSec)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	validManifests := []string{"json", "yaml"}
	if c.Batch.ManifestFormat != "" && !contains(validManifests, c.Batch.ManifestFormat) {
		return fmt.Errorf("invalid manifest format: %s (must be one of: %s)",
			c.Batch.ManifestFormat, strings.Join(validManifests, ", "))
	}
	return nil
}

// ToSegmentConfig converts to segment.Config.
func (c *Config) ToSegmentConfig() segment.Config {
	cfg := segment.DefaultConfig()
	if c.Segment.GapThreshold > 0 {
		cfg.GapThreshold = c.Segment.GapThreshold
	}
	if c.Segment.TopPad > 0 {
		cfg.TopPad = c.Segment.TopPad
	}
	if c.Segment.BottomPad > 0 {
		cfg.BottomPad = c.Segment.BottomPad
	}
	if c.Segment.SidePad > 0 {
		cfg.SidePad = c.Segment.SidePad
	}
	return cfg
}

// ToCleanConfig converts to clean.Config.
func (c *Config) ToCleanConfig() clean.Config {
	cfg := clean.DefaultConfig()
	switch c.Clean.Strategy {
	case "raw":
		cfg.Strategy = clean.StrategyRaw
	case "inpaint":
		cfg.Strategy = clean.StrategyInpaint
	default:
		cfg.Strategy = clean.StrategySolidFill
	}
	switch c.Clean.Post {
	case "light":
		cfg.Post = clean.PostLight
	case "none":
		cfg.Post = clean.PostNone
	default:
		cfg.Post = clean.PostEnhanced
	}
	return cfg
}

// ToOverlayConfig converts to overlay.Config.
func (c *Config) ToOverlayConfig() overlay.Config {
	cfg := overlay.DefaultConfig()
	if c.Overlay.BaseFontSize > 0 {
		cfg.BaseFontSize = c.Overlay.BaseFontSize
	}
	if c.Overlay.MinFontSize > 0 {
		cfg.MinFontSize = c.Overlay.MinFontSize
	}
	if c.Overlay.Clearance > 0 {
		cfg.Clearance = c.Overlay.Clearance
	}
	return cfg
}

// ToComposeConfig converts to compose.Config.
func (c *Config) ToComposeConfig() compose.Config {
	cfg := compose.DefaultConfig()
	if c.Compose.BodyFontSize > 0 {
		cfg.BodyFontSize = c.Compose.BodyFontSize
	}
	if c.Compose.SmallFigureRatio > 0 {
		cfg.SmallFigureRatio = c.Compose.SmallFigureRatio
	}
	if c.Compose.CaptionBandRatio > 0 {
		cfg.CaptionBandRatio = c.Compose.CaptionBandRatio
	}
	return cfg
}

// ToTranslatorConfig converts to translate.LabelTranslatorConfig.
func (c *Config) ToTranslatorConfig() translate.LabelTranslatorConfig {
	return translate.LabelTranslatorConfig{
		SourceLang:  c.Translate.SourceLang,
		TargetLang:  c.Translate.TargetLang,
		BookContext: c.Translate.BookContext,
	}
}

// ExtractTimeout returns the structured extraction deadline.
func (c *Config) ExtractTimeout() time.Duration {
	return time.Duration(c.Extract.TimeoutSec) * time.Second
}

// OCRTimeout returns the per-request OCR service timeout.
func (c *Config) OCRTimeout() time.Duration {
	return time.Duration(c.Services.OCRTimeoutSec) * time.Second
}

// LayoutTimeout returns the per-request layout service timeout.
func (c *Config) LayoutTimeout() time.Duration {
	return time.Duration(c.Services.LayoutTimeout) * time.Second
}

// TranslateTimeout returns the per-request translation service timeout.
func (c *Config) TranslateTimeout() time.Duration {
	return time.Duration(c.Services.TranslateTimeout) * time.Second
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateRatio validates that a value is between 0.0 and 1.0.
func validateRatio(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
