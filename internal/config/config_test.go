package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repage-dev/repage/internal/clean"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "chatty" }},
		{"clean strategy", func(c *Config) { c.Clean.Strategy = "erase" }},
		{"clean post", func(c *Config) { c.Clean.Post = "sharpen" }},
		{"caption ratio", func(c *Config) { c.Compose.CaptionBandRatio = 1.5 }},
		{"gap threshold", func(c *Config) { c.Segment.GapThreshold = 0 }},
		{"font order", func(c *Config) { c.Overlay.MinFontSize = 99 }},
		{"extract timeout", func(c *Config) { c.Extract.TimeoutSec = 0 }},
		{"batch workers", func(c *Config) { c.Batch.Workers = -1 }},
		{"manifest format", func(c *Config) { c.Batch.ManifestFormat = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestToCleanConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clean.Strategy = "inpaint"
	cfg.Clean.Post = "light"
	cc := cfg.ToCleanConfig()
	assert.Equal(t, clean.StrategyInpaint, cc.Strategy)
	assert.Equal(t, clean.PostLight, cc.Post)

	cfg.Clean.Strategy = "raw"
	cfg.Clean.Post = "none"
	cc = cfg.ToCleanConfig()
	assert.Equal(t, clean.StrategyRaw, cc.Strategy)
	assert.Equal(t, clean.PostNone, cc.Post)
}

func TestToSegmentConfigOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Segment.GapThreshold = 150
	sc := cfg.ToSegmentConfig()
	assert.Equal(t, 150, sc.GapThreshold)
	// Untouched knobs keep their package defaults.
	assert.Equal(t, 60, sc.TopPad)
	assert.Equal(t, 140, sc.BottomPad)
}

func TestToOverlayConfigOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Overlay.BaseFontSize = 30
	oc := cfg.ToOverlayConfig()
	assert.InDelta(t, 30, oc.BaseFontSize, 1e-9)
	assert.Equal(t, 5, oc.Clearance)
}

func TestServiceTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Services.OCRTimeoutSec = 45
	cfg.Services.LayoutTimeout = 15
	cfg.Services.TranslateTimeout = 25
	assert.Equal(t, 45*time.Second, cfg.OCRTimeout())
	assert.Equal(t, 15*time.Second, cfg.LayoutTimeout())
	assert.Equal(t, 25*time.Second, cfg.TranslateTimeout())
}

func TestToTranslatorConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Translate.BookContext = "pneumatics maintenance manual"
	tc := cfg.ToTranslatorConfig()
	assert.Equal(t, "ja", tc.SourceLang)
	assert.Equal(t, "en", tc.TargetLang)
	assert.Equal(t, "pneumatics maintenance manual", tc.BookContext)
}
