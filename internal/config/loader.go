package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "repage"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "REPAGE"
)

// Loader handles loading configuration from files, environment
// variables and flag bindings.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so cobra
// flag bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration from the search paths and environment,
// applies defaults, and validates the result. A missing config file is
// not an error.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.load("")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFile loads configuration from a specific file path, falling
// back to the standard search when the path is empty.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
	}
	cfg, err := l.load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) load(configFile string) (*Config, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file found: defaults and env vars apply.
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	l.v.AddConfigPath("/etc/repage")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "repage"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "repage"))
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults seeds viper with the default configuration values.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("services.ocr_url", defaults.Services.OCRURL)
	l.v.SetDefault("services.layout_url", defaults.Services.LayoutURL)
	l.v.SetDefault("services.translate_url", defaults.Services.TranslateURL)
	l.v.SetDefault("services.ocr_timeout_sec", defaults.Services.OCRTimeoutSec)
	l.v.SetDefault("services.layout_timeout_sec", defaults.Services.LayoutTimeout)
	l.v.SetDefault("services.translate_timeout_sec", defaults.Services.TranslateTimeout)

	l.v.SetDefault("translate.source_lang", defaults.Translate.SourceLang)
	l.v.SetDefault("translate.target_lang", defaults.Translate.TargetLang)
	l.v.SetDefault("translate.book_context", defaults.Translate.BookContext)

	l.v.SetDefault("segment.gap_threshold", defaults.Segment.GapThreshold)
	l.v.SetDefault("segment.top_pad", defaults.Segment.TopPad)
	l.v.SetDefault("segment.bottom_pad", defaults.Segment.BottomPad)
	l.v.SetDefault("segment.side_pad", defaults.Segment.SidePad)

	l.v.SetDefault("clean.strategy", defaults.Clean.Strategy)
	l.v.SetDefault("clean.post", defaults.Clean.Post)

	l.v.SetDefault("overlay.base_font_size", defaults.Overlay.BaseFontSize)
	l.v.SetDefault("overlay.min_font_size", defaults.Overlay.MinFontSize)
	l.v.SetDefault("overlay.clearance", defaults.Overlay.Clearance)

	l.v.SetDefault("compose.body_font_size", defaults.Compose.BodyFontSize)
	l.v.SetDefault("compose.small_figure_ratio", defaults.Compose.SmallFigureRatio)
	l.v.SetDefault("compose.caption_band_ratio", defaults.Compose.CaptionBandRatio)

	l.v.SetDefault("extract.timeout_sec", defaults.Extract.TimeoutSec)

	l.v.SetDefault("batch.workers", defaults.Batch.Workers)
	l.v.SetDefault("batch.continue_on_error", defaults.Batch.ContinueOnError)
	l.v.SetDefault("batch.manifest_format", defaults.Batch.ManifestFormat)
	l.v.SetDefault("batch.metrics_addr", defaults.Batch.MetricsAddr)
	l.v.SetDefault("batch.merge_output", defaults.Batch.MergeOutput)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
		paths = append(paths, filepath.Join(home, ".config", "repage"))
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "repage"))
	}

	paths = append(paths, "/etc/repage")

	return paths
}
