package config

// Config is the complete configuration for the repage application. It
// covers the page and batch commands and loads from configuration
// files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// External service endpoints
	Services ServicesConfig `mapstructure:"services" yaml:"services" json:"services"`

	// Translation settings
	Translate TranslateConfig `mapstructure:"translate" yaml:"translate" json:"translate"`

	// Page segmentation tuning
	Segment SegmentConfig `mapstructure:"segment" yaml:"segment" json:"segment"`

	// Figure cleaning
	Clean CleanConfig `mapstructure:"clean" yaml:"clean" json:"clean"`

	// Annotation placement
	Overlay OverlayConfig `mapstructure:"overlay" yaml:"overlay" json:"overlay"`

	// PDF composition
	Compose ComposeConfig `mapstructure:"compose" yaml:"compose" json:"compose"`

	// Structured extraction
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract" json:"extract"`

	// Batch processing
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// ServicesConfig holds the HTTP endpoints of the external OCR, layout
// and translation services. An empty layout URL disables layout hints
// and the heuristic segmenter runs alone.
type ServicesConfig struct {
	OCRURL           string `mapstructure:"ocr_url" yaml:"ocr_url" json:"ocr_url"`
	LayoutURL        string `mapstructure:"layout_url" yaml:"layout_url" json:"layout_url"`
	TranslateURL     string `mapstructure:"translate_url" yaml:"translate_url" json:"translate_url"`
	OCRTimeoutSec    int    `mapstructure:"ocr_timeout_sec" yaml:"ocr_timeout_sec" json:"ocr_timeout_sec"`
	LayoutTimeout    int    `mapstructure:"layout_timeout_sec" yaml:"layout_timeout_sec" json:"layout_timeout_sec"`
	TranslateTimeout int    `mapstructure:"translate_timeout_sec" yaml:"translate_timeout_sec" json:"translate_timeout_sec"`
}

// TranslateConfig holds language and context settings.
type TranslateConfig struct {
	SourceLang  string `mapstructure:"source_lang" yaml:"source_lang" json:"source_lang"`
	TargetLang  string `mapstructure:"target_lang" yaml:"target_lang" json:"target_lang"`
	BookContext string `mapstructure:"book_context" yaml:"book_context" json:"book_context"`
}

// SegmentConfig holds the whitespace-gap segmentation tuning.
type SegmentConfig struct {
	GapThreshold int `mapstructure:"gap_threshold" yaml:"gap_threshold" json:"gap_threshold"`
	TopPad       int `mapstructure:"top_pad" yaml:"top_pad" json:"top_pad"`
	BottomPad    int `mapstructure:"bottom_pad" yaml:"bottom_pad" json:"bottom_pad"`
	SidePad      int `mapstructure:"side_pad" yaml:"side_pad" json:"side_pad"`
}

// CleanConfig selects the figure text-removal strategy and post pass.
type CleanConfig struct {
	Strategy string `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
	Post     string `mapstructure:"post" yaml:"post" json:"post"`
}

// OverlayConfig holds annotation placement tuning.
type OverlayConfig struct {
	BaseFontSize float64 `mapstructure:"base_font_size" yaml:"base_font_size" json:"base_font_size"`
	MinFontSize  float64 `mapstructure:"min_font_size" yaml:"min_font_size" json:"min_font_size"`
	Clearance    int     `mapstructure:"clearance" yaml:"clearance" json:"clearance"`
}

// ComposeConfig holds PDF layout tuning.
type ComposeConfig struct {
	BodyFontSize     float64 `mapstructure:"body_font_size" yaml:"body_font_size" json:"body_font_size"`
	SmallFigureRatio float64 `mapstructure:"small_figure_ratio" yaml:"small_figure_ratio" json:"small_figure_ratio"`
	CaptionBandRatio float64 `mapstructure:"caption_band_ratio" yaml:"caption_band_ratio" json:"caption_band_ratio"`
}

// ExtractConfig holds structured extraction settings.
type ExtractConfig struct {
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// BatchConfig holds batch processing settings.
type BatchConfig struct {
	Workers         int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	ContinueOnError bool   `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	ManifestFormat  string `mapstructure:"manifest_format" yaml:"manifest_format" json:"manifest_format"`
	MetricsAddr     string `mapstructure:"metrics_addr" yaml:"metrics_addr" json:"metrics_addr"`
	MergeOutput     string `mapstructure:"merge_output" yaml:"merge_output" json:"merge_output"`
}
