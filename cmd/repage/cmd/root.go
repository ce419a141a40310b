package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/repage-dev/repage/internal/clean"
	"github.com/repage-dev/repage/internal/compose"
	"github.com/repage-dev/repage/internal/config"
	"github.com/repage-dev/repage/internal/layout"
	"github.com/repage-dev/repage/internal/ocr"
	"github.com/repage-dev/repage/internal/overlay"
	"github.com/repage-dev/repage/internal/pipeline"
	"github.com/repage-dev/repage/internal/translate"
	"github.com/repage-dev/repage/internal/version"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "repage",
	Short: "Rebuild scanned book pages as translated PDFs",
	Long: `repage reconstructs scanned book pages: it reads each page raster,
recognizes and translates the text, cleans diagram labels out of the
figures and re-annotates them, extracts tables into real grids and
composes everything into a fresh PDF page.

External OCR, layout and translation engines are reached over HTTP;
their endpoints come from the configuration file, environment
variables (REPAGE_*) or flags.

Examples:
  repage page scan_012.png --output out/
  repage batch scans/ --output out/ --merge book.pdf
  repage batch book.pdf --output out/ --workers 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.PersistentFlags().GetBool("version")
		if v {
			printVersion(cmd)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/repage, /etc/repage)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}

		var logLevel slog.Level
		if globalConfig.Verbose {
			logLevel = slog.LevelDebug
		} else {
			switch globalConfig.LogLevel {
			case "debug":
				logLevel = slog.LevelDebug
			case "warn":
				logLevel = slog.LevelWarn
			case "error":
				logLevel = slog.LevelError
			default:
				logLevel = slog.LevelInfo
			}
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the global configuration, re-unmarshaled so flag
// values bound after the initial load are included.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}
	var cfg config.Config
	if err := configLoader.GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}
	return &cfg
}

// buildPipeline wires the HTTP service clients and stage configurations
// into a page pipeline.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	logger := slog.Default()

	ocrClient := ocr.NewHTTPClient(ocr.HTTPClientConfig{
		Endpoint: cfg.Services.OCRURL,
		Timeout:  cfg.OCRTimeout(),
	})
	translateClient := translate.NewHTTPClient(translate.HTTPClientConfig{
		Endpoint: cfg.Services.TranslateURL,
		Timeout:  cfg.TranslateTimeout(),
	})
	translator := translate.NewLabelTranslator(translateClient, cfg.ToTranslatorConfig(), logger)

	b := pipeline.NewBuilder().
		WithOCRClient(ocrClient).
		WithTranslator(translator).
		WithSegmentConfig(cfg.ToSegmentConfig()).
		WithCleaner(clean.New(cfg.ToCleanConfig())).
		WithOverlayEngine(overlay.NewEngine(cfg.ToOverlayConfig(), logger)).
		WithComposer(compose.New(cfg.ToComposeConfig())).
		WithExtractTimeout(cfg.ExtractTimeout()).
		WithLogger(logger)

	if cfg.Services.LayoutURL != "" {
		b = b.WithLayoutClient(layout.NewHTTPClient(layout.HTTPClientConfig{
			Endpoint: cfg.Services.LayoutURL,
			Timeout:  cfg.LayoutTimeout(),
		}))
	}
	return b.Build()
}

func printVersion(cmd *cobra.Command) {
	v, commit, date := version.Info()
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "repage version %s\n", v)
	_, _ = fmt.Fprintf(out, "Commit: %s\n", commit)
	_, _ = fmt.Fprintf(out, "Date: %s\n", date)
}
