package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/repage-dev/repage/internal/batch"
	"github.com/repage-dev/repage/internal/pipeline"
)

var pageCmd = &cobra.Command{
	Use:   "page [image]",
	Short: "Reconstruct a single scanned page",
	Long: `Process one page raster through the full pipeline and write the
translated PDF, the artifact manifest and the source/translated audit
text files next to each other in the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runPage,
}

func init() {
	pageCmd.Flags().StringP("output", "o", ".", "output directory")
	pageCmd.Flags().String("format", "", "manifest format (json, yaml)")
	pageCmd.Flags().Int("page-number", 0, "page number (default: inferred from the file name)")
	rootCmd.AddCommand(pageCmd)
}

func runPage(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	outputDir, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.Batch.ManifestFormat
	}
	pageNum, _ := cmd.Flags().GetInt("page-number")

	p, err := buildPipeline(cfg)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() { _ = p.Close() }()

	img, err := batch.LoadImage(args[0])
	if err != nil {
		return err
	}
	base := filepath.Base(args[0])
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if pageNum <= 0 {
		pageNum = batch.InferPageNumber(args[0], 1)
	}

	result, err := p.ProcessPage(cmd.Context(), img, pageNum)
	if err != nil {
		return fmt.Errorf("page %d failed: %w", pageNum, err)
	}

	paths := pipeline.PathsFor(outputDir, stem, format)
	if err := p.WriteOutputs(result, paths, format); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n", paths.PDF)
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "Warning [%s]: %s\n", w.Stage, w.Message)
	}
	return nil
}
