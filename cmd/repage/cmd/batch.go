package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/repage-dev/repage/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch [inputs...]",
	Short: "Reconstruct a whole book",
	Long: `Process many pages at once. Each input may be a directory of page
images, a single image, or a source PDF whose page scans are extracted
first. Pages run in parallel on a worker pool; per-page outputs land
in the output directory alongside a batch_summary.yaml.

With --merge the per-page PDFs are joined into one document. With
--metrics-addr a Prometheus endpoint is served for the duration of the
run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("output", "o", "", "output directory")
	batchCmd.Flags().IntP("workers", "w", 0, "worker pool size (default: from config)")
	batchCmd.Flags().Bool("continue-on-error", false, "keep going when a page fails")
	batchCmd.Flags().String("format", "", "manifest format (json, yaml)")
	batchCmd.Flags().String("merge", "", "merge page PDFs into this file")
	batchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	bcfg := cfg.Batch
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		bcfg.OutputDir = v
	}
	if bcfg.OutputDir == "" {
		bcfg.OutputDir = "."
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		bcfg.Workers = v
	}
	if cmd.Flags().Changed("continue-on-error") {
		bcfg.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		bcfg.ManifestFormat = v
	}
	if v, _ := cmd.Flags().GetString("merge"); v != "" {
		bcfg.MergeOutput = v
	}
	if v, _ := cmd.Flags().GetString("metrics-addr"); v != "" {
		bcfg.MetricsAddr = v
	}

	if bcfg.MetricsAddr != "" {
		startMetricsServer(bcfg.MetricsAddr)
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() { _ = p.Close() }()
	runner, err := batch.NewRunner(p, bcfg, slog.Default())
	if err != nil {
		return err
	}

	summary, err := runner.Run(cmd.Context(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processed %d/%d pages in %s\n",
		summary.Succeeded, summary.Pages, summary.Duration.Round(time.Millisecond))
	for _, f := range summary.Failures {
		fmt.Fprintf(out, "Page %d failed: %s\n", f.Page, f.Error)
	}
	if summary.Merged != "" {
		fmt.Fprintf(out, "Merged into %s\n", summary.Merged)
	}
	if len(summary.Failures) > 0 && !bcfg.ContinueOnError {
		return fmt.Errorf("%d pages failed", len(summary.Failures))
	}
	return nil
}

// startMetricsServer serves /metrics in the background for the
// lifetime of the batch run.
func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
}
