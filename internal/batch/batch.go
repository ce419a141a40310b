// Package batch drives whole-book processing: it discovers page
// rasters (or pulls them out of a source PDF), runs the page pipeline
// over a worker pool, writes per-page outputs and optionally merges
// the page PDFs into one document.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/repage-dev/repage/internal/config"
	"github.com/repage-dev/repage/internal/pdf"
	"github.com/repage-dev/repage/internal/pipeline"
)

// Runner executes batch jobs against a built pipeline.
type Runner struct {
	pipeline *pipeline.Pipeline
	cfg      config.BatchConfig
	logger   *slog.Logger
}

// NewRunner creates a batch runner.
func NewRunner(p *pipeline.Pipeline, cfg config.BatchConfig, logger *slog.Logger) (*Runner, error) {
	if p == nil {
		return nil, errors.New("pipeline is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{pipeline: p, cfg: cfg, logger: logger}, nil
}

// PageFailure records one page that did not make it to disk.
type PageFailure struct {
	Page  int    `yaml:"page" json:"page"`
	Error string `yaml:"error" json:"error"`
}

// Summary describes one batch run.
type Summary struct {
	StartedAt time.Time     `yaml:"started_at" json:"started_at"`
	Duration  time.Duration `yaml:"duration" json:"duration"`
	Pages     int           `yaml:"pages" json:"pages"`
	Succeeded int           `yaml:"succeeded" json:"succeeded"`
	Warnings  int           `yaml:"warnings" json:"warnings"`
	Failures  []PageFailure `yaml:"failures,omitempty" json:"failures,omitempty"`
	Merged    string        `yaml:"merged,omitempty" json:"merged,omitempty"`
}

type batchJob struct {
	pipeline.PageJob
	stem string
}

// Run processes every page found in the inputs. An input may be a
// directory of page images or a source PDF. When ContinueOnError is
// set, page failures are recorded in the summary and the run carries
// on; otherwise the first failure aborts the batch.
func (r *Runner) Run(ctx context.Context, inputs []string) (*Summary, error) {
	jobs, err := r.collectJobs(inputs)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := &Summary{StartedAt: time.Now(), Pages: len(jobs)}
	r.logger.Info("starting batch", "pages", len(jobs), "workers", r.cfg.Workers, "output", r.cfg.OutputDir)

	pageJobs := make([]pipeline.PageJob, len(jobs))
	for i, j := range jobs {
		pageJobs[i] = j.PageJob
	}

	pcfg := pipeline.ParallelConfig{
		MaxWorkers: r.cfg.Workers,
		ErrorHandler: func(page int, err error) {
			r.logger.Error("page failed", "page", page, "error", err)
		},
		Progress: func(done, total int) {
			r.logger.Info("progress", "done", done, "total", total)
		},
	}
	results, perr := r.pipeline.ProcessPagesParallel(ctx, pageJobs, pcfg)
	if perr != nil && !r.cfg.ContinueOnError {
		return nil, fmt.Errorf("batch aborted: %w", perr)
	}

	var mergeInputs []string
	for i, res := range results {
		job := jobs[i]
		if res == nil {
			summary.Failures = append(summary.Failures, PageFailure{
				Page: job.Number, Error: "processing failed",
			})
			continue
		}
		paths := pipeline.PathsFor(r.cfg.OutputDir, job.stem, r.cfg.ManifestFormat)
		if err := r.pipeline.WriteOutputs(res, paths, r.cfg.ManifestFormat); err != nil {
			if !r.cfg.ContinueOnError {
				return nil, err
			}
			r.logger.Error("page outputs failed", "page", job.Number, "error", err)
			summary.Failures = append(summary.Failures, PageFailure{
				Page: job.Number, Error: err.Error(),
			})
			continue
		}
		summary.Succeeded++
		summary.Warnings += len(res.Warnings)
		mergeInputs = append(mergeInputs, paths.PDF)
	}

	if r.cfg.MergeOutput != "" && len(mergeInputs) > 0 {
		out := r.cfg.MergeOutput
		if !filepath.IsAbs(out) {
			out = filepath.Join(r.cfg.OutputDir, out)
		}
		if err := pdf.MergePages(mergeInputs, out); err != nil {
			if !r.cfg.ContinueOnError {
				return nil, err
			}
			r.logger.Error("merge failed", "error", err)
		} else {
			summary.Merged = out
		}
	}

	summary.Duration = time.Since(summary.StartedAt)
	if err := r.writeSummary(summary); err != nil {
		return nil, err
	}
	r.logger.Info("batch finished",
		"succeeded", summary.Succeeded,
		"failed", len(summary.Failures),
		"duration", summary.Duration)
	return summary, nil
}

// collectJobs loads every page raster referenced by the inputs.
func (r *Runner) collectJobs(inputs []string) ([]batchJob, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no inputs provided")
	}

	var jobs []batchJob
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", input, err)
		}
		switch {
		case info.IsDir():
			pages, err := DiscoverImages(input)
			if err != nil {
				return nil, err
			}
			for _, pg := range pages {
				img, err := LoadImage(pg.Path)
				if err != nil {
					return nil, err
				}
				jobs = append(jobs, batchJob{
					PageJob: pipeline.PageJob{Number: pg.Number, Image: img},
					stem:    pg.Stem,
				})
			}
		case strings.EqualFold(filepath.Ext(input), ".pdf"):
			pages, err := pdf.ExtractPageImages(input)
			if err != nil {
				return nil, fmt.Errorf("failed to extract pages from %s: %w", input, err)
			}
			for _, pg := range pages {
				jobs = append(jobs, batchJob{
					PageJob: pipeline.PageJob{Number: pg.Page, Image: pg.Image},
					stem:    fmt.Sprintf("page_%03d", pg.Page),
				})
			}
		default:
			img, err := LoadImage(input)
			if err != nil {
				return nil, err
			}
			base := filepath.Base(input)
			stem := strings.TrimSuffix(base, filepath.Ext(base))
			jobs = append(jobs, batchJob{
				PageJob: pipeline.PageJob{Number: InferPageNumber(input, len(jobs)+1), Image: img},
				stem:    stem,
			})
		}
	}
	if len(jobs) == 0 {
		return nil, errors.New("inputs contained no pages")
	}
	return jobs, nil
}

func (r *Runner) writeSummary(summary *Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding batch summary: %w", err)
	}
	path := filepath.Join(r.cfg.OutputDir, "batch_summary.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing batch summary: %w", err)
	}
	return nil
}
