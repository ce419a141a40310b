package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
)

// PageJob is one page raster queued for processing.
type PageJob struct {
	Number int
	Image  image.Image
}

// ParallelConfig holds configuration for multi-page processing.
type ParallelConfig struct {
	// MaxWorkers is the worker pool size (0 = runtime.NumCPU()).
	MaxWorkers int
	// ErrorHandler is called for each failed page when set.
	ErrorHandler func(page int, err error)
	// Progress is called after each page completes when set.
	Progress func(done, total int)
}

// DefaultParallelConfig returns sensible defaults.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{MaxWorkers: runtime.NumCPU()}
}

type pageResultMsg struct {
	index  int
	result *PageResult
	err    error
}

// ProcessPagesParallel processes pages on a bounded worker pool and
// returns results in input order. Failed pages leave a nil slot; the
// first error is returned alongside the partial results.
func (p *Pipeline) ProcessPagesParallel(ctx context.Context, pages []PageJob, cfg ParallelConfig) ([]*PageResult, error) {
	if len(pages) == 0 {
		return nil, errors.New("no pages provided")
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	if len(pages) == 1 || cfg.MaxWorkers == 1 {
		return p.processSequential(ctx, pages, cfg)
	}

	jobs := make(chan pageJob, len(pages))
	results := make(chan pageResultMsg, len(pages))

	var wg sync.WaitGroup
	for i := 0; i < cfg.MaxWorkers; i++ {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, pg := range pages {
			select {
			case jobs <- pageJob{index: i, job: pg}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	resultMap := make(map[int]*PageResult)
	errorMap := make(map[int]error)
	done := 0
	for msg := range results {
		resultMap[msg.index] = msg.result
		errorMap[msg.index] = msg.err
		done++
		if cfg.Progress != nil {
			cfg.Progress(done, len(pages))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := make([]*PageResult, len(pages))
	var firstError error
	for i, pg := range pages {
		if err := errorMap[i]; err != nil {
			if firstError == nil {
				firstError = fmt.Errorf("page %d: %w", pg.Number, err)
			}
			if cfg.ErrorHandler != nil {
				cfg.ErrorHandler(pg.Number, err)
			}
			continue
		}
		ordered[i] = resultMap[i]
	}
	return ordered, firstError
}

type pageJob struct {
	index int
	job   PageJob
}

func (p *Pipeline) worker(ctx context.Context, jobs <-chan pageJob, results chan<- pageResultMsg, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case j, ok := <-jobs:
			if !ok {
				return
			}
			res, err := p.ProcessPage(ctx, j.job.Image, j.job.Number)
			select {
			case results <- pageResultMsg{index: j.index, result: res, err: err}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) processSequential(ctx context.Context, pages []PageJob, cfg ParallelConfig) ([]*PageResult, error) {
	ordered := make([]*PageResult, len(pages))
	var firstError error
	for i, pg := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := p.ProcessPage(ctx, pg.Image, pg.Number)
		if err != nil {
			if firstError == nil {
				firstError = fmt.Errorf("page %d: %w", pg.Number, err)
			}
			if cfg.ErrorHandler != nil {
				cfg.ErrorHandler(pg.Number, err)
			}
			continue
		}
		ordered[i] = res
		if cfg.Progress != nil {
			cfg.Progress(i+1, len(pages))
		}
	}
	return ordered, firstError
}
