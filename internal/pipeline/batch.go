package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/logging"
)

// DefaultConcurrency bounds a batch when no limit is given.
const DefaultConcurrency = 4

// Job is one document of a batch. An empty Output means in place.
type Job struct {
	Input  string
	Output string
}

// Jobs builds the jobs for inputs. With an output directory every document
// is written there under its base name.
func Jobs(inputs []string, outputDir string) []Job {
	jobs := make([]Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = Job{Input: in}
		if outputDir != "" {
			jobs[i].Output = filepath.Join(outputDir, filepath.Base(in))
		}
	}
	return jobs
}

// RewriteAll rewrites every job with at most concurrency documents in
// flight. Results keep the order of jobs; a failed document is recorded in
// its Result and does not stop the others. The error is non-nil only when
// ctx is cancelled.
func (r *Rewriter) RewriteAll(ctx context.Context, jobs []Job, concurrency int) ([]Result, error) {
	return runBatch(ctx, r.logger, jobs, concurrency, func(ctx context.Context, job Job) Result {
		return r.RewriteFile(ctx, job.Input, job.Output)
	})
}

// RevertAll reverts every job, bounded like RewriteAll.
func RevertAll(ctx context.Context, jobs []Job, concurrency int, logger logging.Logger) ([]Result, error) {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return runBatch(ctx, logger.WithComponent("pipeline"), jobs, concurrency, func(_ context.Context, job Job) Result {
		return RevertFile(job.Input, job.Output)
	})
}

func runBatch(
	ctx context.Context,
	logger logging.Logger,
	jobs []Job,
	concurrency int,
	fn func(context.Context, Job) Result,
) ([]Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger.Info(ctx, "starting batch", "documents", len(jobs), "concurrency", concurrency)
	start := time.Now()

	results := make([]Result, len(jobs))
	handler := errors.NewErrorHandler(logger)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			// each goroutine owns results[i]
			results[i] = fn(ctx, job)
			handler.Handle(ctx, results[i].Err)
			return nil
		})
	}

	err := g.Wait()
	for i := range results {
		if results[i].Path == "" {
			results[i].Path = jobs[i].Input
			if results[i].Err == nil && err != nil {
				results[i].Err = err
			}
		}
	}

	logger.Info(ctx, "batch complete", "documents", len(jobs), "elapsed", time.Since(start))
	return results, err
}

// Failed counts results with an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
