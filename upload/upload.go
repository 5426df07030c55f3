// Package upload pushes a batch of local artifacts to object storage
// concurrently and reports which of them made it.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/studyforge/retry"
)

// ErrNoArtifactsUploaded is returned under PolicyRequireAny when every
// artifact in a non-empty batch failed.
var ErrNoArtifactsUploaded = errors.New("no artifacts uploaded")

// Uploader stores one local file under prefix and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath, prefix string) (string, error)
}

// Policy decides whether a finished batch lets the pipeline continue.
type Policy int

const (
	// PolicyRequireAny fails the stage when nothing was uploaded.
	PolicyRequireAny Policy = iota
	// PolicyAlwaysProceed continues even when every upload failed.
	PolicyAlwaysProceed
)

// Check applies the policy to a report.
func (p Policy) Check(r Report) error {
	if p == PolicyRequireAny && r.Total > 0 && len(r.Succeeded) == 0 {
		return fmt.Errorf("%w: %d of %d failed: %w", ErrNoArtifactsUploaded, len(r.Failed), r.Total, r.Err())
	}
	return nil
}

// Result is the outcome of one artifact.
type Result struct {
	Path string
	URL  string
	Err  error
}

// Failure records an artifact that could not be uploaded.
type Failure struct {
	Path string
	Err  error
}

// Report partitions a batch into successes and failures.
type Report struct {
	// Succeeded holds public URLs in input order.
	Succeeded []string
	Failed    []Failure
	Total     int
}

// Detail is the progress text shown for the upload step.
func (r Report) Detail() string {
	return fmt.Sprintf("total=%d, succeeded=%d, failed=%d", r.Total, len(r.Succeeded), len(r.Failed))
}

// Err joins every failure, or returns nil.
func (r Report) Err() error {
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = fmt.Errorf("%s: %w", f.Path, f.Err)
	}
	return errors.Join(errs...)
}

// NewReport builds a report from per-artifact results, keeping input order.
func NewReport(results []Result) Report {
	r := Report{Total: len(results), Succeeded: []string{}}
	for _, res := range results {
		if res.Err != nil {
			r.Failed = append(r.Failed, Failure{Path: res.Path, Err: res.Err})
			continue
		}
		r.Succeeded = append(r.Succeeded, res.URL)
	}
	return r
}

// Stage uploads artifacts on a bounded worker pool.
type Stage struct {
	uploader Uploader
	pool     *ants.Pool
	policy   Policy
	retry    retry.Policy
	remove   func(string) error
	logger   *slog.Logger
}

// Option configures a Stage.
type Option func(*Stage) error

// WithPoolSize sets how many uploads run at once.
func WithPoolSize(size int) Option {
	return func(s *Stage) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// WithPolicy sets the completion policy. Default is PolicyRequireAny.
func WithPolicy(p Policy) Option {
	return func(s *Stage) error {
		s.policy = p
		return nil
	}
}

// WithRetryDelay sets the wait before the single retry of a failed upload.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Stage) error {
		s.retry.Delay = d
		return nil
	}
}

// WithSleeper replaces the retry wait, for tests.
func WithSleeper(sleep retry.Sleeper) Option {
	return func(s *Stage) error {
		s.retry.Sleep = sleep
		return nil
	}
}

// WithRemover replaces os.Remove for deleting uploaded local files.
func WithRemover(remove func(string) error) Option {
	return func(s *Stage) error {
		if remove != nil {
			s.remove = remove
		}
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Stage) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStage creates an upload stage around uploader.
func NewStage(uploader Uploader, opts ...Option) (*Stage, error) {
	if uploader == nil {
		return nil, errors.New("uploader is required")
	}
	pool, err := ants.NewPool(5)
	if err != nil {
		return nil, err
	}
	s := &Stage{
		uploader: uploader,
		pool:     pool,
		policy:   PolicyRequireAny,
		retry:    retry.Policy{MaxAttempts: 2, Delay: time.Second},
		remove:   os.Remove,
		logger:   slog.Default().With("component", "upload"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}
	s.retry.Logger = s.logger
	return s, nil
}

// Run uploads every path under prefix and waits for all of them to settle.
// Each artifact is tried at most twice and its local copy is deleted after a
// successful upload. The returned error is the policy's verdict; the report
// is valid either way.
func (s *Stage) Run(ctx context.Context, paths []string, prefix string) (Report, error) {
	results := make([]Result, len(paths))
	var wg sync.WaitGroup
	for i, p := range paths {
		results[i].Path = p
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			results[i] = s.uploadOne(ctx, p, prefix)
		})
		if err != nil {
			wg.Done()
			results[i].Err = err
		}
	}
	wg.Wait()

	report := NewReport(results)
	for _, f := range report.Failed {
		s.logger.Error("artifact upload failed", "path", f.Path, "err", f.Err)
	}
	return report, s.policy.Check(report)
}

func (s *Stage) uploadOne(ctx context.Context, path, prefix string) Result {
	url, err := retry.Do(ctx, s.retry, func(ctx context.Context) (string, error) {
		return s.uploader.Upload(ctx, path, prefix)
	})
	if err != nil {
		return Result{Path: path, Err: err}
	}
	if rmErr := s.remove(path); rmErr != nil {
		s.logger.Warn("failed to delete uploaded file", "path", path, "err", rmErr)
	}
	return Result{Path: path, URL: url}
}

// Release releases the worker pool.
func (s *Stage) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}
