// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package pipeline runs video analysis tasks from submission to study result.
//
// Submit validates a video link and starts a background workflow of eight
// stages: download, split, upload, transcribe, index and summarize, literature
// search, content generation, quiz generation. Each stage moves its step
// through pending, processing and done; the first failing stage records its
// step and message on the task and stops the workflow. Pollers read the task
// through Progress and Result while the workflow runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/studyforge/core"
	"github.com/poiesic/studyforge/generation"
	"github.com/poiesic/studyforge/literature"
	"github.com/poiesic/studyforge/media"
	"github.com/poiesic/studyforge/retry"
	"github.com/poiesic/studyforge/semantic"
	"github.com/poiesic/studyforge/storage"
	"github.com/poiesic/studyforge/transcribe"
	"github.com/poiesic/studyforge/upload"
)

const (
	// DefaultMaxTasks is the number of workflows that run at once.
	DefaultMaxTasks = 4
	// DefaultLiteratureAttempts bounds literature search retries.
	DefaultLiteratureAttempts = 5
)

// Orchestrator owns task records and the workflows that fill them.
type Orchestrator struct {
	deps      Deps
	pool      *ants.Pool
	uploads   *upload.Stage
	generator *generation.Generator

	bounds          core.DurationBounds
	workDir         string
	segment         time.Duration
	poll            transcribe.Options
	literatureRetry retry.Policy
	literatureRows  int
	uploadOpts      []upload.Option
	generatorOpts   []generation.Option
	indexOpts       []semantic.Option

	newID  func() string
	now    func() time.Time
	logger *slog.Logger

	// mu orders Close against wg.Add in start.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithMaxTasks sets how many workflows run at once. Further submissions
// queue until a slot frees up.
func WithMaxTasks(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 {
			n = 1
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		if o.pool != nil {
			o.pool.Release()
		}
		o.pool = pool
		return nil
	}
}

// WithDurationBounds sets the accepted video length.
func WithDurationBounds(b core.DurationBounds) Option {
	return func(o *Orchestrator) error {
		if b.Min < 0 || b.Max < b.Min {
			return fmt.Errorf("invalid duration bounds [%s, %s]", b.Min, b.Max)
		}
		o.bounds = b
		return nil
	}
}

// WithWorkDir sets the parent of per-task temporary directories.
// Default is os.TempDir().
func WithWorkDir(dir string) Option {
	return func(o *Orchestrator) error {
		o.workDir = dir
		return nil
	}
}

// WithSegmentLength sets the audio segment length sent for transcription.
func WithSegmentLength(d time.Duration) Option {
	return func(o *Orchestrator) error {
		o.segment = d
		return nil
	}
}

// WithPollOptions tunes transcription polling.
func WithPollOptions(p transcribe.Options) Option {
	return func(o *Orchestrator) error {
		o.poll = p
		return nil
	}
}

// WithLiteratureRetry sets the retry policy around literature search.
func WithLiteratureRetry(p retry.Policy) Option {
	return func(o *Orchestrator) error {
		o.literatureRetry = p
		return nil
	}
}

// WithLiteratureRows sets how many works the search returns.
func WithLiteratureRows(n int) Option {
	return func(o *Orchestrator) error {
		if n > 0 {
			o.literatureRows = n
		}
		return nil
	}
}

// WithUploadOptions passes options to the segment upload stage.
func WithUploadOptions(opts ...upload.Option) Option {
	return func(o *Orchestrator) error {
		o.uploadOpts = append(o.uploadOpts, opts...)
		return nil
	}
}

// WithGeneratorOptions passes options to the content generator.
func WithGeneratorOptions(opts ...generation.Option) Option {
	return func(o *Orchestrator) error {
		o.generatorOpts = append(o.generatorOpts, opts...)
		return nil
	}
}

// WithIndexOptions passes options to every per-task transcript index.
func WithIndexOptions(opts ...semantic.Option) Option {
	return func(o *Orchestrator) error {
		o.indexOpts = append(o.indexOpts, opts...)
		return nil
	}
}

// WithIDGenerator replaces uuid.NewString for task ids.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) error {
		if fn != nil {
			o.newID = fn
		}
		return nil
	}
}

// WithClock replaces time.Now for task timestamps.
func WithClock(fn func() time.Time) Option {
	return func(o *Orchestrator) error {
		if fn != nil {
			o.now = fn
		}
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// New creates an orchestrator around deps.
func New(deps Deps, opts ...Option) (*Orchestrator, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(DefaultMaxTasks)
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		deps:            deps,
		pool:            pool,
		bounds:          core.DefaultDurationBounds,
		workDir:         os.TempDir(),
		segment:         media.DefaultSegmentLength,
		literatureRetry: retry.DefaultPolicy.WithAttempts(DefaultLiteratureAttempts),
		literatureRows:  literature.DefaultRows,
		newID:           uuid.NewString,
		now:             func() time.Time { return time.Now().UTC() },
		logger:          slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			o.Release()
			return nil, err
		}
	}

	if o.poll.Logger == nil {
		o.poll.Logger = o.logger
	}
	if o.literatureRetry.Logger == nil {
		o.literatureRetry.Logger = o.logger
	}

	o.uploads, err = upload.NewStage(deps.Uploader,
		append([]upload.Option{upload.WithLogger(o.logger)}, o.uploadOpts...)...)
	if err != nil {
		o.Release()
		return nil, err
	}
	o.generator, err = generation.NewGenerator(deps.Completer,
		append([]generation.Option{generation.WithLogger(o.logger)}, o.generatorOpts...)...)
	if err != nil {
		o.Release()
		return nil, err
	}
	return o, nil
}

// Submit validates url and starts its analysis. A case id that already maps
// to a live task returns that task instead of starting a new one.
// Validation failures wrap core.ErrValidation and create no task.
func (o *Orchestrator) Submit(ctx context.Context, url, caseID string) (string, error) {
	if o.isClosed() {
		return "", ErrClosed
	}

	if caseID != "" {
		if id, ok := o.cachedCase(ctx, caseID); ok {
			o.logger.Info("case already analyzed", "case_id", caseID, "task_id", id)
			return id, nil
		}
	}

	src, err := o.validate(ctx, url)
	if err != nil {
		return "", err
	}

	task := core.NewTask(o.newID(), url, src.Title, o.now())
	task.CaseID = caseID
	if err := o.deps.Store.Create(ctx, task); err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	if caseID != "" {
		if err := o.deps.Store.BindCase(ctx, caseID, task.ID); err != nil {
			o.logger.Warn("failed to bind case", "case_id", caseID, "task_id", task.ID, "err", err)
		}
	}

	if err := o.start(context.WithoutCancel(ctx), task.ID, src); err != nil {
		if _, uerr := o.advance(ctx, task.ID, core.StepDownload, core.StepError, err.Error()); uerr != nil {
			o.logger.Error("failed to record scheduling error", "task_id", task.ID, "err", uerr)
		}
		return "", err
	}
	o.logger.Info("task submitted", "task_id", task.ID, "platform", src.Platform, "title", src.Title)
	return task.ID, nil
}

func (o *Orchestrator) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *Orchestrator) cachedCase(ctx context.Context, caseID string) (string, bool) {
	id, err := o.deps.Store.LookupCase(ctx, caseID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			o.logger.Warn("case lookup failed", "case_id", caseID, "err", err)
		}
		return "", false
	}
	if _, err := o.deps.Store.Get(ctx, id); err != nil {
		return "", false
	}
	return id, true
}

func (o *Orchestrator) validate(ctx context.Context, url string) (*core.Source, error) {
	if url == "" {
		return nil, core.ValidateSource(nil, o.bounds)
	}
	src, err := o.deps.Resolver.Resolve(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}
	if err := core.ValidateSource(src, o.bounds); err != nil {
		return nil, err
	}
	return src, nil
}

// start hands the workflow to the pool from its own goroutine so that
// Submit returns while the pool is saturated. It returns ErrClosed once
// Close has begun.
func (o *Orchestrator) start(ctx context.Context, id string, src *core.Source) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	o.wg.Add(1)
	o.mu.Unlock()

	go func() {
		err := o.pool.Submit(func() {
			defer o.wg.Done()
			o.execute(ctx, id, src)
		})
		if err != nil {
			defer o.wg.Done()
			o.logger.Error("failed to schedule workflow", "task_id", id, "err", err)
			if _, uerr := o.advance(ctx, id, core.StepDownload, core.StepError, err.Error()); uerr != nil {
				o.logger.Error("failed to record scheduling error", "task_id", id, "err", uerr)
			}
		}
	}()
	return nil
}

// Progress returns the poller view of a task.
func (o *Orchestrator) Progress(ctx context.Context, id string) (core.Progress, error) {
	task, err := o.deps.Store.Get(ctx, id)
	if err != nil {
		return core.Progress{}, err
	}
	return task.Progress(), nil
}

// Result returns the study result of a finished task. It returns
// core.ErrTaskNotReady while the task runs and an error wrapping
// core.ErrTaskFailed with the recorded message when it failed.
func (o *Orchestrator) Result(ctx context.Context, id string) (core.ResultPayload, error) {
	task, err := o.deps.Store.Get(ctx, id)
	if err != nil {
		return core.ResultPayload{}, err
	}
	return task.Payload()
}

// advance is the single mutation primitive for step state.
func (o *Orchestrator) advance(ctx context.Context, id string, step int, status core.StepStatus, detail string) (*core.Task, error) {
	return o.deps.Store.Update(ctx, id, func(t *core.Task) error {
		return t.Advance(step, status, detail, o.now())
	})
}

// Wait blocks until every started workflow has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close stops accepting submissions, waits for running workflows and
// releases the worker pools. The store is left open.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.Wait()
	o.Release()
	return nil
}

// Release releases worker pools without waiting.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
	if o.uploads != nil {
		o.uploads.Release()
	}
	if o.generator != nil {
		o.generator.Release()
	}
}

// execute runs every stage in order against one task.
func (o *Orchestrator) execute(ctx context.Context, id string, src *core.Source) {
	logger := o.logger.With("task_id", id)
	started := time.Now()

	dir, err := os.MkdirTemp(o.workDir, "studyforge-")
	if err != nil {
		logger.Error("failed to create work dir", "err", err)
		if _, uerr := o.advance(ctx, id, core.StepDownload, core.StepError, err.Error()); uerr != nil {
			logger.Error("failed to record error", "err", uerr)
		}
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove work dir", "dir", dir, "err", err)
		}
	}()

	r := &run{id: id, src: src, dir: dir, logger: logger, raws: make(map[generation.Module]string)}
	stages := o.stages()
	for i, st := range stages {
		if _, err := o.advance(ctx, id, i, core.StepProcessing, st.start); err != nil {
			logger.Error("failed to start step", "step", i+1, "err", err)
			return
		}

		r.detail = ""
		if err := o.runStage(ctx, st, r); err != nil {
			logger.Error("step failed", "step", i+1, "stage", st.name, "err", err)
			if _, uerr := o.advance(ctx, id, i, core.StepError, err.Error()); uerr != nil {
				logger.Error("failed to record step error", "step", i+1, "err", uerr)
			}
			return
		}

		last := i == len(stages)-1
		_, err := o.deps.Store.Update(ctx, id, func(t *core.Task) error {
			if err := t.Advance(i, core.StepDone, r.detail, o.now()); err != nil {
				return err
			}
			if last {
				return t.Finish(r.result, o.now())
			}
			return nil
		})
		if err != nil {
			logger.Error("failed to complete step", "step", i+1, "err", err)
			return
		}
		logger.Debug("step done", "step", i+1, "stage", st.name, "detail", r.detail)
	}
	logger.Info("task done", "took", time.Since(started).Round(time.Millisecond))
}

// runStage runs one stage and turns a panic into an error.
func (o *Orchestrator) runStage(ctx context.Context, st stage, r *run) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("stage panic", "stage", st.name, "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrStagePanic, p)
		}
	}()
	return st.run(ctx, r)
}
