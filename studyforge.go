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


package studyforge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poiesic/studyforge/ai"
	"github.com/poiesic/studyforge/ai/gemini"
	"github.com/poiesic/studyforge/ai/openai"
	"github.com/poiesic/studyforge/api"
	"github.com/poiesic/studyforge/config"
	"github.com/poiesic/studyforge/core"
	"github.com/poiesic/studyforge/literature"
	"github.com/poiesic/studyforge/media"
	"github.com/poiesic/studyforge/objectstore"
	"github.com/poiesic/studyforge/pipeline"
	"github.com/poiesic/studyforge/storage"
	"github.com/poiesic/studyforge/storage/badger"
	"github.com/poiesic/studyforge/storage/memory"
	"github.com/poiesic/studyforge/storage/redis"
	"github.com/poiesic/studyforge/transcribe"
	"github.com/poiesic/studyforge/transcribe/tencent"
)

// App bundles a task store, an AI provider and the orchestrator built on them.
type App struct {
	store        storage.Store
	provider     ai.AIProvider
	orchestrator *pipeline.Orchestrator
	logger       *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	logger       *slog.Logger
	pipelineOpts []pipeline.Option
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) AppOption {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// WithPipelineOptions appends options to the orchestrator built by Open.
func WithPipelineOptions(opts ...pipeline.Option) AppOption {
	return func(o *appOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// Open builds every collaborator named in cfg and an orchestrator over them.
func Open(ctx context.Context, cfg *config.Config, opts ...AppOption) (*App, error) {
	options := &appOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	provider, err := NewProvider(ctx, cfg.AI)
	if err != nil {
		store.Close()
		return nil, err
	}

	deps, err := collaborators(cfg, logger)
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}
	deps.Store = store
	deps.Embedder = provider.Embedder()
	deps.Completer = provider.Completer()

	pipelineOpts := append([]pipeline.Option{
		pipeline.WithLogger(logger.With("component", "pipeline")),
		pipeline.WithMaxTasks(cfg.Pipeline.MaxTasks),
		pipeline.WithDurationBounds(core.DurationBounds{Min: cfg.Pipeline.MinDuration, Max: cfg.Pipeline.MaxDuration}),
		pipeline.WithSegmentLength(cfg.Pipeline.SegmentLength),
		pipeline.WithPollOptions(transcribe.Options{Interval: cfg.Pipeline.PollInterval, MaxPolls: cfg.Pipeline.MaxPolls}),
		pipeline.WithLiteratureRows(cfg.Literature.Rows),
	}, options.pipelineOpts...)
	if cfg.Media.WorkDir != "" {
		pipelineOpts = append(pipelineOpts, pipeline.WithWorkDir(cfg.Media.WorkDir))
	}

	orchestrator, err := pipeline.New(deps, pipelineOpts...)
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}

	return &App{
		store:        store,
		provider:     provider,
		orchestrator: orchestrator,
		logger:       logger,
	}, nil
}

func collaborators(cfg *config.Config, logger *slog.Logger) (pipeline.Deps, error) {
	resolver := media.NewResolver(
		media.WithYouTubeKey(cfg.Media.YouTubeAPIKey),
		media.WithResolverLogger(logger.With("component", "resolver")),
	)
	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpeg)
	downloader := media.NewDownloader(resolver, ffmpeg,
		media.WithTools(cfg.Media.Aria2c, cfg.Media.YtDlp),
		media.WithDownloaderLogger(logger.With("component", "downloader")),
	)

	store, err := objectstore.New(objectstore.Config{
		Region:          cfg.OSS.Region,
		Bucket:          cfg.OSS.Bucket,
		AccessKeyID:     cfg.OSS.AccessKeyID,
		AccessKeySecret: cfg.OSS.AccessKeySecret,
		Endpoint:        cfg.OSS.Endpoint,
	},
		objectstore.WithTimeout(cfg.OSS.Timeout),
		objectstore.WithLogger(logger.With("component", "objectstore")),
	)
	if err != nil {
		return pipeline.Deps{}, fmt.Errorf("object storage: %w", err)
	}

	asr, err := tencent.New(tencent.Config{
		SecretID:  cfg.Tencent.SecretID,
		SecretKey: cfg.Tencent.SecretKey,
		Region:    cfg.Tencent.Region,
		Endpoint:  cfg.Tencent.Endpoint,
		Engine:    cfg.Tencent.Engine,
	}, tencent.WithLogger(logger.With("component", "tencent-asr")))
	if err != nil {
		return pipeline.Deps{}, err
	}

	crossref := literature.NewCrossRef(
		literature.WithBaseURL(cfg.Literature.BaseURL),
		literature.WithMailto(cfg.Literature.Mailto),
		literature.WithLogger(logger.With("component", "crossref")),
	)

	return pipeline.Deps{
		Resolver:    resolver,
		Downloader:  downloader,
		Splitter:    ffmpeg,
		Uploader:    store,
		Transcriber: asr,
		Literature:  crossref,
	}, nil
}

// OpenStore opens the task store backend named in cfg.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.StorageMemory, "":
		return memory.New(memory.WithRetention(cfg.Retention)), nil
	case config.StorageBadger:
		return badger.Open(cfg.Path, cfg.Retention)
	case config.StorageRedis:
		s, err := redis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithRetention(cfg.Retention))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// NewProvider creates the AI provider described by cfg. Embeddings always
// use the OpenAI-compatible host; completions use cfg.Backend.
func NewProvider(ctx context.Context, cfg config.AIConfig) (ai.AIProvider, error) {
	aiConfig := ai.NewConfig(
		ai.WithBackend(ai.Backend(cfg.Backend)),
		ai.WithCompletionHost(cfg.CompletionHost),
		ai.WithCompletionModel(cfg.CompletionModel),
		ai.WithCompletionAPIKey(cfg.CompletionAPIKey),
		ai.WithEmbeddingHost(cfg.EmbeddingHost),
		ai.WithEmbeddingModel(cfg.EmbeddingModel),
		ai.WithEmbeddingAPIKey(cfg.EmbeddingAPIKey),
		ai.WithEmbeddingDimensions(cfg.EmbeddingDimensions),
		ai.WithTemperature(cfg.Temperature),
	)
	if aiConfig.Backend != ai.BackendGemini {
		return openai.NewProvider(aiConfig)
	}
	completer, err := gemini.NewCompleter(ctx, aiConfig)
	if err != nil {
		return nil, err
	}
	return openai.NewProvider(aiConfig, completer)
}

// Close waits for running workflows and releases the provider and store.
func (a *App) Close() error {
	var errs []error
	if err := a.orchestrator.Close(); err != nil {
		a.logger.Error("error closing orchestrator", "err", err)
		errs = append(errs, err)
	}
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing task store", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) Orchestrator() *pipeline.Orchestrator {
	return a.orchestrator
}

func (a *App) Store() storage.Store {
	return a.store
}

func (a *App) Provider() ai.AIProvider {
	return a.provider
}

// Handler returns the HTTP surface over the orchestrator.
func (a *App) Handler() http.Handler {
	return api.NewHandler(a.orchestrator, a.logger).Router()
}
