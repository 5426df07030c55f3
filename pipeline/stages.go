package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/poiesic/studyforge/core"
	"github.com/poiesic/studyforge/generation"
	"github.com/poiesic/studyforge/literature"
	"github.com/poiesic/studyforge/media"
	"github.com/poiesic/studyforge/retry"
	"github.com/poiesic/studyforge/semantic"
	"github.com/poiesic/studyforge/transcribe"
	"golang.org/x/sync/errgroup"
)

// run is the state one workflow threads through its stages.
type run struct {
	id     string
	src    *core.Source
	dir    string
	logger *slog.Logger

	// detail is the done-text of the current stage.
	detail string

	artifacts   media.Artifacts
	segments    []string
	segmentURLs []string
	transcript  string
	index       *semantic.Index
	raws        map[generation.Module]string
	works       []core.Work
	refContext  string
	query       string
	result      *core.StudyResult
}

type stage struct {
	name string
	// start is the detail shown while the stage is processing.
	start string
	run   func(ctx context.Context, r *run) error
}

// stages lists the workflow in step order. Index i runs step i.
func (o *Orchestrator) stages() []stage {
	return []stage{
		core.StepDownload:   {"download", "downloading", o.download},
		core.StepSplit:      {"split", "splitting", o.split},
		core.StepUpload:     {"upload", "uploading", o.uploadSegments},
		core.StepTranscribe: {"transcribe", "transcribing", o.transcribe},
		core.StepIndex:      {"index", "indexing and summarizing", o.indexAndSummarize},
		core.StepLiterature: {"literature", "searching", o.searchLiterature},
		core.StepContent:    {"content", "generating", o.generateContent},
		core.StepQuiz:       {"quiz", "generating", o.generateQuiz},
	}
}

func (o *Orchestrator) download(ctx context.Context, r *run) error {
	a, err := o.deps.Downloader.Download(ctx, r.src, r.dir)
	if err != nil {
		return err
	}
	if a.AudioPath == "" {
		return errors.New("download produced no audio track")
	}
	r.artifacts = a

	videoURL, audioURL := o.publishMedia(ctx, r)
	if videoURL == "" {
		videoURL = r.src.URL
	}
	_, err = o.deps.Store.Update(ctx, r.id, func(t *core.Task) error {
		t.VideoURL = videoURL
		t.AudioURL = audioURL
		return nil
	})
	if err != nil {
		return err
	}
	r.detail = "media downloaded"
	return nil
}

// publishMedia copies the playable video and the full audio track to
// object storage. Failures are logged and leave the URL empty; the audio
// stays on disk for splitting.
func (o *Orchestrator) publishMedia(ctx context.Context, r *run) (videoURL, audioURL string) {
	prefix := "videos/" + r.id
	var g errgroup.Group
	g.Go(func() error {
		for _, p := range []string{r.artifacts.MergedPath, r.artifacts.VideoPath} {
			if p == "" {
				continue
			}
			url, err := o.deps.Uploader.Upload(ctx, p, prefix)
			if err == nil {
				videoURL = url
				return nil
			}
			r.logger.Warn("video upload failed", "path", p, "err", err)
		}
		return nil
	})
	g.Go(func() error {
		url, err := o.deps.Uploader.Upload(ctx, r.artifacts.AudioPath, prefix)
		if err != nil {
			r.logger.Warn("audio upload failed", "path", r.artifacts.AudioPath, "err", err)
			return nil
		}
		audioURL = url
		return nil
	})
	_ = g.Wait()
	return videoURL, audioURL
}

func (o *Orchestrator) split(ctx context.Context, r *run) error {
	parts, err := o.deps.Splitter.Split(ctx, r.artifacts.AudioPath, o.segment)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return ErrNoSegments
	}
	r.segments = parts
	r.detail = fmt.Sprintf("segments=%d", len(parts))
	return nil
}

func (o *Orchestrator) uploadSegments(ctx context.Context, r *run) error {
	report, err := o.uploads.Run(ctx, r.segments, "audio/"+r.id)
	r.detail = report.Detail()
	if err != nil {
		return err
	}
	r.segmentURLs = report.Succeeded
	return nil
}

func (o *Orchestrator) transcribe(ctx context.Context, r *run) error {
	texts, err := transcribe.TranscribeAll(ctx, o.deps.Transcriber, r.segmentURLs, o.poll)
	if err != nil {
		return err
	}
	r.transcript = transcribe.Join(texts)
	if strings.TrimSpace(r.transcript) == "" {
		return ErrEmptyTranscript
	}
	r.detail = fmt.Sprintf("transcribed %d/%d", len(texts), len(r.segments))
	return nil
}

func (o *Orchestrator) indexAndSummarize(ctx context.Context, r *run) error {
	index, err := semantic.NewIndex(o.deps.Embedder,
		append([]semantic.Option{semantic.WithLogger(r.logger)}, o.indexOpts...)...)
	if err != nil {
		return err
	}
	chunks, err := index.Build(ctx, r.transcript)
	if err != nil {
		return fmt.Errorf("index transcript: %w", err)
	}
	r.index = index

	raws, err := o.generator.Run(ctx, generation.Request{Transcript: r.transcript},
		generation.ModuleSummary, generation.ModuleKeywords)
	if err != nil {
		return err
	}
	r.keep(raws)
	r.detail = fmt.Sprintf("chunks=%d", chunks)
	return nil
}

func (o *Orchestrator) searchLiterature(ctx context.Context, r *run) error {
	r.query = generation.LiteratureQuery(r.raws[generation.ModuleSummary], r.raws[generation.ModuleKeywords])
	works, err := retry.Do(ctx, o.literatureRetry, func(ctx context.Context) ([]core.Work, error) {
		return o.deps.Literature.Search(ctx, r.query, o.literatureRows)
	})
	if err != nil {
		return err
	}
	r.works = works
	r.refContext = literature.FormatContext(works)
	r.detail = fmt.Sprintf("found=%d", len(works))
	return nil
}

func (o *Orchestrator) request(r *run) generation.Request {
	req := generation.Request{
		Transcript:        r.transcript,
		ReferencesContext: r.refContext,
		Query:             r.query,
	}
	if r.index != nil {
		req.Retriever = r.index
	}
	return req
}

func (o *Orchestrator) generateContent(ctx context.Context, r *run) error {
	raws, err := o.generator.Run(ctx, o.request(r),
		generation.ModuleHighlights, generation.ModuleChapters,
		generation.ModuleKnowledgePoints, generation.ModuleStudyGuide)
	if err != nil {
		return err
	}
	r.keep(raws)
	r.detail = fmt.Sprintf("generated=%d", len(raws))
	return nil
}

func (o *Orchestrator) generateQuiz(ctx context.Context, r *run) error {
	raws, err := o.generator.Run(ctx, o.request(r),
		generation.ModuleMultipleChoice, generation.ModuleEssay)
	if err != nil {
		return err
	}
	r.keep(raws)
	r.result = generation.Assemble(r.raws, r.works)
	r.detail = fmt.Sprintf("questions=%d", len(r.result.Quiz.MultipleChoice)+len(r.result.Quiz.Essay))
	return nil
}

func (r *run) keep(raws map[generation.Module]string) {
	maps.Copy(r.raws, raws)
}
