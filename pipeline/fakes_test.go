package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/studyforge/ai/mock"
	"github.com/poiesic/studyforge/core"
	"github.com/poiesic/studyforge/generation"
	"github.com/poiesic/studyforge/media"
	"github.com/poiesic/studyforge/retry"
	"github.com/poiesic/studyforge/semantic"
	"github.com/poiesic/studyforge/storage/memory"
	"github.com/poiesic/studyforge/transcribe"
	"github.com/poiesic/studyforge/upload"
	"github.com/stretchr/testify/require"
)

const (
	bilibiliURL = "https://www.bilibili.com/video/BV1xx411c7mD"
	lectureText = "Gradient descent minimizes a loss function. It follows the negative gradient."
)

func noSleep(context.Context, time.Duration) error { return nil }

var noWait = retry.Policy{MaxAttempts: 3, Sleep: noSleep}

type fakeResolver struct {
	calls atomic.Int32
	err   error
	// duration overrides the default ten minutes.
	duration time.Duration
	// entered is closed on the first call; hold then blocks it until closed.
	entered chan struct{}
	hold    chan struct{}
}

func (f *fakeResolver) Resolve(_ context.Context, url string) (*core.Source, error) {
	if f.calls.Add(1) == 1 && f.entered != nil {
		close(f.entered)
		<-f.hold
	}
	if f.err != nil {
		return nil, f.err
	}
	platform, id := media.Detect(url)
	src := &core.Source{URL: url, Platform: platform, VideoID: id}
	if platform == "" {
		src.ErrorMsg = "unsupported"
		return src, nil
	}
	src.Title = "Intro to optimization"
	src.Duration = 10 * time.Minute
	if f.duration != 0 {
		src.Duration = f.duration
	}
	src.Valid = true
	return src, nil
}

type fakeDownloader struct {
	err error
	// hold blocks Download until closed.
	hold chan struct{}
	// started is closed when Download is entered.
	started chan struct{}
	// noVideo leaves out the merged and video files.
	noVideo bool
}

func (f *fakeDownloader) Download(ctx context.Context, src *core.Source, dir string) (media.Artifacts, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.hold != nil {
		<-f.hold
	}
	if f.err != nil {
		return media.Artifacts{}, f.err
	}
	a := media.Artifacts{AudioPath: filepath.Join(dir, src.VideoID+".wav")}
	if !f.noVideo {
		a.VideoPath = filepath.Join(dir, src.VideoID+"_video.mp4")
		a.MergedPath = filepath.Join(dir, src.VideoID+"_merged.mp4")
	}
	for _, p := range a.Paths() {
		if err := os.WriteFile(p, []byte("media"), 0o644); err != nil {
			return media.Artifacts{}, err
		}
	}
	return a, nil
}

type fakeSplitter struct {
	parts int
	panic bool
}

func (f *fakeSplitter) Split(_ context.Context, audio string, _ time.Duration) ([]string, error) {
	if f.panic {
		panic("ffmpeg wrapper exploded")
	}
	base := strings.TrimSuffix(audio, filepath.Ext(audio))
	var out []string
	for i := range f.parts {
		p := fmt.Sprintf("%s_part%03d.wav", base, i)
		if err := os.WriteFile(p, []byte("pcm"), 0o644); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

type uploadCall struct {
	Path   string
	Prefix string
}

type fakeUploader struct {
	mu    sync.Mutex
	calls []uploadCall
	// fail reports whether path should fail.
	fail func(path string) bool
}

func (f *fakeUploader) Upload(_ context.Context, path, prefix string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, uploadCall{Path: path, Prefix: prefix})
	f.mu.Unlock()
	if f.fail != nil && f.fail(path) {
		return "", errors.New("oss unavailable")
	}
	return "https://oss.example/" + prefix + "/" + filepath.Base(path), nil
}

func (f *fakeUploader) prefixed(prefix string) []uploadCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uploadCall
	for _, c := range f.calls {
		if strings.HasPrefix(c.Prefix, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// fakeTranscriber turns every segment URL into one sentence of the lecture.
type fakeTranscriber struct {
	failJob bool
}

func (f *fakeTranscriber) Submit(_ context.Context, url string) (string, error) {
	return url, nil
}

func (f *fakeTranscriber) Poll(_ context.Context, jobID string) (transcribe.Status, error) {
	if f.failJob {
		return transcribe.Status{State: transcribe.StateFailed, Reason: "bad audio"}, nil
	}
	return transcribe.Status{State: transcribe.StateReady, Text: lectureText + " (" + filepath.Base(jobID) + ")"}, nil
}

type fakeSearcher struct {
	calls    atomic.Int32
	failures int32
	queries  []string
	mu       sync.Mutex
}

func (f *fakeSearcher) Search(_ context.Context, query string, rows int) ([]core.Work, error) {
	n := f.calls.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if n <= f.failures {
		return nil, errors.New("crossref 503")
	}
	return []core.Work{
		{Title: "Optimization Methods for Large-Scale Machine Learning", Author: "Bottou Léon", URL: "https://doi.org/10.1137/16m1080173", Source: "CrossRef"},
		{Title: "No link", Author: "Nobody"},
	}[:min(rows, 2)], nil
}

func completer() *mock.MockCompleter {
	return mock.NewMockCompleter(
		mock.Rule{Contains: generation.ModuleSummary.Instruction(), Reply: `{"summary": "Gradient descent basics"}`},
		mock.Rule{Contains: generation.ModuleKeywords.Instruction(), Reply: `["gradient", "loss"]`},
		mock.Rule{Contains: generation.ModuleHighlights.Instruction(), Reply: "```json\n[\"follows the negative gradient\"]\n```"},
		mock.Rule{Contains: generation.ModuleChapters.Instruction(), Reply: `[{"title": "Setup", "time": "00:00", "summary": "loss"}]`},
		mock.Rule{Contains: generation.ModuleKnowledgePoints.Instruction(), Reply: `[{name: "gradient", description: "direction of steepest ascent", prerequisites: "none"}]`},
		mock.Rule{Contains: generation.ModuleStudyGuide.Instruction(), Reply: `{"goals": ["understand descent"]}`},
		mock.Rule{Contains: generation.ModuleMultipleChoice.Instruction(), Reply: `{"multipleChoice": [{"question": "Descent follows?", "options": ["A. gradient", "B. negative gradient"], "answer": "B"}]}`},
		mock.Rule{Contains: generation.ModuleEssay.Instruction(), Reply: `{"essay": [{"question": "Why negative?", "answer": "To decrease loss."}]}`},
	)
}

type harness struct {
	deps       Deps
	resolver   *fakeResolver
	downloader *fakeDownloader
	splitter   *fakeSplitter
	uploader   *fakeUploader
	embedder   *mock.MockEmbedder
	completer  *mock.MockCompleter
	searcher   *fakeSearcher
	workDir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		resolver:   &fakeResolver{},
		downloader: &fakeDownloader{},
		splitter:   &fakeSplitter{parts: 3},
		uploader:   &fakeUploader{},
		embedder:   mock.NewMockEmbedder(),
		completer:  completer(),
		searcher:   &fakeSearcher{},
		workDir:    t.TempDir(),
	}
	provider := mock.NewMockProviderWithServices(h.embedder, h.completer)
	h.deps = Deps{
		Store:       memory.New(),
		Resolver:    h.resolver,
		Downloader:  h.downloader,
		Splitter:    h.splitter,
		Uploader:    h.uploader,
		Transcriber: &fakeTranscriber{},
		Embedder:    provider.Embedder(),
		Completer:   provider.Completer(),
		Literature:  h.searcher,
	}
	return h
}

func (h *harness) orchestrator(t *testing.T, opts ...Option) *Orchestrator {
	t.Helper()
	base := []Option{
		WithWorkDir(h.workDir),
		WithPollOptions(transcribe.Options{Interval: time.Millisecond, MaxPolls: 3, Sleep: noSleep}),
		WithLiteratureRetry(noWait.WithAttempts(DefaultLiteratureAttempts)),
		WithUploadOptions(upload.WithSleeper(noSleep)),
		WithGeneratorOptions(generation.WithRetryPolicy(noWait)),
		WithIndexOptions(semantic.WithRetryPolicy(noWait)),
	}
	o, err := New(h.deps, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}
