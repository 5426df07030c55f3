package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/studyforge/ai"
	"github.com/poiesic/studyforge/core"
	"github.com/poiesic/studyforge/literature"
	"github.com/poiesic/studyforge/media"
	"github.com/poiesic/studyforge/storage"
	"github.com/poiesic/studyforge/transcribe"
	"github.com/poiesic/studyforge/upload"
)

// Resolver looks up video metadata. *media.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*core.Source, error)
}

// Downloader fetches media into a working directory. *media.Downloader
// satisfies it.
type Downloader interface {
	Download(ctx context.Context, src *core.Source, dir string) (media.Artifacts, error)
}

// Splitter cuts audio into transcription segments. *media.FFmpeg satisfies it.
type Splitter interface {
	Split(ctx context.Context, audio string, segment time.Duration) ([]string, error)
}

// Deps are the collaborators a workflow calls.
type Deps struct {
	Store       storage.Store
	Resolver    Resolver
	Downloader  Downloader
	Splitter    Splitter
	Uploader    upload.Uploader
	Transcriber transcribe.Client
	Embedder    ai.Embedder
	Completer   ai.Completer
	Literature  literature.Searcher
}

func (d Deps) validate() error {
	required := []struct {
		name    string
		missing bool
	}{
		{"store", d.Store == nil},
		{"resolver", d.Resolver == nil},
		{"downloader", d.Downloader == nil},
		{"splitter", d.Splitter == nil},
		{"uploader", d.Uploader == nil},
		{"transcriber", d.Transcriber == nil},
		{"embedder", d.Embedder == nil},
		{"completer", d.Completer == nil},
		{"literature searcher", d.Literature == nil},
	}
	for _, r := range required {
		if r.missing {
			return fmt.Errorf("%w: %s", ErrMissingDependency, r.name)
		}
	}
	return nil
}
