// Package transcribe submits audio segments to a speech-to-text service and
// polls the resulting jobs until they finish.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/studyforge/retry"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPollInterval is the wait before each status check.
	DefaultPollInterval = 10 * time.Second
	// DefaultMaxPolls caps the number of status checks per job.
	DefaultMaxPolls = 60
)

var (
	// ErrPollTimeout is returned when a job is still pending after the last poll.
	ErrPollTimeout = errors.New("transcription timed out")
	// ErrJobFailed is returned when the service reports a failed job.
	ErrJobFailed = errors.New("transcription job failed")
)

// State is the coarse state of a transcription job.
type State int

const (
	StatePending State = iota
	StateReady
	StateFailed
)

// Status is one poll observation.
type Status struct {
	State State
	// Text is the transcript when State is StateReady.
	Text string
	// Reason explains a StateFailed job.
	Reason string
}

// Client is a speech-to-text service with asynchronous jobs.
type Client interface {
	Submit(ctx context.Context, audioURL string) (string, error)
	Poll(ctx context.Context, jobID string) (Status, error)
}

// Options tunes polling.
type Options struct {
	Interval time.Duration
	MaxPolls int
	// Sleep replaces the timer wait between polls, for tests.
	Sleep  retry.Sleeper
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	if o.MaxPolls <= 0 {
		o.MaxPolls = DefaultMaxPolls
	}
	if o.Sleep == nil {
		o.Sleep = retry.SleepContext
	}
	if o.Logger == nil {
		o.Logger = slog.Default().With("component", "transcribe")
	}
	return o
}

// PollUntilDone waits one interval before each check and returns the
// transcript once the job is ready. A poll error ends the wait.
func PollUntilDone(ctx context.Context, client Client, jobID string, opts Options) (string, error) {
	opts = opts.withDefaults()
	for attempt := 1; attempt <= opts.MaxPolls; attempt++ {
		if err := opts.Sleep(ctx, opts.Interval); err != nil {
			return "", err
		}
		st, err := client.Poll(ctx, jobID)
		if err != nil {
			return "", fmt.Errorf("poll job %s: %w", jobID, err)
		}
		switch st.State {
		case StateReady:
			opts.Logger.Debug("transcription ready", "job", jobID, "polls", attempt)
			return st.Text, nil
		case StateFailed:
			return "", fmt.Errorf("%w: job %s: %s", ErrJobFailed, jobID, st.Reason)
		}
	}
	return "", fmt.Errorf("%w: job %s after %d polls", ErrPollTimeout, jobID, opts.MaxPolls)
}

// TranscribeAll submits every URL, then polls all jobs concurrently. It
// returns transcripts in input order. The first failure cancels the rest.
func TranscribeAll(ctx context.Context, client Client, urls []string, opts Options) ([]string, error) {
	opts = opts.withDefaults()

	jobs := make([]string, len(urls))
	for i, u := range urls {
		id, err := client.Submit(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("submit %s: %w", u, err)
		}
		jobs[i] = id
	}
	opts.Logger.Info("transcription jobs submitted", "count", len(jobs))

	texts := make([]string, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range jobs {
		g.Go(func() error {
			text, err := PollUntilDone(gctx, client, id, opts)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

// Join concatenates segment transcripts in order, one per line.
func Join(texts []string) string {
	return strings.Join(texts, "\n")
}
