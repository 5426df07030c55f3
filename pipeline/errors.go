package pipeline

import "errors"

var (
	// ErrMissingDependency indicates a required collaborator was not supplied.
	ErrMissingDependency = errors.New("missing pipeline dependency")

	// ErrStagePanic wraps a panic recovered from a stage.
	ErrStagePanic = errors.New("stage panicked")

	// ErrNoSegments indicates audio splitting produced nothing to transcribe.
	ErrNoSegments = errors.New("audio produced no segments")

	// ErrEmptyTranscript indicates every segment transcribed to blank text.
	ErrEmptyTranscript = errors.New("transcript is empty")

	// ErrClosed indicates the orchestrator no longer accepts submissions.
	ErrClosed = errors.New("orchestrator is closed")
)
