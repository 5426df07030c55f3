package ai

import "errors"

var (
	// ErrEmptyCompletion is returned when a completion service answers without any choices.
	ErrEmptyCompletion = errors.New("completion returned no choices")

	// ErrEmbeddingMismatch is returned when an embedding response does not
	// match the request in count or dimension.
	ErrEmbeddingMismatch = errors.New("embedding response mismatch")
)
