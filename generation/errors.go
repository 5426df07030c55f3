package generation

import "errors"

var (
	// ErrCompleterRequired is returned when a Generator is created without a completer.
	ErrCompleterRequired = errors.New("completer is required")

	// ErrUnknownModule is returned for modules without an instruction.
	ErrUnknownModule = errors.New("unknown generation module")
)
