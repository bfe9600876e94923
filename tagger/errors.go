package tagger

import "errors"

// Error kinds surfaced by the tagging core. Callers match them with errors.Is
// to distinguish bad inputs from configuration problems.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInsufficientData = errors.New("insufficient data")
	ErrEmptyGroup       = errors.New("empty group")
	ErrCatalogMismatch  = errors.New("catalog mismatch")
)
