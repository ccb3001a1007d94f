package profile

import "errors"

// Validation errors returned by Upsert and Submit.
var (
	ErrEmptyName       = errors.New("worker name is required")
	ErrUnknownCategory = errors.New("unrecognized category")
	ErrInvalidScore    = errors.New("score must be a finite number")
	ErrScoreOutOfRange = errors.New("score is outside the rating scale")
)
