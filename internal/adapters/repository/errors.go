package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyName         = errors.New("worker name is required")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
