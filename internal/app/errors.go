package service

import (
	"errors"
	"fmt"

	"github.com/okian/crewrate/internal/domain/profile"
)

// Sentinel error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrWorkerNotFound  = errors.New("worker not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrStorage         = errors.New("storage failure")
)

// ValidationError reports a rejected field. It matches ErrInvalidInput.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// Is makes errors.Is(err, ErrInvalidInput) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// ratingFields names the fields of a rating in one wire format.
type ratingFields struct {
	name, category, score string
}

var (
	profileFields = ratingFields{name: "workerName", category: "category", score: "score"}
	gatewayFields = ratingFields{name: "workerId", category: "jobCategory", score: "overallScore"}
)

// validationFromCore translates profile core errors into ValidationErrors.
func validationFromCore(err error, f ratingFields) error {
	switch {
	case errors.Is(err, profile.ErrEmptyName):
		return Invalid(f.name, "is required")
	case errors.Is(err, profile.ErrUnknownCategory):
		return Invalid(f.category, "is not a recognized category")
	case errors.Is(err, profile.ErrInvalidScore):
		return Invalid(f.score, "must be a number")
	case errors.Is(err, profile.ErrScoreOutOfRange):
		return Invalid(f.score, "is outside the rating scale")
	default:
		return err
	}
}
