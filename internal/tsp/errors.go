package tsp

import "errors"

// ErrInvalidInput is returned when a matrix, tour or optimizer parameter is malformed.
// Use errors.Is(err, ErrInvalidInput) to check for it.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes which input was rejected and why.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Field + " " + e.Reason
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}
