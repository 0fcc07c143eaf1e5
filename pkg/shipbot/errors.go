package shipbot

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a malformed invocation. It is fatal in every failure mode.
	ErrValidation = errors.New("invalid deployment report")

	ErrClientRejected     = errors.New("api key rejected")
	ErrValidationRejected = errors.New("payload rejected")
	ErrServerError        = errors.New("server error")
	ErrHTTP               = errors.New("unexpected response")
	ErrTransport          = errors.New("request failed")
	ErrOutput             = errors.New("write step output")
)

// ValidationError names the configuration value that made a report unbuildable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func missing(field string, mode Mode) *ValidationError {
	if mode == ModeUpdate {
		return &ValidationError{Field: field, Message: "is required when updating a deployment"}
	}
	return &ValidationError{Field: field, Message: "is required for new deployments"}
}

// OutcomeError is returned by the HARD failure policy for a non-success outcome.
type OutcomeError struct {
	Outcome Outcome
}

func (e *OutcomeError) Error() string {
	if e.Outcome.Err == nil {
		return e.Outcome.Reason
	}
	return fmt.Sprintf("%s: %v", e.Outcome.Reason, e.Outcome.Err)
}

func (e *OutcomeError) Unwrap() error {
	return e.Outcome.Err
}
