package shipbot

import "strings"

// FailureMode decides whether a non-success outcome fails the pipeline step.
type FailureMode string

const (
	FailureHard FailureMode = "HARD"
	FailureSoft FailureMode = "SOFT"
)

// ParseFailureMode is case-insensitive and falls back to HARD.
func ParseFailureMode(value string) FailureMode {
	if FailureMode(strings.ToUpper(strings.TrimSpace(value))) == FailureSoft {
		return FailureSoft
	}
	return FailureHard
}

// Resolve returns a fatal error for a non-success outcome under HARD and nil under SOFT.
func (m FailureMode) Resolve(outcome Outcome) error {
	if outcome.Success() || m == FailureSoft {
		return nil
	}
	return &OutcomeError{Outcome: outcome}
}
