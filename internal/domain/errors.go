package domain

import (
	"errors"
	"fmt"
)

// ErrorKind tags the failure category of an assistant run.
type ErrorKind string

const (
	ErrorKindInput        ErrorKind = "input"
	ErrorKindProvider     ErrorKind = "provider"
	ErrorKindExtraction   ErrorKind = "extraction"
	ErrorKindCollaborator ErrorKind = "collaborator"
	ErrorKindPersistence  ErrorKind = "persistence"
	ErrorKindInternal     ErrorKind = "internal"
)

var (
	ErrMissingUserID      = errors.New("missing userId")
	ErrMissingInput       = errors.New("missing audio or transcription")
	ErrMissingAudio       = errors.New("missing audio")
	ErrNoJSON             = errors.New("no JSON object found in model response")
	ErrNoNaturalResponse  = errors.New("no natural_response in final JSON")
	ErrSlotInPast         = errors.New("scheduled slot is in the past")
	ErrInvalidSlot        = errors.New("scheduled slot has an invalid date or time")
	ErrNoCalendarEvents   = errors.New("no calendar events found")
	ErrClientNotFound     = errors.New("client not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrProviderNotSet     = errors.New("provider API key is not set")
	ErrEmptyProviderReply = errors.New("provider returned an empty response")
)

// WorkflowError carries the kind and the step of a failed run.
type WorkflowError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func NewWorkflowError(kind ErrorKind, op string, err error) *WorkflowError {
	return &WorkflowError{Kind: kind, Op: op, Err: err}
}

func (e *WorkflowError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// ProviderError is returned by the STT, LLM and TTS clients. StatusCode and
// Body hold the upstream response when there was one.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s error: %d - %s", e.Provider, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s error", e.Provider)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind attached to err, internal when none is.
func KindOf(err error) ErrorKind {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return ErrorKindProvider
	}
	return ErrorKindInternal
}
