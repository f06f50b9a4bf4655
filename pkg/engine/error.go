package engine

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error category exposed to callers.
type Kind string

const (
	KindInvalidRequest   Kind = "invalid_request"
	KindEmbeddingFailure Kind = "embedding_failure"
	KindIndexError       Kind = "index_error"
	KindModelCall        Kind = "model_call_error"
	KindNoCredentials    Kind = "no_credentials"
	KindCanceled         Kind = "canceled"
	KindInternal         Kind = "internal"
)

// Error is a structured engine error: a stable kind plus a human-readable
// message. Callers branch on Kind, never on message text.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the stable kind from an error, defaulting to KindInternal
// for anything the engine did not classify.
func KindOf(err error) Kind {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return KindInternal
}
