package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Kind classifies every error the engine can return, so callers can map
// failures to user-facing behavior without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindPhaseViolation
	KindDuplicateApplication
	KindAlreadyVoted
	KindInvalidCandidate
	KindInvalidTransition
	KindNotFound
	KindValidation
	KindStorageUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindPhaseViolation:
		return "phase_violation"
	case KindDuplicateApplication:
		return "duplicate_application"
	case KindAlreadyVoted:
		return "already_voted"
	case KindInvalidCandidate:
		return "invalid_candidate"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_error"
	case KindStorageUnavailable:
		return "storage_unavailable"
	default:
		return "unknown"
	}
}

// Error carries a Kind plus a message specific enough for the calling surface
// to render an actionable explanation ("voting has not yet opened" vs "you
// have already voted").
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func phaseViolation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPhaseViolation, Message: fmt.Sprintf(format, args...)}
}

func duplicateApplication(msg string) *Error {
	return &Error{Kind: KindDuplicateApplication, Message: msg}
}

func alreadyVoted(msg string) *Error {
	return &Error{Kind: KindAlreadyVoted, Message: msg}
}

func invalidCandidate(msg string) *Error {
	return &Error{Kind: KindInvalidCandidate, Message: msg}
}

func invalidTransition(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func validationErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// storageErr wraps an unexpected backend failure. These are the only errors a
// caller may safely retry.
func storageErr(op string, err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: "storage backend failed during " + op, Err: err}
}

// isUniqueViolation reports whether err is a unique-constraint violation
// whose constraint or message mentions marker. Handles both drivers: lib/pq
// exposes code 23505, modernc sqlite reports "UNIQUE constraint failed".
func isUniqueViolation(err error, marker string) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code != "23505" {
			return false
		}
		return marker == "" || strings.Contains(pqErr.Constraint, marker) || strings.Contains(pqErr.Detail, marker)
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return marker == "" || strings.Contains(msg, marker)
}

// isNotFound distinguishes empty results from backend failures.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isTimeout reports context/storage deadline failures.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
