package errors

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidAddress      = errors.New("invalid caller address")
	ErrCandidateNotFound   = errors.New("candidate not found")
	ErrAlreadyVoted        = errors.New("voter already voted in current session")
	ErrUnauthorized        = errors.New("caller is not authorized")
	ErrStorageExhausted    = errors.New("ledger storage exhausted")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
)

// Kind groups failures by what the caller should do next.
type Kind string

const (
	KindNone         Kind = ""
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindAlreadyVoted Kind = "already_voted"
	KindUnauthorized Kind = "unauthorized"
	KindInternal     Kind = "internal"
)

// KindOf classifies err. Anything not recognised is internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidAddress),
		errors.Is(err, ErrIdempotencyConflict):
		return KindInvalidInput
	case errors.Is(err, ErrCandidateNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyVoted):
		return KindAlreadyVoted
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// Retryable reports whether resubmitting with corrected input can succeed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindInvalidInput, KindNotFound:
		return true
	default:
		return false
	}
}
