package errors

import (
	"fmt"
	"testing"
)

func TestKindOfClassifiesWrappedErrors(t *testing.T) {
	cases := map[error]Kind{
		nil:                                     KindNone,
		ErrInvalidInput:                         KindInvalidInput,
		fmt.Errorf("name: %w", ErrInvalidInput): KindInvalidInput,
		ErrInvalidAddress:                       KindInvalidInput,
		ErrIdempotencyConflict:                  KindInvalidInput,
		ErrCandidateNotFound:                    KindNotFound,
		ErrAlreadyVoted:                         KindAlreadyVoted,
		ErrUnauthorized:                         KindUnauthorized,
		ErrStorageExhausted:                     KindInternal,
		fmt.Errorf("db down"):                   KindInternal,
	}
	for err, want := range cases {
		if got := KindOf(err); got != want {
			t.Fatalf("expected kind %q for %v, got %q", want, err, got)
		}
	}
}

func TestRetryableOnlyForInputAndLookupFailures(t *testing.T) {
	if !Retryable(ErrCandidateNotFound) {
		t.Fatalf("expected candidate not found to be retryable with new input")
	}
	if Retryable(ErrAlreadyVoted) {
		t.Fatalf("expected already voted to be terminal")
	}
	if Retryable(ErrUnauthorized) {
		t.Fatalf("expected unauthorized to be terminal")
	}
	if Retryable(ErrStorageExhausted) {
		t.Fatalf("expected storage exhaustion to be fatal")
	}
}
