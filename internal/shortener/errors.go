package shortener

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidURL          = errors.New("does not follow a supported schema")
	ErrRedirectionNotFound = errors.New("is not known")
	ErrNotValidated        = errors.New("has not been validated yet")
	ErrNotReachable        = errors.New("is not reachable")
	ErrNotSafe             = errors.New("is not safe")
	ErrTooManyRedirections = errors.New("has too many redirections")
	ErrQrNotFound          = errors.New("has no qr code")
)

// RejectionError is a typed failure raised by creation or by the admission gate.
// Kind is one of the sentinel errors above; RetryAfter is zero when the failure is permanent.
type RejectionError struct {
	Kind       error
	Subject    string
	RetryAfter time.Duration
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Subject, e.Kind)
}

func (e *RejectionError) Unwrap() error {
	return e.Kind
}

func reject(kind error, subject string, retryAfter time.Duration) *RejectionError {
	return &RejectionError{Kind: kind, Subject: subject, RetryAfter: retryAfter}
}

// RetryAfter extracts the retry hint carried by err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) && rej.RetryAfter > 0 {
		return rej.RetryAfter, true
	}

	return 0, false
}
