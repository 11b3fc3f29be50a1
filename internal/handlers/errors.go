package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/trusted-shortener/internal/shortener"
)

// ErrorMessage is the body of every error response.
type ErrorMessage struct {
	Status    int       `json:"statusCode"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *ErrorMessage) Error() string {
	return e.Message
}

func (e *ErrorMessage) GetStatus() int {
	return e.Status
}

// newError replaces huma's problem+json errors, including validation failures.
func newError(status int, msg string, errs ...error) huma.StatusError {
	details := make([]string, 0, len(errs))

	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}

	if len(details) > 0 {
		msg = msg + ": " + strings.Join(details, "; ")
	}

	return &ErrorMessage{
		Status:    status,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}
}

// UseErrorMessages makes huma render every error as an ErrorMessage.
func UseErrorMessages() {
	huma.NewError = newError
}

var rejectionStatus = map[error]int{
	shortener.ErrInvalidURL:          http.StatusBadRequest,
	shortener.ErrRedirectionNotFound: http.StatusNotFound,
	shortener.ErrNotValidated:        http.StatusBadRequest,
	shortener.ErrNotReachable:        http.StatusBadRequest,
	shortener.ErrNotSafe:             http.StatusForbidden,
	shortener.ErrTooManyRedirections: http.StatusTooManyRequests,
	shortener.ErrQrNotFound:          http.StatusNotFound,
}

// toHTTPError maps domain failures to status codes and sets Retry-After when
// the failure carries one. Hash collisions are 409. Anything else becomes a 500
// with a generic message.
func toHTTPError(err error, fallback string) error {
	if errors.Is(err, shortener.ErrHashCollision) {
		return huma.Error409Conflict(err.Error())
	}

	rej, ok := asRejection(err)
	if !ok {
		return huma.Error500InternalServerError(fallback)
	}

	status, ok := rejectionStatus[rej.Kind]
	if !ok {
		status = http.StatusBadRequest
	}

	herr := huma.NewError(status, rej.Error())

	if rej.RetryAfter > 0 {
		seconds := int(math.Ceil(rej.RetryAfter.Seconds()))

		return huma.ErrorWithHeaders(herr, http.Header{
			"Retry-After": []string{strconv.Itoa(seconds)},
		})
	}

	return herr
}

func asRejection(err error) (*shortener.RejectionError, bool) {
	var rej *shortener.RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}

	return nil, false
}

var _ huma.StatusError = (*ErrorMessage)(nil)
