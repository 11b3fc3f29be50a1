package shortener

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/trusted-shortener/internal/ratelimit"
	"go.uber.org/zap"
)

// DefaultValidationRetryAfter is the hint given while validation is in flight.
const DefaultValidationRetryAfter = 60 * time.Second

// RedirectionAdmitter consumes redirection quota on every redirect attempt.
// limit is the quota stored with the hash, zero when it is unlimited.
type RedirectionAdmitter interface {
	Admit(ctx context.Context, hash string, limit int64) (ratelimit.Decision, error)
}

// AdmissionObserver is notified of every gate outcome.
type AdmissionObserver interface {
	ObserveAdmission(outcome string)
}

// Admission outcomes reported to the observer.
const (
	OutcomeAdmitted            = "admitted"
	OutcomeNotFound            = "not_found"
	OutcomeNotValidated        = "not_validated"
	OutcomeNotReachable        = "not_reachable"
	OutcomeNotSafe             = "not_safe"
	OutcomeTooManyRedirections = "too_many_redirections"
	OutcomeError               = "error"
)

type noopObserver struct{}

func (noopObserver) ObserveAdmission(string) {}

// Gate decides whether a redirect may be served.
type Gate struct {
	store      Repository
	admitter   RedirectionAdmitter
	logger     *zap.Logger
	observer   AdmissionObserver
	retryAfter time.Duration
}

// GateOption customizes a Gate.
type GateOption func(*Gate)

// WithValidationRetryAfter overrides the hint returned for unvalidated hashes.
func WithValidationRetryAfter(d time.Duration) GateOption {
	return func(g *Gate) {
		if d > 0 {
			g.retryAfter = d
		}
	}
}

// WithAdmissionObserver registers an observer for gate outcomes.
func WithAdmissionObserver(o AdmissionObserver) GateOption {
	return func(g *Gate) {
		g.observer = o
	}
}

// NewGate creates a new admission gate.
func NewGate(store Repository, admitter RedirectionAdmitter, logger *zap.Logger, opts ...GateOption) *Gate {
	g := &Gate{
		store:      store,
		admitter:   admitter,
		logger:     logger,
		observer:   noopObserver{},
		retryAfter: DefaultValidationRetryAfter,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Decide returns the target to redirect to, or a *RejectionError explaining
// why the redirect is refused. Trust is checked before quota so rejected or
// unvalidated hashes never consume tokens.
func (g *Gate) Decide(ctx context.Context, hash Hash) (string, error) {
	target, outcome, err := g.decide(ctx, hash)
	g.observer.ObserveAdmission(outcome)

	if err != nil && outcome != OutcomeError {
		g.logger.Debug("redirect rejected",
			zap.String("hash", string(hash)),
			zap.String("outcome", outcome),
		)
	}

	return target, err
}

func (g *Gate) decide(ctx context.Context, hash Hash) (string, string, error) {
	shortURL, err := g.store.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", OutcomeNotFound, reject(ErrRedirectionNotFound, string(hash), 0)
		}

		return "", OutcomeError, err
	}

	switch shortURL.State() {
	case StateUnvalidated:
		return "", OutcomeNotValidated, reject(ErrNotValidated, string(hash), g.retryAfter)
	case StateRejectedUnreachable:
		return "", OutcomeNotReachable, reject(ErrNotReachable, shortURL.Target, 0)
	case StateRejectedUnsafe:
		return "", OutcomeNotSafe, reject(ErrNotSafe, shortURL.Target, 0)
	case StateAdmitted:
	}

	var limit int64
	if l := shortURL.Properties.RedirectionLimit; l != nil {
		limit = *l
	}

	decision, err := g.admitter.Admit(ctx, string(hash), limit)
	if err != nil {
		return "", OutcomeError, err
	}

	if !decision.Allowed {
		return "", OutcomeTooManyRedirections, reject(ErrTooManyRedirections, string(hash), decision.RetryAfter)
	}

	return shortURL.Target, OutcomeAdmitted, nil
}

// Info returns the record and its trust state without consuming quota.
func (g *Gate) Info(ctx context.Context, hash Hash) (*ShortURL, TrustState, error) {
	shortURL, err := g.store.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", reject(ErrRedirectionNotFound, string(hash), 0)
		}

		return nil, "", err
	}

	return shortURL, shortURL.State(), nil
}
