package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/trusted-shortener/internal/shortener"
	"go.uber.org/zap"
)

// DefaultCheckTimeout bounds a single collaborator call.
const DefaultCheckTimeout = 5 * time.Second

// SafetyChecker asks a reputation service whether url is malicious.
type SafetyChecker interface {
	IsSafe(ctx context.Context, url string) (bool, error)
}

// ReachabilityChecker probes url over the network. A target that cannot be
// contacted is reported as unreachable, not as an error.
type ReachabilityChecker interface {
	IsReachable(ctx context.Context, url string) (bool, error)
}

// Observer is notified of check latencies and task outcomes.
type Observer interface {
	ObserveCheck(check string, elapsed time.Duration, err error)
	ObserveValidation(outcome string)
}

// Task outcomes reported besides the resulting trust state.
const (
	OutcomeDiscarded = "discarded"
	OutcomeFailed    = "failed"
)

type noopObserver struct{}

func (noopObserver) ObserveCheck(string, time.Duration, error) {}
func (noopObserver) ObserveValidation(string)                  {}

// Validator resolves the trust flags of a single target.
type Validator struct {
	store        shortener.Repository
	safety       SafetyChecker
	reachability ReachabilityChecker
	retry        RetryPolicy
	timeout      time.Duration
	observer     Observer
	logger       *zap.Logger
}

// ValidatorOption customizes a Validator.
type ValidatorOption func(*Validator)

// WithCheckTimeout bounds each collaborator call.
func WithCheckTimeout(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithRetryPolicy replaces the default NoRetry policy.
func WithRetryPolicy(p RetryPolicy) ValidatorOption {
	return func(v *Validator) {
		v.retry = p
	}
}

// WithObserver registers an observer for checks and outcomes.
func WithObserver(o Observer) ValidatorOption {
	return func(v *Validator) {
		v.observer = o
	}
}

// NewValidator creates a validator with no retries and the default timeout.
func NewValidator(
	store shortener.Repository,
	safety SafetyChecker,
	reachability ReachabilityChecker,
	logger *zap.Logger,
	opts ...ValidatorOption,
) *Validator {
	v := &Validator{
		store:        store,
		safety:       safety,
		reachability: reachability,
		retry:        NoRetry{},
		timeout:      DefaultCheckTimeout,
		observer:     noopObserver{},
		logger:       logger,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Validate runs the safety check then the reachability check and writes both
// flags onto the record for url. A missing record is not an error. Transport
// failures of the probe become reachable=false, so only checker errors such as
// a canceled context abandon the task with the flags unset.
func (v *Validator) Validate(ctx context.Context, url string) error {
	safe, err := v.check(ctx, "safety", url, v.safety.IsSafe)
	if err != nil {
		v.observer.ObserveValidation(OutcomeFailed)

		return fmt.Errorf("safety check: %w", err)
	}

	reachable, err := v.check(ctx, "reachability", url, v.reachability.IsReachable)
	if err != nil {
		v.observer.ObserveValidation(OutcomeFailed)

		return fmt.Errorf("reachability check: %w", err)
	}

	record, err := v.store.GetByTarget(ctx, url)
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			v.observer.ObserveValidation(OutcomeDiscarded)
			v.logger.Debug("discarding validation of unknown target", zap.String("url", url))

			return nil
		}

		v.observer.ObserveValidation(OutcomeFailed)

		return fmt.Errorf("load record: %w", err)
	}

	record.MarkValidated(safe, reachable)

	if err := v.store.Save(ctx, record); err != nil {
		v.observer.ObserveValidation(OutcomeFailed)

		return fmt.Errorf("save record: %w", err)
	}

	state := record.State()
	v.observer.ObserveValidation(string(state))

	v.logger.Info("url validated",
		zap.String("hash", string(record.Hash)),
		zap.String("url", url),
		zap.String("state", string(state)),
	)

	return nil
}

func (v *Validator) check(
	ctx context.Context,
	name, url string,
	fn func(ctx context.Context, url string) (bool, error),
) (bool, error) {
	var result bool

	err := v.retry.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, v.timeout)
		defer cancel()

		start := time.Now()
		ok, err := fn(ctx, url)
		v.observer.ObserveCheck(name, time.Since(start), err)

		result = ok

		return err
	})

	return result, err
}
