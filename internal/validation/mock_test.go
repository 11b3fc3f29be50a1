package validation_test

import (
	"context"
	"sync"
	"time"
)

type fakeSafety struct {
	safe  bool
	err   error
	delay time.Duration
	mu    sync.Mutex
	calls int
}

func (f *fakeSafety) IsSafe(ctx context.Context, _ string) (bool, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	return f.safe, f.err
}

type fakeReachability struct {
	reachable bool
	err       error
	mu        sync.Mutex
	calls     int
}

func (f *fakeReachability) IsReachable(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	return f.reachable, f.err
}

func (f *fakeReachability) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type recordingObserver struct {
	mu       sync.Mutex
	checks   []string
	outcomes []string
}

func (o *recordingObserver) ObserveCheck(check string, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.checks = append(o.checks, check)
}

func (o *recordingObserver) ObserveValidation(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.outcomes = append(o.outcomes, outcome)
}
