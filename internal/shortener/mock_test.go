package shortener_test

import (
	"context"
	"sync"

	"github.com/serroba/trusted-shortener/internal/ratelimit"
	"github.com/serroba/trusted-shortener/internal/shortener"
)

type mockRepository struct {
	getErr  error
	saveErr error
	url     *shortener.ShortURL
}

func (m *mockRepository) Save(_ context.Context, _ *shortener.ShortURL) error {
	return m.saveErr
}

func (m *mockRepository) GetByHash(_ context.Context, _ shortener.Hash) (*shortener.ShortURL, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}

	if m.url == nil {
		return nil, shortener.ErrNotFound
	}

	return m.url, nil
}

func (m *mockRepository) GetByTarget(_ context.Context, _ string) (*shortener.ShortURL, error) {
	return m.GetByHash(context.Background(), "")
}

type recordingQueue struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, url string) error {
	if q.err != nil {
		return q.err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.urls = append(q.urls, url)

	return nil
}

func (q *recordingQueue) enqueued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]string(nil), q.urls...)
}

type recordingLimiter struct {
	limits map[string]int64
	err    error
}

func newRecordingLimiter() *recordingLimiter {
	return &recordingLimiter{limits: make(map[string]int64)}
}

func (l *recordingLimiter) Configure(_ context.Context, hash string, limit int64) error {
	if l.err != nil {
		return l.err
	}

	l.limits[hash] = limit

	return nil
}

type stubAdmitter struct {
	decision ratelimit.Decision
	err      error
	calls    int
	limits   []int64
}

func (a *stubAdmitter) Admit(_ context.Context, _ string, limit int64) (ratelimit.Decision, error) {
	a.calls++
	a.limits = append(a.limits, limit)

	return a.decision, a.err
}

type recordingObserver struct {
	outcomes []string
}

func (o *recordingObserver) ObserveAdmission(outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}

func boolPtr(b bool) *bool {
	return &b
}
