package handlers_test

import (
	"context"
	"errors"

	"github.com/serroba/trusted-shortener/internal/shortener"
)

var errMock = errors.New("mock error")

const (
	testURL     = "http://example.com/"
	testBaseURL = "http://localhost:8888"
)

// mockRepository is a test double for shortener.Repository that can be configured to return errors.
type mockRepository struct {
	saveErr      error
	getByHashErr error
}

func (m *mockRepository) Save(_ context.Context, _ *shortener.ShortURL) error {
	return m.saveErr
}

func (m *mockRepository) GetByHash(_ context.Context, _ shortener.Hash) (*shortener.ShortURL, error) {
	if m.getByHashErr != nil {
		return nil, m.getByHashErr
	}

	return nil, shortener.ErrNotFound
}

func (m *mockRepository) GetByTarget(_ context.Context, _ string) (*shortener.ShortURL, error) {
	return nil, shortener.ErrNotFound
}

// recordingPublish captures published events.
type recordingPublish[T any] struct {
	events []*T
	err    error
}

func (r *recordingPublish[T]) publish(_ context.Context, event *T) error {
	r.events = append(r.events, event)

	return r.err
}
