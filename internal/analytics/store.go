package analytics

import (
	"context"
	"errors"

	"github.com/serroba/trusted-shortener/internal/messaging"
)

// Store defines the interface for persisting analytics events.
type Store interface {
	SaveLinkCreated(ctx context.Context, event *LinkCreatedEvent) error
	SaveClick(ctx context.Context, event *ClickEvent) error
}

// ErrIncompleteEvent rejects events without the hash they refer to.
var ErrIncompleteEvent = errors.New("event has no hash")

// Recorder turns decoded events into store writes. Its methods match
// messaging.Handler so each one can back a consumer. Incomplete events are
// permanent failures and are not redelivered.
type Recorder struct {
	store Store
}

// NewRecorder creates a recorder over store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) RecordLinkCreated(ctx context.Context, event *LinkCreatedEvent) error {
	if event.Hash == "" {
		return messaging.Permanent(ErrIncompleteEvent)
	}

	return r.store.SaveLinkCreated(ctx, event)
}

func (r *Recorder) RecordClick(ctx context.Context, event *ClickEvent) error {
	if event.Hash == "" {
		return messaging.Permanent(ErrIncompleteEvent)
	}

	return r.store.SaveClick(ctx, event)
}
