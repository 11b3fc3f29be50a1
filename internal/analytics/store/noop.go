package store

import (
	"context"

	"github.com/serroba/trusted-shortener/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	n.logger.Info("link created event received",
		zap.String("hash", event.Hash),
		zap.String("target", event.Target),
		zap.String("sponsor", event.Sponsor),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (n *Noop) SaveClick(_ context.Context, event *analytics.ClickEvent) error {
	n.logger.Info("click event received",
		zap.String("hash", event.Hash),
		zap.Time("clickedAt", event.ClickedAt),
		zap.String("clientIp", event.ClientIP),
		zap.String("referrer", event.Referrer),
	)

	return nil
}
