package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Runnable represents a component that can be started and shutdown.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// Group manages multiple runnables with unified lifecycle. Members are shut
// down in reverse start order, then the shared closer (if any) is closed.
type Group struct {
	name    string
	members []Runnable
	closer  io.Closer
	logger  *zap.Logger
}

// NewGroup creates a new group. closer may be nil.
func NewGroup(name string, closer io.Closer, logger *zap.Logger) *Group {
	return &Group{
		name:   name,
		closer: closer,
		logger: logger,
	}
}

// Add registers a member with the group.
func (g *Group) Add(member Runnable) {
	g.members = append(g.members, member)
}

// Len returns the number of registered members.
func (g *Group) Len() int {
	return len(g.members)
}

// Start starts all members of the group.
func (g *Group) Start(ctx context.Context) error {
	for i, member := range g.members {
		if err := member.Start(ctx); err != nil {
			// Shutdown already started members on failure
			for j := i - 1; j >= 0; j-- {
				_ = g.members[j].Shutdown()
			}

			return fmt.Errorf("failed to start %s member %d: %w", g.name, i, err)
		}
	}

	g.logger.Info("group started", zap.String("group", g.name), zap.Int("count", len(g.members)))

	return nil
}

// Shutdown stops all members and joins their errors.
func (g *Group) Shutdown() error {
	g.logger.Info("shutting down group", zap.String("group", g.name))

	var errs []error

	for i := len(g.members) - 1; i >= 0; i-- {
		if err := g.members[i].Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	if g.closer != nil {
		if err := g.closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
