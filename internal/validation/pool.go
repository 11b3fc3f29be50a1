package validation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultWorkers is the number of concurrent validation workers.
	DefaultWorkers = 20
	// DefaultDrainTimeout bounds Shutdown when the caller supplies no deadline.
	DefaultDrainTimeout = 20 * time.Second
)

// TaskHandler processes a single dequeued URL.
type TaskHandler interface {
	Validate(ctx context.Context, url string) error
}

// Pool drains a Queue with a fixed number of workers.
type Pool struct {
	queue   Queue
	handler TaskHandler
	workers int
	logger  *zap.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	done    chan struct{}
	started bool
	drain   time.Duration

	stopOnce sync.Once
	stopErr  error
}

// PoolOption customizes a Pool.
type PoolOption func(*Pool)

// WithDrainTimeout overrides how long Shutdown lets pending tasks drain.
func WithDrainTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.drain = d
		}
	}
}

// NewPool creates a pool of workers. Non-positive counts use DefaultWorkers.
func NewPool(queue Queue, handler TaskHandler, workers int, logger *zap.Logger, opts ...PoolOption) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	p := &Pool{
		queue:   queue,
		handler: handler,
		workers: workers,
		logger:  logger,
		done:    make(chan struct{}),
		drain:   DefaultDrainTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start launches the workers. They run until Shutdown or ctx is canceled.
func (p *Pool) Start(ctx context.Context) error {
	if p.started {
		return errors.New("validation pool already started")
	}

	p.started = true
	ctx, p.cancel = context.WithCancel(ctx)

	for id := range p.workers {
		p.wg.Add(1)

		go p.work(ctx, id)
	}

	go func() {
		p.wg.Wait()
		close(p.done)
	}()

	p.logger.Info("validation pool started", zap.Int("workers", p.workers))

	return nil
}

func (p *Pool) work(ctx context.Context, id int) {
	defer p.wg.Done()

	for ctx.Err() == nil {
		url, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				return
			}

			p.logger.Error("dequeue failed", zap.Int("worker", id), zap.Error(err))

			continue
		}

		p.process(ctx, id, url)
	}
}

// process runs one task; a failure or panic is logged and the worker moves on.
func (p *Pool) process(ctx context.Context, id int, url string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("validation task panicked",
				zap.Int("worker", id),
				zap.String("url", url),
				zap.Error(fmt.Errorf("%v", r)),
			)
		}
	}()

	if err := p.handler.Validate(ctx, url); err != nil {
		p.logger.Error("validation task failed",
			zap.Int("worker", id),
			zap.String("url", url),
			zap.Error(err),
		)
	}
}

// Shutdown drains the pool within the configured drain timeout.
func (p *Pool) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.drain)
	defer cancel()

	return p.ShutdownContext(ctx)
}

// ShutdownContext closes the queue and lets the workers drain pending tasks
// until ctx is done. If ctx ends first, in-flight checks are canceled and ctx's
// error is returned once the workers exit. Later calls return the first result.
func (p *Pool) ShutdownContext(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.stopErr = p.stop(ctx)
	})

	return p.stopErr
}

func (p *Pool) stop(ctx context.Context) error {
	err := p.queue.Close()

	if p.started {
		select {
		case <-p.done:
		case <-ctx.Done():
			p.logger.Warn("validation drain deadline exceeded, canceling pending tasks")
			p.cancel()
			<-p.done

			err = errors.Join(err, ctx.Err())
		}

		p.cancel()
	}

	p.logger.Info("validation pool stopped")

	return err
}
