package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/trusted-shortener/internal/container"
	"github.com/serroba/trusted-shortener/internal/validation"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.RepositoryPackage(injector)
	container.RateLimitPackage(injector)
	container.MetricsPackage(injector)
	container.ValidationPackage(injector)
	container.ShortenerPackage(injector)
	container.PublisherGroupPackage(injector)
	container.AnalyticsPackage(injector)
	container.HTTPPackage(injector)
}

// build resolves the API (which registers every route) and the validation
// pool, so configuration errors surface before the listener opens.
func build(injector *do.Injector, options *container.Options) (*http.Server, *validation.Pool, error) {
	if _, err := do.Invoke[huma.API](injector); err != nil {
		return nil, nil, fmt.Errorf("build api: %w", err)
	}

	pool, err := do.Invoke[*validation.Pool](injector)
	if err != nil {
		return nil, nil, fmt.Errorf("build validation pool: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", options.Port),
		Handler:           do.MustInvoke[*chi.Mux](injector),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, pool, nil
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		registerPackages(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		var (
			server *http.Server
			pool   *validation.Pool
		)

		hooks.OnStart(func() {
			var err error

			server, pool, err = build(injector, options)
			if err != nil {
				logger.Fatal("startup failed", zap.Error(err))
			}

			if err = pool.Start(context.Background()); err != nil {
				logger.Fatal("failed to start validation pool", zap.Error(err))
			}

			logger.Info("server starting",
				zap.Int("port", options.Port),
				zap.String("store", options.Store),
				zap.String("limiter", options.Limiter),
				zap.String("validation_queue", options.ValidationQueue),
				zap.Int("validation_workers", options.ValidationWorkers),
				zap.Bool("analytics", options.Analytics),
			)

			if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			// No new links may be enqueued once the pool starts draining.
			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			// Pending validations share the shutdown deadline with the listener.
			if pool != nil {
				if err := pool.ShutdownContext(ctx); err != nil {
					logger.Warn("validation pool shutdown", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
			_ = logger.Sync()
		})
	})

	cli.Run()
}
