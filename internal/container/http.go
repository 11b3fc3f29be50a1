package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/trusted-shortener/internal/analytics"
	"github.com/serroba/trusted-shortener/internal/handlers"
	"github.com/serroba/trusted-shortener/internal/health"
	"github.com/serroba/trusted-shortener/internal/messaging"
	"github.com/serroba/trusted-shortener/internal/metrics"
	"github.com/serroba/trusted-shortener/internal/middleware"
	"github.com/serroba/trusted-shortener/internal/shortener"
	"go.uber.org/zap"
)

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)

		creator, err := do.Invoke[*shortener.Creator](i)
		if err != nil {
			return nil, err
		}

		gate, err := do.Invoke[*shortener.Gate](i)
		if err != nil {
			return nil, err
		}

		publishCreated, err := do.Invoke[messaging.Publish[analytics.LinkCreatedEvent]](i)
		if err != nil {
			return nil, err
		}

		publishClick, err := do.Invoke[messaging.Publish[analytics.ClickEvent]](i)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig("Trusted URL Shortener", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		urlHandler := handlers.NewURLHandler(
			creator,
			gate,
			opts.resolvedBaseURL(),
			publishCreated,
			publishClick,
			do.MustInvoke[*zap.Logger](i),
		)

		health.RegisterRoutes(api, health.NewHandler(healthCheckers(i, opts)))
		handlers.RegisterRoutes(api, urlHandler)
		router.Handle("/metrics", do.MustInvoke[*metrics.Metrics](i).Handler())

		return api, nil
	})
}

func healthCheckers(i *do.Injector, opts *Options) map[string]health.Checker {
	checkers := map[string]health.Checker{}

	if opts.usesRedis() {
		checkers["redis"] = health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client)
	}

	if opts.Store == backendPostgres {
		checkers["postgres"] = health.NewPostgresChecker(do.MustInvoke[*PostgresPool](i).Pool)
	}

	return checkers
}
