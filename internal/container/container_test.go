package container_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/trusted-shortener/internal/container"
	"github.com/serroba/trusted-shortener/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryOptions() *container.Options {
	return &container.Options{
		Port:                    8888,
		LogFormat:               "console",
		Store:                   "memory",
		ValidationWorkers:       2,
		ValidationQueueCapacity: 10,
		ValidationQueue:         "channel",
		CheckTimeout:            1,
		RedirectionWindow:       60,
		RetryAfter:              60,
		Limiter:                 "memory",
	}
}

func newInjector(opts *container.Options) *do.Injector {
	injector := do.New()
	do.ProvideValue(injector, opts)
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

	return injector
}

func TestHTTPPackage_MemoryWiring(t *testing.T) {
	injector := newInjector(memoryOptions())
	t.Cleanup(func() { _ = injector.Shutdown() })

	_, err := do.Invoke[huma.API](injector)
	require.NoError(t, err)

	router := do.MustInvoke[*chi.Mux](injector)

	t.Run("creates a link and queues its validation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/link", strings.NewReader(`{"url":"http://example.com/"}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "http://localhost:8888/"))

		queue := do.MustInvoke[validation.Queue](injector)
		assert.Equal(t, 1, queue.(*validation.ChannelQueue).Len())
	})

	t.Run("serves health without dependencies", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("serves metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "shortener_validation_queue_depth 1")
	})
}

func TestPackages_RejectUnknownBackends(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		opts := memoryOptions()
		opts.Store = "sqlite"

		_, err := do.Invoke[huma.API](newInjector(opts))

		assert.ErrorContains(t, err, "unknown store")
	})

	t.Run("limiter", func(t *testing.T) {
		opts := memoryOptions()
		opts.Limiter = "memcached"

		_, err := do.Invoke[huma.API](newInjector(opts))

		assert.ErrorContains(t, err, "unknown limiter")
	})

	t.Run("validation queue", func(t *testing.T) {
		opts := memoryOptions()
		opts.ValidationQueue = "kafka"

		_, err := do.Invoke[huma.API](newInjector(opts))

		assert.ErrorContains(t, err, "unknown validation queue")
	})
}
