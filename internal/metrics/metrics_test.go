package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/serroba/trusted-shortener/internal/metrics"
	"github.com/serroba/trusted-shortener/internal/shortener"
	"github.com/serroba/trusted-shortener/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ shortener.AdmissionObserver = (*metrics.Metrics)(nil)
	_ validation.Observer         = (*metrics.Metrics)(nil)
)

func TestMetrics(t *testing.T) {
	t.Run("counts admissions by outcome", func(t *testing.T) {
		m := metrics.New()

		m.ObserveAdmission(shortener.OutcomeAdmitted)
		m.ObserveAdmission(shortener.OutcomeAdmitted)
		m.ObserveAdmission(shortener.OutcomeTooManyRedirections)

		expected := `
# HELP shortener_admissions_total Redirect decisions by outcome.
# TYPE shortener_admissions_total counter
shortener_admissions_total{outcome="admitted"} 2
shortener_admissions_total{outcome="too_many_redirections"} 1
`
		require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "shortener_admissions_total"))
	})

	t.Run("labels checks by result", func(t *testing.T) {
		m := metrics.New()

		m.ObserveCheck("safety", 10*time.Millisecond, nil)
		m.ObserveCheck("reachability", 20*time.Millisecond, errors.New("timeout"))

		count, err := testutil.GatherAndCount(m.Registry(), "shortener_validation_check_duration_seconds")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("reports queue depth on scrape", func(t *testing.T) {
		m := metrics.New()
		queue := validation.NewChannelQueue(10)
		m.QueueDepth(queue.Len)

		for _, url := range []string{"http://a.example/", "http://b.example/", "http://c.example/"} {
			require.NoError(t, queue.Enqueue(t.Context(), url))
		}

		expected := `
# HELP shortener_validation_queue_depth Validation tasks waiting for a worker.
# TYPE shortener_validation_queue_depth gauge
shortener_validation_queue_depth 3
`
		require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "shortener_validation_queue_depth"))
	})

	t.Run("serves exposition format", func(t *testing.T) {
		m := metrics.New()
		m.ObserveValidation(string(shortener.StateAdmitted))

		w := httptest.NewRecorder()
		m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `shortener_validations_total{outcome="admitted"} 1`)
	})
}
