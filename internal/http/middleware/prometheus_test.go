package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetricsApp(t *testing.T) (*fiber.App, *PrometheusMiddleware, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	return app, m, reg
}

// durationSamples returns how many observations the latency histogram holds for method and path.
func durationSamples(t *testing.T, reg *prometheus.Registry, method, path string) uint64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() != "http_request_duration_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["method"] == method && labels["path"] == path {
				return metric.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func TestPrometheusMiddleware(t *testing.T) {
	app, m, _ := newMetricsApp(t)

	app.Get("/documents/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Delete("/documents/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Post("/documents", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "too large")
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/documents/3f1c", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/documents/:id", "200")))

	resp, _ = app.Test(httptest.NewRequest("DELETE", "/documents/3f1c", nil))
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestCount.WithLabelValues("DELETE", "/documents/:id", "204")))

	app.Test(httptest.NewRequest("POST", "/documents", nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestCount.WithLabelValues("POST", "/documents", "413")))
}

func TestPrometheusMiddleware_ExcludeMetrics(t *testing.T) {
	app, _, reg := newMetricsApp(t)
	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Test(httptest.NewRequest("GET", "/metrics", nil))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		assert.Empty(t, mf.GetMetric(), "metric %s recorded a /metrics scrape", mf.GetName())
	}
}

func TestPrometheusMiddleware_PathPattern(t *testing.T) {
	app, m, _ := newMetricsApp(t)
	app.Get("/trips/:id/documents", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Test(httptest.NewRequest("GET", "/trips/123/documents", nil))
	app.Test(httptest.NewRequest("GET", "/trips/456/documents", nil))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/trips/:id/documents", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestCount))
}

func TestPrometheusMiddleware_DurationHistogram(t *testing.T) {
	app, m, reg := newMetricsApp(t)
	app.Post("/documents/batch-delete", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"deleted": 0})
	})
	app.Get("/documents/:id/content", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	app.Test(httptest.NewRequest("POST", "/documents/batch-delete", nil))
	app.Test(httptest.NewRequest("POST", "/documents/batch-delete", nil))
	app.Test(httptest.NewRequest("GET", "/documents/abc/content", nil))

	assert.Equal(t, uint64(2), durationSamples(t, reg, "POST", "/documents/batch-delete"))
	// Status is not a histogram label: failures share the route's series.
	assert.Equal(t, uint64(1), durationSamples(t, reg, "GET", "/documents/:id/content"))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDuration, "http_request_duration_seconds"))
}

func TestNewPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
