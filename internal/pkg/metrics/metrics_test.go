package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDocstore(t *testing.T) {
	before := testutil.ToFloat64(DocstoreOperations.WithLabelValues("get", "metricsTest", OutcomeError))
	ObserveDocstore("get", "metricsTest", time.Now(), errors.New("boom"))
	after := testutil.ToFloat64(DocstoreOperations.WithLabelValues("get", "metricsTest", OutcomeError))
	assert.Equal(t, before+1, after)
}

func TestMiddlewareAndHandler(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", Handler())

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/ping", "200"))
	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/ping", "200")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "investorconnect_http_requests_total")
}
