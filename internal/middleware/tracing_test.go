package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"

	"homestash/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() { observability.Tracer = previous })
	return recorder
}

func newTracingTestApp() *fiber.App {
	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/api/v1/items/:id", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(7))
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/api/v1/broken", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})
	return app
}

func spanAttributes(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestTracingSpansUseRouteTemplate(t *testing.T) {
	recorder := setupSpanRecorder(t)
	app := newTracingTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/items/42", nil), -1)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/items/:id", spans[0].Name(), "span is named by template, not raw URL")

	attrs := spanAttributes(spans[0])
	assert.Equal(t, "/api/v1/items/:id", attrs["http.route"].AsString())
	assert.Equal(t, int64(7), attrs["inventory.user_id"].AsInt64())
	assert.Equal(t, int64(200), attrs["http.status_code"].AsInt64())
}

func TestTracingSkipsHealthProbes(t *testing.T) {
	recorder := setupSpanRecorder(t)
	app := newTracingTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil), -1)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("X-Trace-ID"))
	assert.Empty(t, recorder.Ended())
}

func TestTracingRecordsHandlerErrors(t *testing.T) {
	recorder := setupSpanRecorder(t)
	app := newTracingTestApp()

	_, err := app.Test(httptest.NewRequest("GET", "/api/v1/broken", nil), -1)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1, "the handler error is recorded on the span")
}
