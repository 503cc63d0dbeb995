package middleware

import (
	"fmt"
	"strings"

	"homestash/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware starts an OpenTelemetry server span per request. Spans
// are renamed after the matched route template once routing has happened,
// so /api/v1/items/42 and /api/v1/items/7 group under the same span name.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Probes and scrapes generate no useful spans, only noise.
		if strings.HasPrefix(c.Path(), "/health") || c.Path() == "/metrics" {
			return c.Next()
		}

		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(),
			propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx,
			fmt.Sprintf("%s %s", c.Method(), c.Path()),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.OriginalURL()),
				attribute.String("client.address", c.IP()),
			),
		)
		defer span.End()

		c.Locals("traceID", span.SpanContext().TraceID().String())
		c.Set("X-Trace-ID", span.SpanContext().TraceID().String())
		c.SetUserContext(ctx)

		err := c.Next()

		// The route template and the authenticated user are only known
		// after the rest of the chain has run.
		if route := c.Route(); route != nil && route.Path != "/" {
			span.SetName(fmt.Sprintf("%s %s", c.Method(), route.Path))
			span.SetAttributes(attribute.String("http.route", route.Path))
		}
		if userID, ok := c.Locals("userID").(uint); ok {
			span.SetAttributes(attribute.Int64("inventory.user_id", int64(userID)))
		}
		if requestID, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", requestID))
		}

		status := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}

		return err
	}
}
