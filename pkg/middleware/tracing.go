package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/docflow/pkg/tracing"
)

// TracingMiddleware 延续上游 traceparent 并为请求开 server span.
// span 名在路由匹配后改为 "METHOD /route/:param"，避免按具体 ID 膨胀.
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		parent := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

		ctx, span := tracing.StartSpan(parent, req.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("url.path", req.URL.Path),
				attribute.String("client.address", c.ClientIP()),
				attribute.String("user_agent.original", req.UserAgent()),
			),
		)
		defer span.End()

		c.Request = req.WithContext(ctx)
		c.Next()

		route := c.FullPath()
		if route != "" {
			span.SetName(req.Method + " " + route)
		}

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)

		if a, ok := GetActor(c); ok {
			span.SetAttributes(attribute.String("docflow.actor", a.ID), attribute.String("docflow.role", a.Role.String()))
		}

		if p := c.Param("project"); p != "" {
			span.SetAttributes(attribute.String("docflow.project_id", p))
		}

		if status >= 500 || len(c.Errors) > 0 {
			span.SetStatus(codes.Error, c.Errors.String())
		}
	}
}
