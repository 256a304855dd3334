// Package middleware holds HTTP middleware shared by the API routes.
package middleware

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vilisasu/bibleai-api/internal/api/shared"
	"github.com/vilisasu/bibleai-api/internal/observe"
	"github.com/vilisasu/bibleai-api/internal/platform/logger"
)

// TraceHeader carries the trace ID back to the client.
const TraceHeader = "X-Trace-ID"

// TraceMiddleware adds a trace ID and a request-scoped logger to the
// request context. The trace ID is taken from the active OpenTelemetry span
// when there is one, so error bodies, logs and spans share an identifier.
// It must run after observe.Middleware and chi's RequestID middleware.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			traceID := observe.CorrelationID(ctx)
			if traceID == "" {
				traceID = shared.NewTraceID()
			}
			ctx = shared.WithTraceID(ctx, traceID)
			w.Header().Set(TraceHeader, traceID)

			ctx = logger.WithLogger(ctx, base.With(slog.String("trace_id", traceID)))
			if reqID := chimw.GetReqID(ctx); reqID != "" {
				ctx = logger.WithRequestID(ctx, reqID)
			}

			logger.FromContext(ctx).Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
