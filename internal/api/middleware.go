package api

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/trajectory-plotter/internal/logging"
	"github.com/signalsfoundry/trajectory-plotter/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware ensures a request_id is present on the context,
// sourcing it from the X-Request-ID header if provided, echoes it on the
// response and attaches a per-request logger annotated with request_id,
// method and path.
func RequestIDMiddleware(base logging.Logger, next http.Handler) http.Handler {
	if base == nil {
		base = logging.Noop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if incoming := r.Header.Get(requestIDHeader); incoming != "" {
			ctx = logging.ContextWithRequestID(ctx, incoming)
		}
		ctx, id := logging.EnsureRequestID(ctx)
		reqLog := base.With(
			logging.String("request_id", id),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		)
		ctx = logging.ContextWithLogger(ctx, reqLog)

		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TracingMiddleware starts a server span per request, continuing any trace
// propagated in the request headers.
func TracingMiddleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := observability.StartRequestSpan(r.Context(), r.Method, route, r.Header)
		if id := logging.RequestIDFromContext(ctx); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}

		rec := observability.NewStatusRecorder(w)
		next.ServeHTTP(rec, r.WithContext(ctx))
		observability.EndRequestSpan(span, rec.Status)
	})
}
