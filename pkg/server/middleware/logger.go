// Package middleware holds HTTP middleware shared by the API server.
package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/0xmhha/cost-monitor/pkg/logger"
)

type ctxKey struct{}

// Logger attaches a request-scoped logger carrying method, path and
// request id, and logs each completed request. It must run after
// chi's RequestID middleware for the id to be present.
func Logger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			reqLogger := log.With(
				"method", req.Method,
				"path", req.URL.Path,
				"request_id", chimw.GetReqID(req.Context()),
			)

			ww := chimw.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, req.WithContext(WithLogger(req.Context(), reqLogger)))

			reqLogger.Debug("request completed",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start))
		})
	}
}

// WithLogger returns a context carrying log.
func WithLogger(ctx context.Context, log logger.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the request logger, or a no-op logger.
func FromContext(ctx context.Context) logger.Logger {
	if log, ok := ctx.Value(ctxKey{}).(logger.Logger); ok {
		return log
	}
	return logger.Noop()
}
