package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/google/uuid"
	middleware "github.com/oapi-codegen/nethttp-middleware"
)

const requestIdHeader = "X-Request-Id"

type middlewareFunc func(next http.Handler) http.Handler

func useMiddlewares(r *http.ServeMux, middlewares ...middlewareFunc) http.Handler {
	var s http.Handler
	s = r

	for _, mw := range middlewares {
		s = mw(s)
	}

	return s
}

func (a *API) requestIdMiddleware() middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestId := uuid.New()

			ctx := ctxWithRequestId(r.Context(), requestId)
			ctx = ctxWithLogger(ctx, a.logger.With(slog.String("requestId", requestId.String())))

			w.Header().Set(requestIdHeader, requestId.String())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *API) loggingMiddleware() middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			loggingRW := newLoggingResponseWriter(w)

			// process the request
			next.ServeHTTP(loggingRW, r)

			getLoggerFromCtx(r.Context()).InfoContext(r.Context(),
				"Access log",
				slog.String("latency", formatDuration(time.Since(start))),
				slog.Int64("request-content-length", r.ContentLength),
				slog.Int("resp-body-size", loggingRW.responseSize),
				slog.String("host", r.Host),
				slog.String("method", r.Method),
				slog.Int("status-code", loggingRW.statusCode),
				slog.String("path", r.URL.Path),
			)
		})
	}
}

func (a *API) openapiValidateMiddleware(swagger *openapi3.T) middlewareFunc {
	return middleware.OapiRequestValidatorWithOptions(swagger, &middleware.Options{
		// Callback bodies are decoded by the handler, which accepts both form and JSON.
		Options: openapi3filter.Options{
			ExcludeRequestBody: true,
		},
		ErrorHandlerWithOpts: func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, opts middleware.ErrorHandlerOpts) {
			var requestErr *openapi3filter.RequestError
			message := err.Error()
			if !errors.As(err, &requestErr) && opts.StatusCode == http.StatusInternalServerError {
				a.getLoggerOrBaseLogger(ctx).Error("request validation failed unexpectedly", slog.String("error", err.Error()))
				message = "Internal error"
			}

			writeJSON(w, opts.StatusCode, errorResponse{
				Success: false,
				Message: message,
			})
		},
	})
}

func (a *API) recoverMiddleware() middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					a.getLoggerOrBaseLogger(r.Context()).Error("recovered from panic",
						slog.String("requestId", getRequestIdFromCtx(r.Context()).String()),
						slog.String("panic", fmt.Sprint(rec)),
						slog.String("path", r.URL.Path),
					)

					if headerWritten(w) {
						return
					}
					writeJSON(w, http.StatusInternalServerError, errorResponse{
						Success: false,
						Message: "Internal error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// formatDuration formats a duration to one decimal point.
func formatDuration(d time.Duration) string {
	div := time.Duration(10)
	switch {
	case d > time.Second:
		d = d.Round(time.Second / div)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond / div)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond / div)
	case d > time.Nanosecond:
		d = d.Round(time.Nanosecond / div)
	}
	return d.String()
}
