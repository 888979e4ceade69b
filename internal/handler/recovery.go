package handler

import (
	"net/http"
	"runtime/debug"

	"github.com/DMarby/filterlab/internal/logger"
	"github.com/DMarby/filterlab/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpPanics = promauto.NewCounter(prometheus.CounterOpts{
	Name: "filterlab_http_panics_total",
	Help: "Requests that panicked while being handled.",
})

// Recovery is a handler for handling panics
// The client gets the same response as for any other internal server error
func Recovery(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				httpPanics.Inc()

				traceID, spanID := tracing.TraceInfo(r.Context())
				log.Errorw("panic handling request", LogFields(r,
					"panic", err,
					"trace-id", traceID,
					"span-id", spanID,
					"stacktrace", string(debug.Stack()),
				)...)

				Handler(func(w http.ResponseWriter, r *http.Request) *Error {
					return InternalServerError()
				}).ServeHTTP(w, r)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
