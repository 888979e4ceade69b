package handler

import (
	"net/http"

	"github.com/DMarby/filterlab/internal/health"
)

// Health is a handler for health check status
// An unhealthy service answers 503 so load balancers stop routing renders to it
func Health(healthChecker *health.Checker) Handler {
	return func(w http.ResponseWriter, r *http.Request) *Error {
		status := healthChecker.Status()

		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		if !status.Healthy {
			w.Header().Set("Retry-After", "10")
			return JSONStatus(w, http.StatusServiceUnavailable, status)
		}

		return JSON(w, status)
	}
}
