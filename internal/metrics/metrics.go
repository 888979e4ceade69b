package metrics

import (
	"context"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/DMarby/filterlab/internal/handler"
	"github.com/DMarby/filterlab/internal/health"
	"github.com/DMarby/filterlab/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"tailscale.com/tsweb"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Handler serves the expvar metrics followed by the prometheus registry, both in the prometheus text format
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tsweb.VarzHandler(w, r)

		// Gather returns the families it could collect alongside any error
		families, _ := gatherer.Gather()

		encoder := expfmt.NewEncoder(w, expfmt.FmtText)
		for _, family := range families {
			if err := encoder.Encode(family); err != nil {
				return
			}
		}
	})
}

// Serve starts an http server for metrics and healthchecks
func Serve(ctx context.Context, log *logger.Logger, healthChecker *health.Checker, listenAddress string) {
	router := http.NewServeMux()
	router.Handle("/metrics", Handler(prometheus.DefaultGatherer))
	router.Handle("/health", handler.Health(healthChecker))

	router.HandleFunc("/debug/pprof/", pprof.Index)
	router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("/debug/pprof/trace", pprof.Trace)

	server := &http.Server{
		Addr:              listenAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          logger.NewHTTPErrorLog(log),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Infof("shutting down the metrics http server: %s", err)
		}
	}()

	log.Infof("metrics http server listening on %s", listenAddress)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("error shutting down metrics http server: %s", err)
	}
}
