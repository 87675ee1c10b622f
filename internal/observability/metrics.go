package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/litescript/ls-exoquest/internal/logging"
)

// MetricsMux routes /metrics to h and answers /healthz.
func MetricsMux(h http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// ServeMetrics starts an HTTP server for h on addr in the background. It
// returns nil when addr is empty.
func ServeMetrics(addr string, h http.Handler, log *logging.Logger) *http.Server {
	if addr == "" || h == nil {
		return nil
	}
	if log == nil {
		log = logging.Discard()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           MetricsMux(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server exited: %v", err)
		}
	}()

	log.Info("serving Prometheus metrics on %s", addr)
	return srv
}

// StopMetrics shuts srv down with a short grace period. A nil srv is ignored.
func StopMetrics(ctx context.Context, srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
