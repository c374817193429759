// Package debughttp serves the client's metrics and subscription state
// over HTTP.
package debughttp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/dippy/internal/errors"
)

// shutdownTimeout bounds graceful shutdown in Serve.
const shutdownTimeout = 5 * time.Second

// Subscriptions reports the locators currently subscribed.
type Subscriptions interface {
	Locators() []string
}

// SubscriptionsFunc adapts a function to Subscriptions.
type SubscriptionsFunc func() []string

// Locators implements Subscriptions.
func (f SubscriptionsFunc) Locators() []string {
	return f()
}

type subscriptionsResponse struct {
	Count    int      `json:"count"`
	Locators []string `json:"locators"`
}

// NewRouter returns a handler exposing:
//
//	GET /metrics              prometheus exposition of gatherer
//	GET /debug/subscriptions  {"count": n, "locators": [...]}
//	GET /healthz              200 OK
func NewRouter(gatherer prometheus.Gatherer, subs Subscriptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/debug/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		locators := subs.Locators()
		if locators == nil {
			locators = []string{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(subscriptionsResponse{
			Count:    len(locators),
			Locators: locators,
		})
	})

	return r
}

// Serve listens on addr and serves h until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "debughttp")

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.New("E142").Wrap(err)
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("debug server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.New("E142").Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("debug server shutdown", "error", err)
		return err
	}
	return nil
}
