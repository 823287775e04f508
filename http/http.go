// Package http hosts the feed and intake handlers, either as serverless
// functions or behind a local server.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sleeautomation/sitehooks/config"
	"github.com/sleeautomation/sitehooks/core"
	"github.com/sleeautomation/sitehooks/logger"
	"github.com/sleeautomation/sitehooks/telemetry"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

// Deps are the handlers mounted by NewMux. IntakeLimiter is optional.
type Deps struct {
	Feed          http.Handler
	Intake        http.Handler
	IntakeLimiter *RateLimiter
}

// NewMux routes the local server. Each API route is wrapped with request ids,
// tracing and metrics.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/blog-posts", telemetry.WrapHandler("feed", d.Feed))
	intakeHandler := d.Intake
	if d.IntakeLimiter != nil {
		intakeHandler = d.IntakeLimiter.Middleware(intakeHandler)
	}
	mux.Handle("/api/leads", telemetry.WrapHandler("intake", intakeHandler))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.Handle("/metrics", telemetry.MetricsHandler())
	return mux
}

// BuildDeps wires both handlers from cfg. A failed intake setup leaves the
// feed serving and answers intake posts with the setup error.
func BuildDeps(ctx context.Context, cfg *config.Config) Deps {
	d := Deps{Feed: core.NewFeedHandler(cfg)}
	if cfg.HTTP.IntakeRateLimit > 0 {
		d.IntakeLimiter = NewRateLimiter(rate.Limit(cfg.HTTP.IntakeRateLimit), cfg.HTTP.IntakeBurst)
	}
	in, err := core.InitializeIntake(ctx, cfg)
	if err != nil {
		logger.Warn("Intake disabled: %v", err)
		d.Intake = unavailableIntake(err)
	} else {
		d.Intake = in.Handler
	}
	return d
}

// StartServer serves until ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config) error {
	return Serve(ctx, cfg, BuildDeps(ctx, cfg))
}

// Serve runs a server for d on the configured address.
func Serve(ctx context.Context, cfg *config.Config, d Deps) error {
	addr := net.JoinHostPort(cfg.HTTP.Host, strconv.Itoa(cfg.HTTP.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           NewMux(d),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.User("Listening on http://%s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}
