package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/nexus-inventory/internal/client"
	"github.com/fairyhunter13/nexus-inventory/internal/config"
	"github.com/fairyhunter13/nexus-inventory/internal/dashboard"
	httpapi "github.com/fairyhunter13/nexus-inventory/internal/http"
	"github.com/fairyhunter13/nexus-inventory/internal/obs"
	"github.com/fairyhunter13/nexus-inventory/internal/store"
)

func serveAction(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "loading config")
	}
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("service_starting", "backend", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := obs.InitTracing(ctx, httpapi.ServiceName, cfg.TracingExporter, cfg.OTLPEndpoint)
	if err != nil {
		return errors.Wrap(err, "initialising tracing")
	}
	defer flushTracing(shutdownTracing)

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "opening store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			obs.Logger.Error("store_close_error", "error", err)
		}
	}()

	// The service starts even when the store is down; requests fail with 500
	// until it comes back.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := st.Ping(pingCtx); err != nil {
		obs.Logger.Warn("store_unreachable", "backend", cfg.StoreBackend, "error", err)
	} else {
		obs.Logger.Info("store_connected", "backend", cfg.StoreBackend)
	}
	cancel()

	srv := newHTTPServer(cfg.HTTPAddr(), httpapi.NewRouter(httpapi.NewApp(cfg, st)))
	err = runServer(ctx, srv, cfg.ShutdownTimeout)
	obs.Logger.Info("service_stopped")
	return err
}

func dashboardAction(c *cli.Context) error {
	cfg, err := clientConfig(c)
	if err != nil {
		return err
	}
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("dashboard_starting", "api_url", cfg.APIURL)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := obs.InitTracing(ctx, dashboard.ServiceName, cfg.TracingExporter, cfg.OTLPEndpoint)
	if err != nil {
		return errors.Wrap(err, "initialising tracing")
	}
	defer flushTracing(shutdownTracing)

	api := client.New(cfg.APIURL, cfg.ClientTimeout)
	ds := dashboard.NewServer(api, dashboard.Options{ImportConcurrency: cfg.ImportConcurrency})
	srv := newHTTPServer(cfg.DashboardAddr(), ds.Handler())
	err = runServer(ctx, srv, cfg.ShutdownTimeout)
	obs.Logger.Info("dashboard_stopped")
	return err
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// runServer serves until ctx is done, then drains in-flight requests for at
// most timeout.
func runServer(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		obs.Logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listening")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		obs.Logger.Info("shutdown_begin", "timeout", timeout.String())
		drainCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			obs.Logger.Error("http_shutdown_error", "error", err)
			return errors.Wrap(err, "shutting down")
		}
		obs.Logger.Info("shutdown_complete")
		return nil
	})
	return g.Wait()
}

func flushTracing(shutdown obs.ShutdownFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		obs.Logger.Error("tracing_shutdown_error", "error", err)
	}
}
