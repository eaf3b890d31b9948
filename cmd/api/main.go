package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/PratikDhanave/presence-service/internal/config"
	"github.com/PratikDhanave/presence-service/internal/httpserver"
	"github.com/PratikDhanave/presence-service/internal/platform/logger"
	"github.com/PratikDhanave/presence-service/internal/platform/metrics"
	"github.com/PratikDhanave/presence-service/internal/presence"
	"github.com/PratikDhanave/presence-service/internal/store"
)

// main boots the service: config → store → service → HTTP server.
func main() {
	// Load runtime config from environment (PRESENCE_STORE, DB_URL, API_KEYS, ...).
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, lg); err != nil {
		lg.Error("server stopped", "error", err)
		os.Exit(1)
	}
	lg.Info("server stopped")
}

func run(cfg config.Config, lg *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the keyed store (memory, Postgres or Redis).
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := presence.NewService(st,
		presence.WithLogger(lg),
		presence.WithMetrics(metrics.New(reg)),
		presence.WithDistance(cfg.Distance),
		presence.WithStrictEvents(cfg.StrictEvents),
	)

	router := httpserver.NewRouter(cfg, svc, st, reg, lg)
	srv := &http.Server{Addr: cfg.Addr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("server started", "addr", cfg.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
