package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"inventorydash/internal/api"
	"inventorydash/internal/config"
	"inventorydash/internal/dashboard"
	"inventorydash/internal/engine"
	"inventorydash/internal/infrastructure"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := infrastructure.InitializeLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Telemetry
	tel, err := infrastructure.NewTelemetry()
	if err != nil {
		return err
	}

	// 2. Dataset (loaded before serving: no request ever sees a partial dataset)
	loadCtx, cancel := context.WithTimeout(ctx, cfg.Dataset.FetchTimeout)
	t0 := time.Now()
	ds, err := engine.Load(loadCtx, cfg.Dataset.Source,
		engine.WithHTTPClient(&http.Client{Timeout: cfg.Dataset.FetchTimeout}),
		engine.WithLogger(logger.With(slog.String("component", "loader"))),
	)
	cancel()
	if err != nil {
		return err
	}

	// 3. Dashboard service and HTTP surface
	svc := dashboard.NewService(ds,
		dashboard.WithLogger(logger),
		dashboard.WithRecorder(tel),
		dashboard.WithPageSize(cfg.Dashboard.PageSize),
		dashboard.WithExportFile(cfg.Export.FileName, cfg.Export.BOMPrefix),
	)
	e := api.NewServer(api.ServerDeps{Service: svc, Config: cfg, Logger: logger, Telemetry: tel})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 4. Serve until a signal arrives, then drain
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server ready",
			slog.String("addr", srv.Addr),
			slog.Int("rows", ds.Len()),
			slog.Duration("startup", time.Since(t0)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if terr := tel.Shutdown(shutdownCtx); terr != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", terr.Error()))
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server shutdown complete")
	return nil
}
