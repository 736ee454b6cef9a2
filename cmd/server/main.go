// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nilm-live/internal/api"
	"nilm-live/internal/auth"
	"nilm-live/internal/config"
	"nilm-live/internal/logging"
	"nilm-live/internal/observability"
	"nilm-live/internal/publish"
	"nilm-live/internal/simulator"
	"nilm-live/internal/storage"
	"nilm-live/internal/websocket"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// --- Configuration ---
	configPath := flag.String("config", ".", "Path to the configuration file directory")
	webDir := flag.String("webdir", "", "Path to the web assets directory (overrides server.web_dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", slog.Any("err", err))
		os.Exit(1)
	}
	if *webDir != "" {
		cfg.Server.WebDir = *webDir
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	// --- Initialize Components ---
	taps, err := publish.FromConfig(cfg, logging.Component(logger, "publish"))
	if err != nil {
		logger.Error("starting event taps", slog.Any("err", err))
		os.Exit(1)
	}
	defer taps.Close()

	hub := websocket.NewHub(logging.Component(logger, "hub"))
	seed := cfg.Stream.Seed
	apiHandler, err := api.NewAPIHandler(hub, api.Options{
		Interval:   cfg.Stream.Interval,
		Appliances: cfg.Appliances,
		NewSource:  func() simulator.Source { return simulator.NewSource(seed) },
		WebDir:     cfg.Server.WebDir,
		Publisher:  taps,
		Metrics:    observability.NewMetrics(),
		Store:      storage.NewMemoryStore(cfg.Sessions.History),
		StreamPath: cfg.Stream.Path,
	}, logging.Component(logger, "stream"))
	if err != nil {
		logger.Error("building handler", slog.Any("err", err))
		os.Exit(1)
	}

	go hub.Run()

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.SetupRouter(apiHandler, auth.NewKeyChecker(cfg.Auth.APIKeys)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("NILM live server listening",
			slog.String("addr", srv.Addr),
			slog.String("stream", cfg.Stream.Path),
			slog.Duration("interval", cfg.Stream.Interval))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server failed", slog.Any("err", err))
		hub.Shutdown()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", slog.Any("err", err))
	}
	// hijacked websocket connections are not closed by srv.Shutdown
	hub.Shutdown()
	logger.Info("server stopped")
}
