package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MetaRPC/PyMT5-sub000/internal/config"
	"github.com/MetaRPC/PyMT5-sub000/internal/gateway"
	"github.com/MetaRPC/PyMT5-sub000/internal/journal"
	"github.com/MetaRPC/PyMT5-sub000/internal/session"
	"github.com/MetaRPC/PyMT5-sub000/internal/stream"
	"github.com/MetaRPC/PyMT5-sub000/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/terminal.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting terminal client",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"login", cfg.Account.Login,
		"endpoint", cfg.Gateway.Endpoint,
		"server", cfg.Account.ServerName,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Optional session-event journal
	engineOpts := []session.Option{session.WithLogger(logger)}
	var writer *journal.Writer
	if cfg.Journal.Enabled {
		logger.Info("connecting to journal database",
			"host", cfg.Journal.DB.Host,
			"port", cfg.Journal.DB.Port,
			"database", cfg.Journal.DB.Name,
		)

		pool, err := journal.Connect(ctx, cfg.Journal.DB)
		if err != nil {
			logger.Error("failed to connect to journal database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		writer = journal.NewWriter(cfg.Journal, pool, logger)
		if err := writer.Start(ctx); err != nil {
			logger.Error("failed to start journal writer", "error", err)
			os.Exit(1)
		}
		engineOpts = append(engineOpts, session.WithRecorder(writer))
	}

	// Build the account handle and the engine
	acct := gateway.NewTerminalAccount(cfg, logger)
	eng := session.New(cfg, acct, engineOpts...)

	// Start the metrics and health server early so connect progress is
	// observable.
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createHealthHandler(cfg, eng, logger),
	}

	go func() {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Establish the session
	logger.Info("connecting to gateway...")
	if err := eng.Connect(ctx); err != nil {
		logger.Error("connect failed", "error", err)
		os.Exit(1)
	}
	defer eng.Disconnect(context.Background())

	logger.Info("session established",
		"state", eng.State(),
		"mode", eng.Mode(),
		"identity", eng.Identity(),
	)

	// Optional tick stream
	if cfg.Stream.Enabled {
		ticks := stream.NewClient(cfg.Stream, eng.Identity(), logger)
		if err := ticks.Connect(ctx); err != nil {
			logger.Error("tick stream connect failed", "error", err)
		} else {
			eng.RegisterStream(ticks)
			if err := ticks.Subscribe(); err != nil {
				logger.Error("tick stream subscribe failed", "error", err)
			}

			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case tick := <-ticks.Ticks():
						logger.Debug("tick",
							"symbol", tick.Symbol,
							"bid", tick.Bid,
							"ask", tick.Ask,
						)
					case err := <-ticks.Errors():
						logger.Warn("tick stream error", "error", err)
						return
					}
				}
			}()
		}
	}

	logger.Info("terminal client running",
		"health_url", fmt.Sprintf("http://localhost:%d/healthz", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	if writer != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		writer.Stop(stopCtx)
		stopCancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("terminal client stopped")
}

// createHealthHandler creates the HTTP handler for metrics and health
// checks.
func createHealthHandler(cfg *config.TerminalConfig, eng *session.Engine, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		state := eng.State()

		health := struct {
			Status   string `json:"status"`
			State    string `json:"state"`
			Mode     string `json:"mode"`
			Identity string `json:"identity,omitempty"`
		}{
			Status:   "healthy",
			State:    state.String(),
			Mode:     eng.Mode().String(),
			Identity: eng.Identity(),
		}
		w.Header().Set("Content-Type", "application/json")
		if state != session.StateReady {
			health.Status = "degraded"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(health); err != nil {
			logger.Error("failed to encode health response", "error", err)
		}
	})

	return mux
}
