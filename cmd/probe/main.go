package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/MetaRPC/PyMT5-sub000/internal/config"
	"github.com/MetaRPC/PyMT5-sub000/internal/gateway"
	"github.com/MetaRPC/PyMT5-sub000/internal/session"
	"github.com/MetaRPC/PyMT5-sub000/internal/version"
)

// probe connects once and exits 0 when the session became ready, 1
// otherwise. Intended for deployment smoke checks.
func main() {
	configPath := flag.String("config", "configs/terminal.local.yaml", "path to config file")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall connect deadline")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("probe starting", "version", version.Version, "config", *configPath)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	acct := gateway.NewTerminalAccount(cfg, logger)
	eng := session.New(cfg, acct, session.WithLogger(logger))

	if err := eng.Connect(ctx); err != nil {
		logger.Error("gateway not ready", "error", err)
		os.Exit(1)
	}

	logger.Info("gateway ready",
		"mode", eng.Mode(),
		"identity", eng.Identity(),
	)
	eng.Disconnect(context.Background())
}
