package main

import (
	"context"
	"fmt"

	"kdvd/internal/config"
	"kdvd/internal/daemon"
	"kdvd/internal/history"
	"kdvd/internal/logging"
	"kdvd/internal/metrics"
)

// configEnv overrides the configuration file location.
const configEnv = "KDVD_CONFIG"

// run starts the daemon and blocks until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}

	d, err := daemon.New(cfg, store, logger, metrics.New())
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-ctx.Done()
	logger.Info("kdvdd shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}
