package main

import (
	"fmt"
	"log/slog"

	"clarion/internal/config"
	"clarion/internal/history"
	"clarion/internal/server"
)

// buildServer assembles the HTTP server plus the optional history store.
// The returned store is nil when history is disabled; Close on a nil
// store is a no-op.
func buildServer(cfg *config.Config, logger *slog.Logger) (*server.Server, *history.Store, error) {
	store, err := openHistory(cfg)
	if err != nil {
		return nil, nil, err
	}

	var opts []server.Option
	if store != nil {
		opts = append(opts, server.WithHistory(store))
	}
	srv, err := server.New(cfg, logger, opts...)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return srv, store, nil
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	if cfg == nil || !cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}
