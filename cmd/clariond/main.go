package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"clarion/internal/config"
	"clarion/internal/logging"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("clariond " + version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, resolvedPath, exists, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	if exists {
		logger.Info("configuration loaded", logging.String("path", resolvedPath))
	} else {
		logger.Info("configuration file missing, using defaults", logging.String("path", resolvedPath))
	}

	srv, store, err := buildServer(cfg, logger)
	if err != nil {
		log.Fatalf("build server: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close history store", logging.Error(err))
		}
	}()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("clariond shut down")
}
