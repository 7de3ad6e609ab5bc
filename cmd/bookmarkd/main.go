package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bpetkov/bookmarkd/internal/logger"
	"github.com/bpetkov/bookmarkd/internal/server"
	"github.com/bpetkov/bookmarkd/pkg/chromeimport"
	"github.com/bpetkov/bookmarkd/pkg/config"
	"github.com/bpetkov/bookmarkd/pkg/facade"
	"github.com/bpetkov/bookmarkd/pkg/metrics"
	"github.com/bpetkov/bookmarkd/pkg/session"
	"github.com/bpetkov/bookmarkd/pkg/shorten"
	"github.com/bpetkov/bookmarkd/pkg/store/group"
	"github.com/bpetkov/bookmarkd/pkg/tokenizer"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (YAML)")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR; overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command-line flags win over the configuration file.
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	// Configure logger
	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure log output: %v", err)
	}

	fmt.Println("bookmarkd - Bookmark Manager Server")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics registry must be initialized before any collector is
	// created.
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		metricsServer = metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
		logger.Info("Metrics endpoint listening on port %d", cfg.Metrics.Port)
	}

	// Create persistence backends
	blobs, err := config.CreateSnapshotStore(ctx, &cfg.Snapshot)
	if err != nil {
		log.Fatalf("Failed to create snapshot store: %v", err)
	}

	users, err := config.CreateUserStore(ctx, &cfg.Users, blobs)
	if err != nil {
		log.Fatalf("Failed to create user store: %v", err)
	}
	defer func() {
		if err := users.Close(); err != nil {
			logger.Error("Failed to close user store: %v", err)
		}
	}()

	groups := group.NewManager(blobs)
	sessions := session.NewTable()

	httpClient := &http.Client{Timeout: 10 * time.Second}
	tok := tokenizer.New(httpClient)

	var shortener facade.Shortener
	if cfg.Shorten.APIKey != "" {
		shortener = shorten.New(httpClient, cfg.Shorten.APIKey)
		logger.Info("URL shortening enabled")
	} else {
		logger.Info("URL shortening disabled (no API key configured)")
	}

	importer, err := chromeimport.New(cfg.Import.BookmarksPath, tok.Keywords)
	if err != nil {
		log.Fatalf("Failed to create Chrome importer: %v", err)
	}

	manager := facade.New(users, groups, sessions, facade.Options{
		Tokenizer:    tok,
		Shortener:    shortener,
		Importer:     importer,
		ProbeTimeout: cfg.Server.ProbeTimeout,
	})

	cmdMetrics := metrics.NewCommandMetrics()
	srv := server.New(cfg.Server.Port, manager, cmdMetrics)
	srv.SetRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst)

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on port %d. Press Ctrl+C to stop.", cfg.Server.Port)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		shutdownTimer := time.NewTimer(cfg.Server.ShutdownTimeout)
		defer shutdownTimer.Stop()

		select {
		case err := <-serverDone:
			if err != nil {
				logger.Error("Server shutdown error: %v", err)
				os.Exit(1)
			}
			logger.Info("Server stopped gracefully")
		case <-shutdownTimer.C:
			logger.Error("Shutdown timed out after %v", cfg.Server.ShutdownTimeout)
			os.Exit(1)
		}

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}

	if metricsServer != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if err := metricsServer.Stop(stopCtx); err != nil {
			logger.Error("Failed to stop metrics server: %v", err)
		}
	}
}
