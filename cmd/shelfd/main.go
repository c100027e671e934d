package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shelfd/shelfd/internal/logger"
	"github.com/shelfd/shelfd/pkg/config"
	"github.com/shelfd/shelfd/pkg/handler"
	"github.com/shelfd/shelfd/pkg/metrics"
	"github.com/shelfd/shelfd/pkg/server"
)

func main() {
	configPath := flag.String("config", "", fmt.Sprintf("Path to config file (default %s)", config.GetDefaultConfigPath()))
	port := flag.Int("port", 0, "Override the listen port from the config file")
	logLevel := flag.String("log-level", "", "Override the log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags win over file and environment
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logger: %v", err)
	}

	fmt.Println("shelfd - file-backed resource server")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	mapper, fileStore, err := config.CreateStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create resource store: %v", err)
	}

	logger.Info("Serving %s from %s", mapper.BaseAddress(), mapper.RootPath())

	resourceHandler := handler.NewResource(mapper, fileStore)

	srv := server.New(server.Config{
		Port:              cfg.Server.Port,
		RequestsPerSecond: cfg.Server.RateLimit,
		Burst:             cfg.Server.Burst,
	}, resourceHandler, metrics.NewHTTPMetrics())

	logger.Info("Server configuration:")
	logger.Info("  Port: %d", cfg.Server.Port)
	if cfg.Server.RateLimit > 0 {
		logger.Info("  Rate limit: %d req/s (burst %d)", cfg.Server.RateLimit, cfg.Server.Burst)
	} else {
		logger.Info("  Rate limit: unlimited")
	}
	logger.Info("  Shutdown timeout: %v", cfg.Server.ShutdownTimeout)

	// Start the metrics endpoint alongside the dispatcher when enabled
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
		logger.Info("Metrics available on port %d", metricsServer.Port())
	}

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

		if err := waitWithTimeout(serverDone, cfg.Server.ShutdownTimeout); err != nil {
			logger.Error("Server shutdown error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown error: %v", err)
		}
	}
}

// waitWithTimeout waits for the server to stop, giving up after the
// configured shutdown timeout.
func waitWithTimeout(done <-chan error, timeout time.Duration) error {
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timed out after %v", timeout)
	}
}
