package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/dittobox/internal/logger"
	adapterhttp "github.com/marmos91/dittobox/pkg/adapter/http"
	"github.com/marmos91/dittobox/pkg/config"
	"github.com/marmos91/dittobox/pkg/queue"
	"github.com/marmos91/dittobox/pkg/service"
	"github.com/marmos91/dittobox/pkg/thumbnail"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// CLI flags win over file and environment.
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logger: %v", err)
	}

	fmt.Println("DittoBox - File Storage Service")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build backends
	metadataStore, err := config.BuildMetadataStore(ctx, cfg.Metadata)
	if err != nil {
		log.Fatalf("Failed to create metadata store: %v", err)
	}
	defer closeQuietly("metadata store", metadataStore.Close)
	logger.Info("Metadata store: %s", cfg.Metadata.Type)

	contentStore, err := config.BuildContentStore(ctx, cfg.Content)
	if err != nil {
		log.Fatalf("Failed to create content store: %v", err)
	}
	defer closeQuietly("content store", contentStore.Close)
	logger.Info("Content store: %s", cfg.Content.Type)

	sessionStore, err := config.BuildSessionStore(ctx, cfg.Sessions)
	if err != nil {
		log.Fatalf("Failed to create session store: %v", err)
	}
	defer closeQuietly("session store", sessionStore.Close)
	logger.Info("Session store: %s", cfg.Sessions.Type)

	jobQueue, err := config.BuildQueue(ctx, cfg.Queue)
	if err != nil {
		log.Fatalf("Failed to create job queue: %v", err)
	}
	defer closeQuietly("job queue", jobQueue.Close)
	logger.Info("Job queue: %s", cfg.Queue.Type)

	svc := service.New(metadataStore, contentStore, sessionStore, jobQueue)
	svc.SetSessionTTL(cfg.Sessions.TTL)
	server := adapterhttp.NewServer(svc, cfg.Server.Addr)

	// Optional in-process thumbnail worker
	workerDone := make(chan error, 1)
	if cfg.Worker.Enabled {
		worker := thumbnail.NewWorker(jobQueue, metadataStore, contentStore, cfg.Worker.Concurrency)
		go func() {
			workerDone <- worker.Run(ctx)
		}()
		logger.Info("Thumbnail worker started with concurrency %d", cfg.Worker.Concurrency)
	} else {
		close(workerDone)
		logger.Info("Thumbnail worker disabled; expecting external workers on the queue")
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on %s. Press Ctrl+C to stop.", cfg.Server.Addr)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error: %v", err)
		}

		// Stop the worker and wait for in-flight jobs to settle.
		cancel()
		if err := <-workerDone; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Worker shutdown error: %v", err)
		}

		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}
}

// closeQuietly logs a failed Close instead of masking the shutdown path.
func closeQuietly(name string, close func() error) {
	if err := close(); err != nil && !errors.Is(err, queue.ErrQueueClosed) {
		logger.Warn("Failed to close %s: %v", name, err)
	}
}
