// Command dittobox-worker drains queued thumbnail jobs as a standalone
// process.
//
// The durable backends are embedded Badger databases, and Badger holds an
// exclusive lock on its directory: this command cannot run while a
// dittobox server has the same stores open. Use it to work off a backlog
// while the server is stopped, for example jobs accumulated during a run
// with worker.enabled: false or left in flight by a crash. For continuous
// processing next to live traffic, run the worker in-process
// (worker.enabled: true).
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
	"github.com/marmos91/dittobox/pkg/config"
	"github.com/marmos91/dittobox/pkg/thumbnail"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides config)")
	concurrency := flag.Int("concurrency", 0, "Concurrent thumbnail consumers (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *concurrency > 0 {
		cfg.Worker.Concurrency = *concurrency
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logger: %v", err)
	}

	// A process-local queue has nothing to consume here.
	if cfg.Queue.Type == "memory" {
		log.Fatalf("The standalone worker requires a durable queue (queue.type: badger), got %q", cfg.Queue.Type)
	}

	fmt.Println("DittoBox - Thumbnail Worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metadataStore, err := config.BuildMetadataStore(ctx, cfg.Metadata)
	if err != nil {
		log.Fatalf("Failed to create metadata store (is a dittobox server still running?): %v", err)
	}
	defer func() { _ = metadataStore.Close() }()

	contentStore, err := config.BuildContentStore(ctx, cfg.Content)
	if err != nil {
		log.Fatalf("Failed to create content store: %v", err)
	}
	defer func() { _ = contentStore.Close() }()

	jobQueue, err := config.BuildQueue(ctx, cfg.Queue)
	if err != nil {
		log.Fatalf("Failed to create job queue (is a dittobox server still running?): %v", err)
	}
	defer func() { _ = jobQueue.Close() }()

	worker := thumbnail.NewWorker(jobQueue, metadataStore, contentStore, cfg.Worker.Concurrency)

	workerDone := make(chan error, 1)
	go func() {
		workerDone <- worker.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Worker is running with concurrency %d. Press Ctrl+C to stop.", cfg.Worker.Concurrency)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, draining in-flight jobs...")
		cancel()
		if err := <-workerDone; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Worker shutdown error: %v", err)
			os.Exit(1)
		}
		logger.Info("Worker stopped gracefully")

	case err := <-workerDone:
		if err != nil {
			logger.Error("Worker error: %v", err)
			os.Exit(1)
		}
		logger.Info("Worker stopped")
	}
}
