// Package main wires together the job-tracking service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/jobtrack-pipeline/internal/api"
	"github.com/JakeFAU/jobtrack-pipeline/internal/archiver"
	"github.com/JakeFAU/jobtrack-pipeline/internal/clock/system"
	"github.com/JakeFAU/jobtrack-pipeline/internal/config"
	"github.com/JakeFAU/jobtrack-pipeline/internal/extractor"
	"github.com/JakeFAU/jobtrack-pipeline/internal/extractor/gemini"
	collyfetcher "github.com/JakeFAU/jobtrack-pipeline/internal/fetcher/colly"
	"github.com/JakeFAU/jobtrack-pipeline/internal/id/uuid"
	"github.com/JakeFAU/jobtrack-pipeline/internal/jobs"
	"github.com/JakeFAU/jobtrack-pipeline/internal/logging"
	"github.com/JakeFAU/jobtrack-pipeline/internal/pipeline"
	memorypublisher "github.com/JakeFAU/jobtrack-pipeline/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/jobtrack-pipeline/internal/publisher/pubsub"
	"github.com/JakeFAU/jobtrack-pipeline/internal/storage/gcs"
	memorystorage "github.com/JakeFAU/jobtrack-pipeline/internal/storage/memory"
	"github.com/JakeFAU/jobtrack-pipeline/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobStore, closeStore, err := newJobStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("job store init failed", zap.Error(err))
	}
	defer closeStore()

	blobStore, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("blob store init failed", zap.Error(err))
	}

	publisher, closePublisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}
	defer closePublisher()

	clock := system.New()
	idGen := uuid.New()
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:   cfg.Fetch.UserAgent,
		Timeout:     cfg.FetchTimeout(),
		InsecureTLS: cfg.Fetch.InsecureTLS,
	})

	arch := archiver.New(fetcher, blobStore, clock, archiver.Config{
		Prefix:      cfg.Storage.Prefix,
		ContentType: cfg.Storage.ContentType,
	}, logger.Named("archiver"))

	var model extractor.ModelClient
	if cfg.Gemini.APIKey != "" {
		client, err := gemini.New(ctx, gemini.Config{APIKey: cfg.Gemini.APIKey, Model: cfg.Gemini.Model})
		if err != nil {
			logger.Fatal("model client init failed", zap.Error(err))
		}
		model = client
	} else {
		logger.Warn("no model API key configured, enrichment is disabled")
	}
	extract := extractor.New(model, fetcher, logger.Named("extractor"))

	pipe := pipeline.New(
		fetcher,
		arch,
		extract,
		jobStore,
		publisher,
		idGen,
		clock,
		pipeline.Config{Topic: cfg.PubSub.TopicName},
		logger.Named("pipeline"),
	)

	apiServer := api.NewServer(pipe, jobStore, cfg, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newJobStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (jobs.JobStore, func(), error) {
	if cfg.DB.DSN == "" {
		logger.Info("using in-memory job store")
		return memorystorage.NewJobStore(), func() {}, nil
	}
	store, err := postgres.NewJobStore(ctx, postgres.JobStoreConfig{
		DSN:             cfg.DB.DSN,
		Table:           cfg.DB.Table,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: time.Duration(cfg.DB.MaxConnLifetimeSeconds) * time.Second,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return store, store.Close, nil
}

func newBlobStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (jobs.BlobStore, error) {
	if cfg.Storage.GCSBucket == "" {
		logger.Info("using in-memory blob store")
		return memorystorage.NewBlobStore(), nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return gcs.New(client, gcs.Config{Bucket: cfg.Storage.GCSBucket})
}

func newPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (jobs.Publisher, func(), error) {
	if cfg.PubSub.ProjectID == "" {
		logger.Info("using in-memory publisher")
		return memorypublisher.New(), func() {}, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("create pubsub client: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Error("pubsub client close failed", zap.Error(err))
		}
	}
	return pubsubpublisher.New(client), closeFn, nil
}
