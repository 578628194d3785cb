package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pickup-service/internal/config"
	"pickup-service/internal/handlers"
	"pickup-service/internal/kinesis"
	"pickup-service/internal/logging"
	"pickup-service/internal/metrics"
	"pickup-service/internal/service"
	"pickup-service/internal/storage"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	kinesisService "github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serviceMetrics := metrics.New(registry)

	// Initialize storage based on configuration
	var pickupStorage storage.PickupStorage
	switch cfg.StorageType {
	case config.StorageDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Fatal("Failed to load AWS config", zap.Error(err))
		}
		pickupStorage = storage.NewDynamoDBPickupStorage(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable)
		logger.Info("Using DynamoDB storage", zap.String("table_name", cfg.DynamoDBTable))
	case config.StorageMemory:
		pickupStorage = storage.NewMemoryPickupStorage()
		logger.Info("Using in-memory storage")
	default:
		pickupStorage = storage.NewFilePickupStorage(cfg.DataFile)
		logger.Info("Using file storage", zap.String("path", cfg.DataFile))
	}

	pickupService := service.NewPickupService(pickupStorage, cfg.Location(), logger)
	pickupService.SetMetrics(serviceMetrics)
	pickupService.SetFilenamePrefix(cfg.ExportPrefix)

	// Initialize Kinesis streamer if stream name is provided
	if cfg.KinesisStream != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Warn("Failed to load AWS config for Kinesis", zap.Error(err))
		} else {
			streamer := kinesis.NewStreamer(kinesisService.NewFromConfig(awsCfg), cfg.KinesisStream, logger)
			pickupService.SetStreamer(streamer)
			logger.Info("Kinesis pickup event streaming enabled", zap.String("stream", cfg.KinesisStream))
		}
	}

	httpHandler := handlers.NewHTTPHandler(pickupService, logger)

	// Setup routes
	router := mux.NewRouter()
	routes := router
	if cfg.PathPrefix != "" {
		routes = router.PathPrefix(cfg.PathPrefix).Subrouter()
	}
	httpHandler.RegisterRoutes(routes)
	routes.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.MethodNotAllowedHandler = routes.MethodNotAllowedHandler
	router.NotFoundHandler = routes.NotFoundHandler

	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handlers.Chain(router, logger, serviceMetrics, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Pickup Service starting",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.StorageType),
			zap.String("timezone", cfg.Location().String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Pickup Service failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Pickup Service shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
