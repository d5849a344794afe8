package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/media-relay-go/api"
	"github.com/yourusername/media-relay-go/internal/app"
	"github.com/yourusername/media-relay-go/internal/domain"
	"github.com/yourusername/media-relay-go/internal/infrastructure"
	"github.com/yourusername/media-relay-go/internal/observability"
	"github.com/yourusername/media-relay-go/pkg/logger"
)

var (
	configPath = flag.String("config", "", "Path to config file (default: ./configs/config.yaml, ~/.mediarelay, /etc/mediarelay)")
	version    = "dev"
)

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.NewDefault().Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
		Service:    "mediarelay",
	})
	if err != nil {
		log = logger.NewDefault()
		log.Warn("Invalid logging configuration, using defaults", zap.Error(err))
	}
	defer log.Sync()

	if err := run(config, log); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}
}

func run(config *domain.Config, log *zap.Logger) error {
	log.Info("Starting media relay server",
		zap.String("version", version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.Duration("metadata_timeout", config.Download.MetadataTimeout),
		zap.Duration("relay_timeout", config.Download.RelayTimeout),
		zap.Strings("media_hosts", config.Download.MediaHosts),
		zap.Strings("cors_origins", config.CORS.AllowedOrigins))

	var metrics *observability.Metrics
	if config.Metrics.Enabled {
		metrics = observability.New()
	}

	fetcher := infrastructure.NewHTTPFetcher(&config.Fetcher, log.Named("fetcher"))
	resolver := infrastructure.NewYouTubeResolver(config.Download.MetadataTimeout, log.Named("youtube"))
	extractors := []domain.Extractor{
		infrastructure.NewInstagramExtractor(fetcher, config.Download.MetadataTimeout, metrics, log.Named("instagram")),
		infrastructure.NewTwitterExtractor(fetcher, config.Download.MetadataTimeout, metrics, log.Named("twitter")),
	}
	dispatcher := app.NewDispatcher(resolver, extractors, fetcher, config.Download.MediaPolicy(), metrics, log.Named("dispatcher"))

	gin.SetMode(gin.ReleaseMode)
	api.Version = version
	router := api.SetupRouter(config, dispatcher, metrics, log)

	addr := config.Server.Host + ":" + strconv.Itoa(config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: relays are bounded by download.relay_timeout
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	log.Info("Shutting down server...", zap.Duration("timeout", config.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return server.Close()
	}

	log.Info("Server exited")
	return nil
}
