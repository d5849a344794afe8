package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/media-relay-go/api/handlers"
	"github.com/yourusername/media-relay-go/api/middleware"
	"github.com/yourusername/media-relay-go/internal/domain"
	"github.com/yourusername/media-relay-go/internal/observability"
	"go.uber.org/zap"
)

// Version is reported by the health endpoint
var Version = "dev"

// SetupRouter sets up the HTTP router
func SetupRouter(
	config *domain.Config,
	dispatcher handlers.Dispatcher,
	metrics *observability.Metrics,
	log *zap.Logger,
) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log.Named("http")))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(config.CORS))
	if metrics != nil {
		router.Use(middleware.Metrics(metrics))
	}

	healthHandler := handlers.NewHealthHandler(Version)
	router.GET("/health", healthHandler.Health)

	if metrics != nil && config.Metrics.Enabled {
		router.GET(config.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	streamer := handlers.NewStreamer(metrics, log.Named("relay"))
	downloadHandler := handlers.NewDownloadHandler(dispatcher, streamer, config.Download.RelayTimeout, log)
	router.POST("/download", downloadHandler.Download)
	router.POST("/api/download", downloadHandler.Download)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(405, gin.H{"error": "method not allowed"})
	})

	return router
}
