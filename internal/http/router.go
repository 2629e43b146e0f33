package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	cryptoHTTP "github.com/fieldsrv/guardpost/internal/crypto/http"
	detectionHTTP "github.com/fieldsrv/guardpost/internal/detection/http"
	detectionUseCase "github.com/fieldsrv/guardpost/internal/detection/usecase"
)

// RouterConfig holds everything needed to assemble the API router.
type RouterConfig struct {
	Logger *slog.Logger

	EncryptionHandler *cryptoHTTP.EncryptionHandler
	DetectionHandler  *detectionHTTP.DetectionHandler
	DetectionUseCase  detectionUseCase.DetectionUseCase

	// AdminTokenHash is the Argon2id hash of the admin bearer token.
	// Empty disables authentication.
	AdminTokenHash string

	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	CORSEnabled      bool
	CORSAllowOrigins string

	// MetricsMiddleware is the optional HTTP metrics middleware.
	MetricsMiddleware gin.HandlerFunc
}

// NewRouter builds the API router: health endpoints, the intrusion
// detection middleware, and the versioned admin API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(cfg.Logger))

	if cfg.MetricsMiddleware != nil {
		router.Use(cfg.MetricsMiddleware)
	}

	if corsMiddleware := createCORSMiddleware(
		cfg.CORSEnabled, cfg.CORSAllowOrigins, cfg.Logger,
	); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	v1 := router.Group("/v1")
	v1.Use(detectionHTTP.AnalysisMiddleware(cfg.DetectionUseCase, cfg.Logger))
	v1.Use(AdminAuthMiddleware(cfg.AdminTokenHash, cfg.Logger))

	if cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(
			cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, cfg.Logger,
		))
	}

	encryption := v1.Group("/encryption")
	{
		encryption.GET("/status", cfg.EncryptionHandler.StatusHandler)
		encryption.GET("/keys", cfg.EncryptionHandler.ListKeysHandler)
		encryption.POST("/keys/rotate", cfg.EncryptionHandler.RotateKeysHandler)
		encryption.POST("/test", cfg.EncryptionHandler.TestEncryptionHandler)
		encryption.POST("/records/:table/encrypt", cfg.EncryptionHandler.EncryptRecordHandler)
		encryption.POST("/records/:table/decrypt", cfg.EncryptionHandler.DecryptRecordHandler)
	}

	detection := v1.Group("/detection")
	{
		detection.GET("/status", cfg.DetectionHandler.StatusHandler)
		detection.GET("/events", cfg.DetectionHandler.ListEventsHandler)
		detection.POST("/events/:id/resolve", cfg.DetectionHandler.ResolveEventHandler)
		detection.GET("/blocked", cfg.DetectionHandler.ListBlockedHandler)
		detection.POST("/blocked", cfg.DetectionHandler.BlockAddressHandler)
		detection.DELETE("/blocked/:address", cfg.DetectionHandler.UnblockAddressHandler)
		detection.GET("/profiles", cfg.DetectionHandler.ListProfilesHandler)
		detection.PUT("/config", cfg.DetectionHandler.UpdateConfigHandler)
	}

	return router
}
