package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
	detectionUseCase "github.com/fieldsrv/guardpost/internal/detection/usecase"
	"github.com/fieldsrv/guardpost/internal/httputil"
)

// Gin context keys under which upstream authentication middleware exposes
// the caller's identity. Unauthenticated requests leave them unset.
const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

// AnalysisMiddleware runs every request through the intrusion detection
// engine and rejects requests from blocked sources with 403. Analysis
// failures never reject a request.
func AnalysisMiddleware(
	useCase detectionUseCase.DetectionUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &detectionDomain.RequestContext{
			SourceAddress:  c.ClientIP(),
			Method:         c.Request.Method,
			Path:           c.Request.URL.RequestURI(),
			UserAgent:      c.Request.UserAgent(),
			ContentLength:  c.Request.ContentLength,
			Referer:        c.Request.Referer(),
			AcceptLanguage: c.GetHeader("Accept-Language"),
			UserID:         c.GetString(ContextUserIDKey),
			Username:       c.GetString(ContextUsernameKey),
		}

		result, err := useCase.AnalyzeRequest(c.Request.Context(), req)
		if err != nil {
			logger.ErrorContext(c.Request.Context(), "request analysis failed",
				slog.String("source_address", req.SourceAddress),
				slog.Any("error", err),
			)
			c.Next()
			return
		}

		if result.ShouldBlock {
			c.AbortWithStatusJSON(http.StatusForbidden, httputil.ErrorResponse{
				Error:   "forbidden",
				Message: "request blocked by intrusion detection",
			})
			return
		}

		c.Next()
	}
}
