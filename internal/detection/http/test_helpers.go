package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
	"github.com/fieldsrv/guardpost/internal/detection/service"
	detectionUseCase "github.com/fieldsrv/guardpost/internal/detection/usecase"
)

// createTestContext creates a test Gin context with the given request.
func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

// newTestUseCase wires a real detection use case around an in-memory engine.
func newTestUseCase() detectionUseCase.DetectionUseCase {
	cfg := detectionDomain.DefaultDetectionConfig()
	profiles := service.NewProfileStore()
	rates := service.NewRateTracker()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := service.NewEngine(
		service.NewRiskScorer(profiles, rates),
		profiles,
		service.NewEventLog(cfg.EventLogCapacity, cfg.SuspicionHalfLife),
		nil,
		cfg,
		logger,
	)

	return detectionUseCase.NewDetectionUseCase(engine, nil, logger)
}
