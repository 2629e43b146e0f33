// Package http provides HTTP handlers for the intrusion detection admin API
// and the request analysis middleware.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
	"github.com/fieldsrv/guardpost/internal/detection/http/dto"
	detectionUseCase "github.com/fieldsrv/guardpost/internal/detection/usecase"
	"github.com/fieldsrv/guardpost/internal/httputil"
	customValidation "github.com/fieldsrv/guardpost/internal/validation"
)

const (
	// defaultEventLimit bounds the event listing when the caller sends no
	// limit parameter.
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// DetectionHandler handles HTTP requests for the intrusion detection admin API.
type DetectionHandler struct {
	detectionUseCase detectionUseCase.DetectionUseCase
	logger           *slog.Logger
}

// NewDetectionHandler creates a new detection handler with required dependencies.
func NewDetectionHandler(
	useCase detectionUseCase.DetectionUseCase,
	logger *slog.Logger,
) *DetectionHandler {
	return &DetectionHandler{
		detectionUseCase: useCase,
		logger:           logger,
	}
}

// StatusHandler returns the detection configuration and engine counters.
// GET /v1/detection/status
func (h *DetectionHandler) StatusHandler(c *gin.Context) {
	status, err := h.detectionUseCase.Status(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, status)
}

// ListEventsHandler returns recorded intrusion events, newest first.
// GET /v1/detection/events?severity=&type=&resolved=&since=&limit=
func (h *DetectionHandler) ListEventsHandler(c *gin.Context) {
	filter, err := parseEventFilter(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	events, err := h.detectionUseCase.Events(c.Request.Context(), filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEventsToListResponse(events))
}

// ResolveEventHandler marks an intrusion event as resolved.
// POST /v1/detection/events/:id/resolve
func (h *DetectionHandler) ResolveEventHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid event id: %w", err), h.logger)
		return
	}

	if err := h.detectionUseCase.Resolve(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ResolveEventResponse{ID: id.String(), Resolved: true})
}

// ListBlockedHandler returns the blocked addresses and suspicion scores.
// GET /v1/detection/blocked
func (h *DetectionHandler) ListBlockedHandler(c *gin.Context) {
	report, err := h.detectionUseCase.Blocked(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, report)
}

// BlockAddressHandler adds an address to the blocked set.
// POST /v1/detection/blocked
func (h *DetectionHandler) BlockAddressHandler(c *gin.Context) {
	var req dto.BlockAddressRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.detectionUseCase.Block(c.Request.Context(), req.Address); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"address": req.Address, "blocked": true})
}

// UnblockAddressHandler removes an address from the blocked set.
// DELETE /v1/detection/blocked/:address
func (h *DetectionHandler) UnblockAddressHandler(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		httputil.HandleBadRequestGin(c, fmt.Errorf("address cannot be empty"), h.logger)
		return
	}

	result, err := h.detectionUseCase.Unblock(c.Request.Context(), address)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListProfilesHandler returns tracked user behavior profiles.
// GET /v1/detection/profiles
func (h *DetectionHandler) ListProfilesHandler(c *gin.Context) {
	profiles, err := h.detectionUseCase.Profiles(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProfilesToListResponse(profiles))
}

// UpdateConfigHandler applies a partial detection config update.
// PUT /v1/detection/config
func (h *DetectionHandler) UpdateConfigHandler(c *gin.Context) {
	var req dto.UpdateDetectionConfigRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	status, err := h.detectionUseCase.UpdateConfig(c.Request.Context(), req.ToConfigUpdate())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, status)
}

// parseEventFilter builds an event filter from query parameters. Enum
// values are validated by the use case; this only handles shape.
func parseEventFilter(c *gin.Context) (detectionDomain.EventFilter, error) {
	filter := detectionDomain.EventFilter{
		Severity: detectionDomain.Severity(c.Query("severity")),
		Type:     detectionDomain.IntrusionType(c.Query("type")),
	}

	if raw := c.Query("resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid resolved parameter: %w", err)
		}
		filter.Resolved = &resolved
	}

	limit, err := httputil.ParseLimit(c, defaultEventLimit, maxEventLimit)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid since parameter: %w", err)
		}
		filter.Since = since
	}

	return filter, nil
}
