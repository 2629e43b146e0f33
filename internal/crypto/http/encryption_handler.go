// Package http provides HTTP handlers for the encryption admin API.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldsrv/guardpost/internal/crypto/http/dto"
	cryptoUseCase "github.com/fieldsrv/guardpost/internal/crypto/usecase"
	"github.com/fieldsrv/guardpost/internal/httputil"
	customValidation "github.com/fieldsrv/guardpost/internal/validation"
)

// EncryptionHandler handles HTTP requests for the encryption admin API.
type EncryptionHandler struct {
	encryptionUseCase cryptoUseCase.EncryptionUseCase
	logger            *slog.Logger
}

// NewEncryptionHandler creates a new encryption handler with required dependencies.
func NewEncryptionHandler(
	useCase cryptoUseCase.EncryptionUseCase,
	logger *slog.Logger,
) *EncryptionHandler {
	return &EncryptionHandler{
		encryptionUseCase: useCase,
		logger:            logger,
	}
}

// StatusHandler returns the encryption engine status. Key material is
// never included in the response.
// GET /v1/encryption/status
func (h *EncryptionHandler) StatusHandler(c *gin.Context) {
	status, err := h.encryptionUseCase.Status(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, status)
}

// RotateKeysHandler runs a rotation pass: expired keys are archived and,
// when any were, a new primary is installed.
// POST /v1/encryption/keys/rotate
func (h *EncryptionHandler) RotateKeysHandler(c *gin.Context) {
	report, err := h.encryptionUseCase.Rotate(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, report)
}

// TestEncryptionHandler runs an encrypt-decrypt round trip over the
// submitted plaintext and reports the outcome plus any PII findings.
// POST /v1/encryption/test
func (h *EncryptionHandler) TestEncryptionHandler(c *gin.Context) {
	var req dto.TestEncryptionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	report, err := h.encryptionUseCase.TestRoundTrip(c.Request.Context(), req.Plaintext)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ListKeysHandler returns metadata for every key in the ring, newest first.
// GET /v1/encryption/keys
func (h *EncryptionHandler) ListKeysHandler(c *gin.Context) {
	keys, err := h.encryptionUseCase.Keys(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapKeysToListResponse(keys))
}

// EncryptRecordHandler seals the registered fields of a record.
// POST /v1/encryption/records/:table/encrypt
func (h *EncryptionHandler) EncryptRecordHandler(c *gin.Context) {
	table := c.Param("table")
	if table == "" {
		httputil.HandleBadRequestGin(c, fmt.Errorf("table cannot be empty"), h.logger)
		return
	}

	var req dto.EncryptRecordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	record, err := h.encryptionUseCase.EncryptRecord(c.Request.Context(), table, req.Record)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.EncryptRecordResponse{Record: record})
}

// DecryptRecordHandler opens the flagged fields of a record and reports
// the per-field outcome.
// POST /v1/encryption/records/:table/decrypt
func (h *EncryptionHandler) DecryptRecordHandler(c *gin.Context) {
	table := c.Param("table")
	if table == "" {
		httputil.HandleBadRequestGin(c, fmt.Errorf("table cannot be empty"), h.logger)
		return
	}

	var req dto.DecryptRecordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	record, statuses, err := h.encryptionUseCase.DecryptRecord(c.Request.Context(), table, req.Record)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDecryptRecordResponse(record, statuses))
}
