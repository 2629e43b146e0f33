package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/fieldsrv/guardpost/internal/crypto/domain"
	"github.com/fieldsrv/guardpost/internal/crypto/http/dto"
	cryptoUseCase "github.com/fieldsrv/guardpost/internal/crypto/usecase"
)

// setupTestEncryptionHandler creates an encryption handler backed by a
// real engine with a generated master key.
func setupTestEncryptionHandler(t *testing.T) (*EncryptionHandler, cryptoUseCase.EncryptionUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	useCase, err := newTestUseCase()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEncryptionHandler(useCase, logger), useCase
}

func TestEncryptionHandler_StatusHandler(t *testing.T) {
	handler, _ := setupTestEncryptionHandler(t)

	c, w := createTestContext(http.MethodGet, "/v1/encryption/status", nil)
	handler.StatusHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response cryptoUseCase.EncryptionStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, cryptoDomain.AESGCM, response.Algorithm)
	assert.Equal(t, 1, response.TotalKeys)
	assert.NotEmpty(t, response.SigningPublicKey)
	assert.Contains(t, response.RegisteredTables, "clients")
}

func TestEncryptionHandler_RotateKeysHandler(t *testing.T) {
	t.Run("Success_ExpiredKeyReplaced", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		useCase, err := newTestUseCaseWithPeriod(time.Nanosecond)
		require.NoError(t, err)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		handler := NewEncryptionHandler(useCase, logger)

		c, w := createTestContext(http.MethodPost, "/v1/encryption/keys/rotate", nil)
		handler.RotateKeysHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response cryptoUseCase.RotationReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.NotNil(t, response.NewKeyID)
		require.Len(t, response.ArchivedKeys, 1)

		status, err := useCase.Status(c.Request.Context())
		require.NoError(t, err)
		assert.Equal(t, *response.NewKeyID, status.ActiveKeyID)
	})

	t.Run("Success_NothingExpired", func(t *testing.T) {
		handler, useCase := setupTestEncryptionHandler(t)

		before, err := useCase.Status(context.Background())
		require.NoError(t, err)

		c, w := createTestContext(http.MethodPost, "/v1/encryption/keys/rotate", nil)
		handler.RotateKeysHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "new_key_id")

		after, err := useCase.Status(c.Request.Context())
		require.NoError(t, err)
		assert.Equal(t, before.ActiveKeyID, after.ActiveKeyID)
		assert.Equal(t, 1, after.TotalKeys)
	})
}

func TestEncryptionHandler_TestEncryptionHandler(t *testing.T) {
	t.Run("Success_RoundTrip", func(t *testing.T) {
		handler, _ := setupTestEncryptionHandler(t)

		request := dto.TestEncryptionRequest{Plaintext: "call me at ada@example.com"}
		c, w := createTestContext(http.MethodPost, "/v1/encryption/test", request)
		handler.TestEncryptionHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response cryptoUseCase.RoundTripReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Match)
		require.Len(t, response.PIIDetected, 1)
		assert.Equal(t, "email", string(response.PIIDetected[0].Type))
	})

	t.Run("Error_EmptyPlaintext", func(t *testing.T) {
		handler, _ := setupTestEncryptionHandler(t)

		request := dto.TestEncryptionRequest{Plaintext: "   "}
		c, w := createTestContext(http.MethodPost, "/v1/encryption/test", request)
		handler.TestEncryptionHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_MalformedJSON", func(t *testing.T) {
		handler, _ := setupTestEncryptionHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/encryption/test", nil)
		handler.TestEncryptionHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEncryptionHandler_ListKeysHandler(t *testing.T) {
	handler, _ := setupTestEncryptionHandler(t)

	c, w := createTestContext(http.MethodGet, "/v1/encryption/keys", nil)
	handler.ListKeysHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.ListKeysResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data, 1)
	assert.True(t, response.Data[0].Active)
	assert.Equal(t, cryptoDomain.RolePrimary, response.Data[0].Role)
}

func TestEncryptionHandler_EncryptRecordHandler(t *testing.T) {
	t.Run("Success_EncryptsRegisteredFields", func(t *testing.T) {
		handler, _ := setupTestEncryptionHandler(t)

		request := dto.EncryptRecordRequest{
			Record: map[string]any{"name": "Ada", "phone": "+1 555 0100"},
		}
		c, w := createTestContext(http.MethodPost, "/v1/encryption/records/clients/encrypt", request)
		c.Params = gin.Params{gin.Param{Key: "table", Value: "clients"}}
		handler.EncryptRecordHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.EncryptRecordResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Ada", response.Record["name"])
		assert.NotEqual(t, "+1 555 0100", response.Record["phone"])
		assert.Equal(t, true, response.Record["phone_encrypted"])
	})

	t.Run("Error_EmptyTable", func(t *testing.T) {
		handler, _ := setupTestEncryptionHandler(t)

		request := dto.EncryptRecordRequest{Record: map[string]any{"phone": "+1 555 0100"}}
		c, w := createTestContext(http.MethodPost, "/v1/encryption/records//encrypt", request)
		c.Params = gin.Params{gin.Param{Key: "table", Value: ""}}
		handler.EncryptRecordHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_EmptyRecord", func(t *testing.T) {
		handler, _ := setupTestEncryptionHandler(t)

		request := dto.EncryptRecordRequest{}
		c, w := createTestContext(http.MethodPost, "/v1/encryption/records/clients/encrypt", request)
		c.Params = gin.Params{gin.Param{Key: "table", Value: "clients"}}
		handler.EncryptRecordHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestEncryptionHandler_DecryptRecordHandler(t *testing.T) {
	t.Run("Success_RoundTrip", func(t *testing.T) {
		handler, useCase := setupTestEncryptionHandler(t)

		encrypted, err := useCase.EncryptRecord(
			context.Background(),
			"clients",
			map[string]any{"name": "Ada", "phone": "+1 555 0100"},
		)
		require.NoError(t, err)

		request := dto.DecryptRecordRequest{Record: encrypted}
		c, w := createTestContext(http.MethodPost, "/v1/encryption/records/clients/decrypt", request)
		c.Params = gin.Params{gin.Param{Key: "table", Value: "clients"}}
		handler.DecryptRecordHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.DecryptRecordResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "+1 555 0100", response.Record["phone"])
		assert.Equal(t, "decrypted", response.FieldStatus["phone"])
	})

	t.Run("Error_EmptyRecord", func(t *testing.T) {
		handler, _ := setupTestEncryptionHandler(t)

		request := dto.DecryptRecordRequest{}
		c, w := createTestContext(http.MethodPost, "/v1/encryption/records/clients/decrypt", request)
		c.Params = gin.Params{gin.Param{Key: "table", Value: "clients"}}
		handler.DecryptRecordHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
