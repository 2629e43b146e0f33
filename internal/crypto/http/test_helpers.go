package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/fieldsrv/guardpost/internal/crypto/domain"
	"github.com/fieldsrv/guardpost/internal/crypto/service"
	cryptoUseCase "github.com/fieldsrv/guardpost/internal/crypto/usecase"
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

// newTestUseCase wires a real encryption use case with a generated master key.
func newTestUseCase() (cryptoUseCase.EncryptionUseCase, error) {
	return newTestUseCaseWithPeriod(7 * 24 * time.Hour)
}

// newTestUseCaseWithPeriod is for rotation tests that need the active key
// to expire immediately.
func newTestUseCaseWithPeriod(rotationPeriod time.Duration) (cryptoUseCase.EncryptionUseCase, error) {
	masterKey, err := cryptoDomain.GenerateMasterKey()
	if err != nil {
		return nil, err
	}

	aeadManager := service.NewAEADManager()
	keyManager := service.NewKeyManager(aeadManager, masterKey, cryptoDomain.AESGCM, rotationPeriod)
	if err := keyManager.Initialize(); err != nil {
		return nil, err
	}

	encryptor := service.NewEncryptionService(keyManager, aeadManager)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return cryptoUseCase.NewEncryptionUseCase(
		keyManager,
		encryptor,
		service.NewDefaultFieldRegistry(encryptor),
		service.NewPIIService(),
		rotationPeriod,
		logger,
	), nil
}
