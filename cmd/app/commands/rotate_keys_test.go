package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/fieldsrv/guardpost/internal/crypto/domain"
	cryptoService "github.com/fieldsrv/guardpost/internal/crypto/service"
	cryptoUsecase "github.com/fieldsrv/guardpost/internal/crypto/usecase"
)

func newTestEncryptionUseCase(t *testing.T, rotationPeriod time.Duration) cryptoUsecase.EncryptionUseCase {
	t.Helper()

	masterKey, err := cryptoDomain.GenerateMasterKey()
	require.NoError(t, err)

	aeadManager := cryptoService.NewAEADManager()
	keyManager := cryptoService.NewKeyManager(aeadManager, masterKey, cryptoDomain.AESGCM, rotationPeriod)
	require.NoError(t, keyManager.Initialize())

	encryptor := cryptoService.NewEncryptionService(keyManager, aeadManager)
	fieldRegistry := cryptoService.NewDefaultFieldRegistry(encryptor)
	piiService := cryptoService.NewPIIService()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return cryptoUsecase.NewEncryptionUseCase(
		keyManager, encryptor, fieldRegistry, piiService, rotationPeriod, logger,
	)
}

func TestRunRotateKeys(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("expired key is replaced", func(t *testing.T) {
		useCase := newTestEncryptionUseCase(t, time.Nanosecond)

		statusBefore, err := useCase.Status(ctx)
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, RunRotateKeys(ctx, useCase, logger, &out))

		statusAfter, err := useCase.Status(ctx)
		require.NoError(t, err)
		require.NotEqual(t, statusBefore.ActiveKeyID, statusAfter.ActiveKeyID)
		require.Contains(t, out.String(), "New primary key:")
		require.Contains(t, out.String(), statusAfter.ActiveKeyID.String())
		require.Contains(t, out.String(), statusBefore.ActiveKeyID.String())
	})

	t.Run("nothing due for rotation", func(t *testing.T) {
		useCase := newTestEncryptionUseCase(t, 7*24*time.Hour)

		statusBefore, err := useCase.Status(ctx)
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, RunRotateKeys(ctx, useCase, logger, &out))

		statusAfter, err := useCase.Status(ctx)
		require.NoError(t, err)
		require.Equal(t, statusBefore.ActiveKeyID, statusAfter.ActiveKeyID)
		require.Contains(t, out.String(), "No keys were due for rotation")
	})
}
