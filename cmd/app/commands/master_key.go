package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/fieldsrv/guardpost/internal/crypto/domain"
	cryptoService "github.com/fieldsrv/guardpost/internal/crypto/service"
)

// RunCreateMasterKey generates a cryptographically secure 32-byte master key.
//
// Without a KMS key URI the key is printed as hex for GUARDPOST_MASTER_KEY.
// With one, the key is wrapped through the KMS keeper and printed as
// GUARDPOST_MASTER_KEY_WRAPPED plus the matching KMS_KEY_URI; the plaintext
// never leaves the process. Key material is zeroed before returning.
func RunCreateMasterKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	kmsKeyURI string,
) error {
	masterKey, err := cryptoDomain.GenerateMasterKey()
	if err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer masterKey.Close()

	if kmsKeyURI == "" {
		fmt.Fprintln(writer, "# Master Key Configuration")
		fmt.Fprintln(writer, "# Copy this environment variable to your .env file or secrets manager")
		fmt.Fprintln(writer)
		fmt.Fprintf(writer, "GUARDPOST_MASTER_KEY=\"%s\"\n", masterKey.Hex())
		return nil
	}

	keeper, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	ciphertext, err := keeper.Encrypt(ctx, masterKey.Key)
	if err != nil {
		return fmt.Errorf("failed to encrypt master key with KMS: %w", err)
	}

	fmt.Fprintln(writer, "# Master Key Configuration (KMS Mode)")
	fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	fmt.Fprintln(writer)
	fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	fmt.Fprintf(writer, "GUARDPOST_MASTER_KEY_WRAPPED=\"%s\"\n", base64.StdEncoding.EncodeToString(ciphertext))

	return nil
}
