package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoUsecase "github.com/fieldsrv/guardpost/internal/crypto/usecase"
)

// RunRotateKeys performs a one-shot key rotation pass: expired keys are
// archived and, when any were, a fresh primary is installed. Data sealed
// under older keys remains readable; rotation never discards key material.
func RunRotateKeys(
	ctx context.Context,
	encryptionUseCase cryptoUsecase.EncryptionUseCase,
	logger *slog.Logger,
	writer io.Writer,
) error {
	logger.Info("rotating encryption keys")

	report, err := encryptionUseCase.Rotate(ctx)
	if err != nil {
		return fmt.Errorf("failed to rotate keys: %w", err)
	}

	fmt.Fprintln(writer, "# Key Rotation Report")
	if report.NewKeyID == nil {
		fmt.Fprintln(writer, "No keys were due for rotation; the primary is unchanged.")
		return nil
	}
	fmt.Fprintf(writer, "New primary key: %s\n", report.NewKeyID)
	fmt.Fprintf(writer, "Archived keys:   %d\n", len(report.ArchivedKeys))
	for _, id := range report.ArchivedKeys {
		fmt.Fprintf(writer, "  - %s\n", id)
	}

	return nil
}
