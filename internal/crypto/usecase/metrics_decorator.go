package usecase

import (
	"context"
	"time"

	"github.com/fieldsrv/guardpost/internal/crypto/service"
	"github.com/fieldsrv/guardpost/internal/metrics"
)

// encryptionUseCaseWithMetrics decorates EncryptionUseCase with metrics instrumentation.
type encryptionUseCaseWithMetrics struct {
	next    EncryptionUseCase
	metrics metrics.BusinessMetrics
}

// NewEncryptionUseCaseWithMetrics wraps an EncryptionUseCase with metrics recording.
func NewEncryptionUseCaseWithMetrics(
	useCase EncryptionUseCase,
	m metrics.BusinessMetrics,
) EncryptionUseCase {
	return &encryptionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (e *encryptionUseCaseWithMetrics) record(
	ctx context.Context,
	operation string,
	start time.Time,
	err error,
) {
	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "encryption", operation, status)
	e.metrics.RecordDuration(ctx, "encryption", operation, time.Since(start), status)
}

func (e *encryptionUseCaseWithMetrics) Status(ctx context.Context) (EncryptionStatus, error) {
	start := time.Now()
	status, err := e.next.Status(ctx)
	e.record(ctx, "status", start, err)
	return status, err
}

func (e *encryptionUseCaseWithMetrics) Rotate(ctx context.Context) (RotationReport, error) {
	start := time.Now()
	report, err := e.next.Rotate(ctx)
	e.record(ctx, "rotate_keys", start, err)
	return report, err
}

func (e *encryptionUseCaseWithMetrics) TestRoundTrip(
	ctx context.Context,
	plaintext string,
) (RoundTripReport, error) {
	start := time.Now()
	report, err := e.next.TestRoundTrip(ctx, plaintext)
	e.record(ctx, "round_trip_test", start, err)
	return report, err
}

func (e *encryptionUseCaseWithMetrics) Keys(ctx context.Context) ([]KeyMetadata, error) {
	start := time.Now()
	keys, err := e.next.Keys(ctx)
	e.record(ctx, "list_keys", start, err)
	return keys, err
}

func (e *encryptionUseCaseWithMetrics) EncryptString(
	ctx context.Context,
	plaintext string,
) (string, error) {
	start := time.Now()
	out, err := e.next.EncryptString(ctx, plaintext)
	e.record(ctx, "encrypt", start, err)
	return out, err
}

func (e *encryptionUseCaseWithMetrics) DecryptString(
	ctx context.Context,
	serialized string,
) (string, error) {
	start := time.Now()
	out, err := e.next.DecryptString(ctx, serialized)
	e.record(ctx, "decrypt", start, err)
	return out, err
}

func (e *encryptionUseCaseWithMetrics) EncryptRecord(
	ctx context.Context,
	table string,
	record map[string]any,
) (map[string]any, error) {
	start := time.Now()
	out, err := e.next.EncryptRecord(ctx, table, record)
	e.record(ctx, "encrypt_record", start, err)
	return out, err
}

func (e *encryptionUseCaseWithMetrics) DecryptRecord(
	ctx context.Context,
	table string,
	record map[string]any,
) (map[string]any, map[string]service.FieldStatus, error) {
	start := time.Now()
	out, status, err := e.next.DecryptRecord(ctx, table, record)
	e.record(ctx, "decrypt_record", start, err)
	return out, status, err
}
