package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fieldsrv/guardpost/internal/crypto/service"
	"github.com/fieldsrv/guardpost/internal/crypto/usecase"
	"github.com/fieldsrv/guardpost/internal/errors"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

// mockEncryptionUseCase is a local mock for usecase.EncryptionUseCase.
type mockEncryptionUseCase struct {
	mock.Mock
}

func (m *mockEncryptionUseCase) Status(ctx context.Context) (usecase.EncryptionStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(usecase.EncryptionStatus), args.Error(1)
}

func (m *mockEncryptionUseCase) Rotate(ctx context.Context) (usecase.RotationReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(usecase.RotationReport), args.Error(1)
}

func (m *mockEncryptionUseCase) TestRoundTrip(
	ctx context.Context,
	plaintext string,
) (usecase.RoundTripReport, error) {
	args := m.Called(ctx, plaintext)
	return args.Get(0).(usecase.RoundTripReport), args.Error(1)
}

func (m *mockEncryptionUseCase) Keys(ctx context.Context) ([]usecase.KeyMetadata, error) {
	args := m.Called(ctx)
	return args.Get(0).([]usecase.KeyMetadata), args.Error(1)
}

func (m *mockEncryptionUseCase) EncryptString(ctx context.Context, plaintext string) (string, error) {
	args := m.Called(ctx, plaintext)
	return args.String(0), args.Error(1)
}

func (m *mockEncryptionUseCase) DecryptString(ctx context.Context, serialized string) (string, error) {
	args := m.Called(ctx, serialized)
	return args.String(0), args.Error(1)
}

func (m *mockEncryptionUseCase) EncryptRecord(
	ctx context.Context,
	table string,
	record map[string]any,
) (map[string]any, error) {
	args := m.Called(ctx, table, record)
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *mockEncryptionUseCase) DecryptRecord(
	ctx context.Context,
	table string,
	record map[string]any,
) (map[string]any, map[string]service.FieldStatus, error) {
	args := m.Called(ctx, table, record)
	return args.Get(0).(map[string]any), args.Get(1).(map[string]service.FieldStatus), args.Error(2)
}

func TestEncryptionUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("records success", func(t *testing.T) {
		mockNext := &mockEncryptionUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewEncryptionUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("Rotate", ctx).Return(usecase.RotationReport{}, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "encryption", "rotate_keys", "success").Once()
		mockMetrics.On("RecordDuration", ctx, "encryption", "rotate_keys",
			mock.AnythingOfType("time.Duration"), "success").Once()

		_, err := uc.Rotate(ctx)
		assert.NoError(t, err)

		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("records error", func(t *testing.T) {
		mockNext := &mockEncryptionUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewEncryptionUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("DecryptString", ctx, "garbage").Return("", errors.ErrInvalidInput).Once()
		mockMetrics.On("RecordOperation", ctx, "encryption", "decrypt", "error").Once()
		mockMetrics.On("RecordDuration", ctx, "encryption", "decrypt",
			mock.AnythingOfType("time.Duration"), "error").Once()

		_, err := uc.DecryptString(ctx, "garbage")
		assert.ErrorIs(t, err, errors.ErrInvalidInput)

		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("forwards results", func(t *testing.T) {
		mockNext := &mockEncryptionUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewEncryptionUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("EncryptString", ctx, "hello").Return("sealed", nil).Once()
		mockMetrics.On("RecordOperation", ctx, "encryption", "encrypt", "success").Once()
		mockMetrics.On("RecordDuration", ctx, "encryption", "encrypt",
			mock.AnythingOfType("time.Duration"), "success").Once()

		out, err := uc.EncryptString(ctx, "hello")
		assert.NoError(t, err)
		assert.Equal(t, "sealed", out)
	})
}
