package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
	"github.com/fieldsrv/guardpost/internal/detection/usecase"
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

// mockDetectionUseCase is a local mock for usecase.DetectionUseCase.
type mockDetectionUseCase struct {
	mock.Mock
}

func (m *mockDetectionUseCase) AnalyzeRequest(
	ctx context.Context,
	req *detectionDomain.RequestContext,
) (detectionDomain.AnalysisResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(detectionDomain.AnalysisResult), args.Error(1)
}

func (m *mockDetectionUseCase) Status(ctx context.Context) (usecase.DetectionStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(usecase.DetectionStatus), args.Error(1)
}

func (m *mockDetectionUseCase) Events(
	ctx context.Context,
	filter detectionDomain.EventFilter,
) ([]*detectionDomain.IntrusionEvent, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*detectionDomain.IntrusionEvent), args.Error(1)
}

func (m *mockDetectionUseCase) Resolve(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockDetectionUseCase) Blocked(ctx context.Context) (usecase.BlockedReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(usecase.BlockedReport), args.Error(1)
}

func (m *mockDetectionUseCase) Block(ctx context.Context, address string) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *mockDetectionUseCase) Unblock(
	ctx context.Context,
	address string,
) (usecase.UnblockResult, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(usecase.UnblockResult), args.Error(1)
}

func (m *mockDetectionUseCase) Profiles(
	ctx context.Context,
) ([]detectionDomain.UserBehaviorProfile, error) {
	args := m.Called(ctx)
	return args.Get(0).([]detectionDomain.UserBehaviorProfile), args.Error(1)
}

func (m *mockDetectionUseCase) UpdateConfig(
	ctx context.Context,
	update usecase.ConfigUpdate,
) (usecase.DetectionStatus, error) {
	args := m.Called(ctx, update)
	return args.Get(0).(usecase.DetectionStatus), args.Error(1)
}

func TestDetectionUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("records success", func(t *testing.T) {
		next := &mockDetectionUseCase{}
		next.On("Status", ctx).Return(usecase.DetectionStatus{Sensitivity: 5}, nil)

		m := &mockBusinessMetrics{}
		m.On("RecordOperation", ctx, "detection", "status", "success").Once()
		m.On("RecordDuration", ctx, "detection", "status", mock.Anything, "success").Once()

		decorated := usecase.NewDetectionUseCaseWithMetrics(next, m)
		status, err := decorated.Status(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 5, status.Sensitivity)
		next.AssertExpectations(t)
		m.AssertExpectations(t)
	})

	t.Run("records error", func(t *testing.T) {
		next := &mockDetectionUseCase{}
		next.On("Unblock", ctx, "bad").
			Return(usecase.UnblockResult{}, detectionDomain.ErrInvalidAddress)

		m := &mockBusinessMetrics{}
		m.On("RecordOperation", ctx, "detection", "unblock_address", "error").Once()
		m.On("RecordDuration", ctx, "detection", "unblock_address", mock.Anything, "error").Once()

		decorated := usecase.NewDetectionUseCaseWithMetrics(next, m)
		_, err := decorated.Unblock(ctx, "bad")

		assert.ErrorIs(t, err, errors.ErrInvalidInput)
		next.AssertExpectations(t)
		m.AssertExpectations(t)
	})

	t.Run("forwards arguments and results", func(t *testing.T) {
		filter := detectionDomain.EventFilter{Severity: detectionDomain.SeverityCritical}
		events := []*detectionDomain.IntrusionEvent{{SourceAddress: "1.2.3.4"}}

		next := &mockDetectionUseCase{}
		next.On("Events", ctx, filter).Return(events, nil)

		m := &mockBusinessMetrics{}
		m.On("RecordOperation", ctx, "detection", "list_events", "success").Once()
		m.On("RecordDuration", ctx, "detection", "list_events", mock.Anything, "success").Once()

		decorated := usecase.NewDetectionUseCaseWithMetrics(next, m)
		got, err := decorated.Events(ctx, filter)

		assert.NoError(t, err)
		assert.Equal(t, events, got)
		next.AssertExpectations(t)
		m.AssertExpectations(t)
	})
}
