package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
	"github.com/fieldsrv/guardpost/internal/metrics"
)

// detectionUseCaseWithMetrics decorates DetectionUseCase with metrics instrumentation.
type detectionUseCaseWithMetrics struct {
	next    DetectionUseCase
	metrics metrics.BusinessMetrics
}

// NewDetectionUseCaseWithMetrics wraps a DetectionUseCase with metrics recording.
func NewDetectionUseCaseWithMetrics(
	useCase DetectionUseCase,
	m metrics.BusinessMetrics,
) DetectionUseCase {
	return &detectionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (d *detectionUseCaseWithMetrics) record(
	ctx context.Context,
	operation string,
	start time.Time,
	err error,
) {
	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "detection", operation, status)
	d.metrics.RecordDuration(ctx, "detection", operation, time.Since(start), status)
}

func (d *detectionUseCaseWithMetrics) AnalyzeRequest(
	ctx context.Context,
	req *detectionDomain.RequestContext,
) (detectionDomain.AnalysisResult, error) {
	start := time.Now()
	result, err := d.next.AnalyzeRequest(ctx, req)
	d.record(ctx, "analyze_request", start, err)
	return result, err
}

func (d *detectionUseCaseWithMetrics) Status(ctx context.Context) (DetectionStatus, error) {
	start := time.Now()
	status, err := d.next.Status(ctx)
	d.record(ctx, "status", start, err)
	return status, err
}

func (d *detectionUseCaseWithMetrics) Events(
	ctx context.Context,
	filter detectionDomain.EventFilter,
) ([]*detectionDomain.IntrusionEvent, error) {
	start := time.Now()
	events, err := d.next.Events(ctx, filter)
	d.record(ctx, "list_events", start, err)
	return events, err
}

func (d *detectionUseCaseWithMetrics) Resolve(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := d.next.Resolve(ctx, id)
	d.record(ctx, "resolve_event", start, err)
	return err
}

func (d *detectionUseCaseWithMetrics) Blocked(ctx context.Context) (BlockedReport, error) {
	start := time.Now()
	report, err := d.next.Blocked(ctx)
	d.record(ctx, "list_blocked", start, err)
	return report, err
}

func (d *detectionUseCaseWithMetrics) Block(ctx context.Context, address string) error {
	start := time.Now()
	err := d.next.Block(ctx, address)
	d.record(ctx, "block_address", start, err)
	return err
}

func (d *detectionUseCaseWithMetrics) Unblock(
	ctx context.Context,
	address string,
) (UnblockResult, error) {
	start := time.Now()
	result, err := d.next.Unblock(ctx, address)
	d.record(ctx, "unblock_address", start, err)
	return result, err
}

func (d *detectionUseCaseWithMetrics) Profiles(
	ctx context.Context,
) ([]detectionDomain.UserBehaviorProfile, error) {
	start := time.Now()
	profiles, err := d.next.Profiles(ctx)
	d.record(ctx, "list_profiles", start, err)
	return profiles, err
}

func (d *detectionUseCaseWithMetrics) UpdateConfig(
	ctx context.Context,
	update ConfigUpdate,
) (DetectionStatus, error) {
	start := time.Now()
	status, err := d.next.UpdateConfig(ctx, update)
	d.record(ctx, "update_config", start, err)
	return status, err
}
