package usecase

import (
	"context"
	"log/slog"
	"net"

	"github.com/google/uuid"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
	"github.com/fieldsrv/guardpost/internal/detection/service"
	apperrors "github.com/fieldsrv/guardpost/internal/errors"
)

const maxProfileListing = 100

// detectionUseCase implements DetectionUseCase on top of the detection
// engine. resolver is optional; when present, resolve actions are mirrored
// into the durable event store on a best-effort basis.
type detectionUseCase struct {
	engine   *service.Engine
	resolver EventResolver
	logger   *slog.Logger
}

// NewDetectionUseCase creates a new DetectionUseCase. resolver may be nil
// when no durable event store is configured.
func NewDetectionUseCase(
	engine *service.Engine,
	resolver EventResolver,
	logger *slog.Logger,
) DetectionUseCase {
	return &detectionUseCase{
		engine:   engine,
		resolver: resolver,
		logger:   logger,
	}
}

func (d *detectionUseCase) AnalyzeRequest(
	ctx context.Context,
	req *detectionDomain.RequestContext,
) (detectionDomain.AnalysisResult, error) {
	return d.engine.AnalyzeRequest(ctx, req), nil
}

func (d *detectionUseCase) Status(ctx context.Context) (DetectionStatus, error) {
	return d.status(), nil
}

func (d *detectionUseCase) status() DetectionStatus {
	cfg := d.engine.Config()
	return DetectionStatus{
		Sensitivity:         cfg.Sensitivity,
		ReportingThreshold:  cfg.ReportingThreshold,
		MaxSuspiciousScore:  cfg.BlockingThreshold,
		AutomaticBlocking:   cfg.AutomaticBlocking,
		GeoAnomalyDetection: cfg.GeoAnomalyDetection,
		ProfileLearning:     string(cfg.ProfileLearning),
		RapidRequestLimit:   cfg.RapidRequestLimit(),
		Statistics:          d.engine.Statistics(),
	}
}

func (d *detectionUseCase) Events(
	ctx context.Context,
	filter detectionDomain.EventFilter,
) ([]*detectionDomain.IntrusionEvent, error) {
	if filter.Severity != "" && !detectionDomain.ValidSeverity(string(filter.Severity)) {
		return nil, apperrors.Wrap(detectionDomain.ErrInvalidConfigValue, "unknown severity filter")
	}
	if filter.Type != "" && !detectionDomain.ValidIntrusionType(string(filter.Type)) {
		return nil, apperrors.Wrap(detectionDomain.ErrInvalidConfigValue, "unknown event type filter")
	}
	if filter.Limit < 0 {
		return nil, apperrors.Wrap(detectionDomain.ErrInvalidConfigValue, "limit must not be negative")
	}

	return d.engine.EventLog().Events(filter), nil
}

func (d *detectionUseCase) Resolve(ctx context.Context, id uuid.UUID) error {
	if err := d.engine.EventLog().Resolve(id); err != nil {
		return err
	}

	if d.resolver != nil {
		if err := d.resolver.MarkResolved(ctx, id); err != nil {
			d.logger.WarnContext(ctx, "failed to mark event resolved in durable store",
				"event_id", id,
				"error", err,
			)
		}
	}

	return nil
}

func (d *detectionUseCase) Blocked(ctx context.Context) (BlockedReport, error) {
	log := d.engine.EventLog()
	return BlockedReport{
		Addresses: log.Blocked(),
		Suspicion: log.Suspicion(),
	}, nil
}

func (d *detectionUseCase) Block(ctx context.Context, address string) error {
	if net.ParseIP(address) == nil {
		return detectionDomain.ErrInvalidAddress
	}

	d.engine.EventLog().Block(address)
	d.logger.InfoContext(ctx, "address blocked by operator", "source_address", address)
	return nil
}

func (d *detectionUseCase) Unblock(
	ctx context.Context,
	address string,
) (UnblockResult, error) {
	if net.ParseIP(address) == nil {
		return UnblockResult{}, detectionDomain.ErrInvalidAddress
	}

	wasBlocked := d.engine.EventLog().Unblock(address)
	if wasBlocked {
		d.logger.InfoContext(ctx, "address unblocked by operator", "source_address", address)
	}

	return UnblockResult{Address: address, WasBlocked: wasBlocked}, nil
}

func (d *detectionUseCase) Profiles(
	ctx context.Context,
) ([]detectionDomain.UserBehaviorProfile, error) {
	return d.engine.Profiles().Profiles(maxProfileListing), nil
}

func (d *detectionUseCase) UpdateConfig(
	ctx context.Context,
	update ConfigUpdate,
) (DetectionStatus, error) {
	if update.Sensitivity != nil && (*update.Sensitivity < 1 || *update.Sensitivity > 10) {
		return DetectionStatus{}, apperrors.Wrap(
			detectionDomain.ErrInvalidConfigValue, "sensitivity must be between 1 and 10",
		)
	}
	if update.MaxSuspiciousScore != nil && *update.MaxSuspiciousScore < 1 {
		return DetectionStatus{}, apperrors.Wrap(
			detectionDomain.ErrInvalidConfigValue, "max_suspicious_score must be positive",
		)
	}

	var learning detectionDomain.LearningMode
	if update.ProfileLearning != nil {
		mode, err := detectionDomain.ParseLearningMode(*update.ProfileLearning)
		if err != nil {
			return DetectionStatus{}, err
		}
		learning = mode
	}

	d.engine.UpdateConfig(func(cfg *detectionDomain.DetectionConfig) {
		if update.Sensitivity != nil {
			cfg.Sensitivity = *update.Sensitivity
		}
		if update.AutomaticBlocking != nil {
			cfg.AutomaticBlocking = *update.AutomaticBlocking
		}
		if update.GeoAnomalyDetection != nil {
			cfg.GeoAnomalyDetection = *update.GeoAnomalyDetection
		}
		if update.MaxSuspiciousScore != nil {
			cfg.BlockingThreshold = *update.MaxSuspiciousScore
		}
		if update.ProfileLearning != nil {
			cfg.ProfileLearning = learning
		}
	})

	d.logger.InfoContext(ctx, "detection config updated")
	return d.status(), nil
}
