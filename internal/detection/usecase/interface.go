// Package usecase implements the application operations of the intrusion
// detection engine exposed to the HTTP layer.
package usecase

import (
	"context"

	"github.com/google/uuid"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
	"github.com/fieldsrv/guardpost/internal/detection/service"
)

// EventResolver mirrors resolve actions into an optional durable event
// store. The in-memory event log is authoritative for the admin API.
type EventResolver interface {
	MarkResolved(ctx context.Context, id uuid.UUID) error
}

// DetectionStatus is the status snapshot returned by the admin API:
// the effective configuration plus the engine's counters.
type DetectionStatus struct {
	Sensitivity         int                `json:"sensitivity"`
	ReportingThreshold  int                `json:"reporting_threshold"`
	MaxSuspiciousScore  int                `json:"max_suspicious_score"`
	AutomaticBlocking   bool               `json:"automatic_blocking"`
	GeoAnomalyDetection bool               `json:"geo_anomaly_detection"`
	ProfileLearning     string             `json:"profile_learning"`
	RapidRequestLimit   int                `json:"rapid_request_limit"`
	Statistics          service.Statistics `json:"statistics"`
}

// ConfigUpdate is a partial configuration update. Nil fields are left
// unchanged; every present field is validated individually.
type ConfigUpdate struct {
	Sensitivity         *int    `json:"sensitivity"`
	AutomaticBlocking   *bool   `json:"automatic_blocking"`
	GeoAnomalyDetection *bool   `json:"geo_anomaly_detection"`
	MaxSuspiciousScore  *int    `json:"max_suspicious_score"`
	ProfileLearning     *string `json:"profile_learning"`
}

// BlockedReport lists the blocked addresses and the decayed suspicion
// accumulator of every address still above the floor.
type BlockedReport struct {
	Addresses []string       `json:"addresses"`
	Suspicion map[string]int `json:"suspicion"`
}

// UnblockResult reports whether an unblock actually changed anything.
type UnblockResult struct {
	Address    string `json:"address"`
	WasBlocked bool   `json:"was_blocked"`
}

// DetectionUseCase defines the application operations of the intrusion
// detection engine.
type DetectionUseCase interface {
	// AnalyzeRequest runs one request through the engine. Used by the
	// request middleware; blocked sources short-circuit.
	AnalyzeRequest(
		ctx context.Context,
		req *detectionDomain.RequestContext,
	) (detectionDomain.AnalysisResult, error)

	// Status returns the effective configuration and counters.
	Status(ctx context.Context) (DetectionStatus, error)

	// Events returns recorded events, newest first, after validating the
	// filter field by field.
	Events(
		ctx context.Context,
		filter detectionDomain.EventFilter,
	) ([]*detectionDomain.IntrusionEvent, error)

	// Resolve marks an event resolved in the in-memory log and, when a
	// durable store is configured, mirrors the change there.
	Resolve(ctx context.Context, id uuid.UUID) error

	// Blocked returns the blocked addresses and the suspicion accumulator.
	Blocked(ctx context.Context) (BlockedReport, error)

	// Block adds an address to the blocked set.
	Block(ctx context.Context, address string) error

	// Unblock removes an address from the blocked set and clears its
	// suspicion history.
	Unblock(ctx context.Context, address string) (UnblockResult, error)

	// Profiles returns tracked behavior profiles, capped for the admin API.
	Profiles(ctx context.Context) ([]detectionDomain.UserBehaviorProfile, error)

	// UpdateConfig applies a partial configuration update and returns the
	// resulting status.
	UpdateConfig(ctx context.Context, update ConfigUpdate) (DetectionStatus, error)
}
