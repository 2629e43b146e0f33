package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
)

// EventSink receives events for durable storage. Sink failures are logged
// and swallowed: detection must keep working when the database does not.
type EventSink interface {
	Store(ctx context.Context, event *detectionDomain.IntrusionEvent) error
}

// Statistics is the counters snapshot exposed by the status endpoint.
type Statistics struct {
	TotalEvents      int            `json:"total_events"`
	EventsBySeverity map[string]int `json:"events_by_severity"`
	BlockedAddresses int            `json:"blocked_addresses"`
	TrackedProfiles  int            `json:"tracked_profiles"`
}

// Engine orchestrates one request analysis: blocked-address short-circuit,
// risk scoring, profile learning, event creation, and the blocking
// decision. It returns the decision bundle; acting on it (rejecting the
// request) is the caller's job.
type Engine struct {
	scorer   *RiskScorer
	profiles *ProfileStore
	eventLog *EventLog
	sink     EventSink // optional
	logger   *slog.Logger

	cfgMu sync.RWMutex
	cfg   detectionDomain.DetectionConfig

	now func() time.Time
}

// NewEngine creates a detection engine. sink may be nil when no durable
// event store is configured.
func NewEngine(
	scorer *RiskScorer,
	profiles *ProfileStore,
	eventLog *EventLog,
	sink EventSink,
	cfg detectionDomain.DetectionConfig,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		scorer:   scorer,
		profiles: profiles,
		eventLog: eventLog,
		sink:     sink,
		logger:   logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AnalyzeRequest scores one request and returns the decision bundle.
//
// Already-blocked addresses short-circuit: no scoring runs and no new
// event is created, so a known-bad source cannot pollute profiles or the
// event log further.
func (e *Engine) AnalyzeRequest(
	ctx context.Context,
	req *detectionDomain.RequestContext,
) detectionDomain.AnalysisResult {
	if req.Timestamp.IsZero() {
		req.Timestamp = e.now()
	}

	if e.eventLog.IsBlocked(req.SourceAddress) {
		return detectionDomain.AnalysisResult{
			IsIntrusion: true,
			Events:      []*detectionDomain.IntrusionEvent{},
			ShouldBlock: true,
		}
	}

	cfg := e.Config()
	score := e.scorer.Score(req, cfg)
	anomalous := len(score.Anomalies) > 0

	e.learn(req, cfg, anomalous)

	result := detectionDomain.AnalysisResult{
		Events: []*detectionDomain.IntrusionEvent{},
	}

	if anomalous && score.Score >= cfg.ReportingThreshold {
		event := detectionDomain.NewIntrusionEvent(
			classify(score.Anomalies), score.Score, req, score.Anomalies,
		)
		e.eventLog.Record(event, cfg)

		e.logger.WarnContext(ctx, "intrusion event recorded",
			slog.String("event_id", event.ID.String()),
			slog.String("type", string(event.Type)),
			slog.String("severity", string(event.Severity)),
			slog.Int("score", event.SuspiciousScore),
			slog.String("source_address", event.SourceAddress),
			slog.String("endpoint", event.Endpoint),
			slog.Bool("blocked", event.Blocked),
			slog.String("anomalies", strings.Join(event.Anomalies, "; ")),
		)

		if e.sink != nil {
			if err := e.sink.Store(ctx, event); err != nil {
				e.logger.ErrorContext(ctx, "failed to persist intrusion event",
					slog.String("event_id", event.ID.String()),
					slog.String("error", err.Error()),
				)
			}
		}

		result.IsIntrusion = true
		result.Events = append(result.Events, event)
		result.ShouldBlock = event.Blocked
	}

	return result
}

// learn folds the request into the user's profile per the learning mode.
func (e *Engine) learn(
	req *detectionDomain.RequestContext,
	cfg detectionDomain.DetectionConfig,
	anomalous bool,
) {
	if !req.Authenticated() {
		return
	}
	if cfg.ProfileLearning == detectionDomain.LearningTrustedOnly && anomalous {
		return
	}
	e.profiles.Observe(req, anomalous)
}

// Config returns a copy of the current detection configuration.
func (e *Engine) Config() detectionDomain.DetectionConfig {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.cfg
}

// UpdateConfig applies a mutation to the configuration under the config
// lock. Validation happens upstream; the mutation sees the current values.
func (e *Engine) UpdateConfig(apply func(cfg *detectionDomain.DetectionConfig)) {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()
	apply(&e.cfg)
}

// Statistics returns the counters snapshot for the status endpoint.
func (e *Engine) Statistics() Statistics {
	events := e.eventLog.Events(detectionDomain.EventFilter{})

	bySeverity := make(map[string]int)
	for _, event := range events {
		bySeverity[string(event.Severity)]++
	}

	return Statistics{
		TotalEvents:      len(events),
		EventsBySeverity: bySeverity,
		BlockedAddresses: len(e.eventLog.Blocked()),
		TrackedProfiles:  e.profiles.Len(),
	}
}

// EventLog exposes the underlying event log for admin operations.
func (e *Engine) EventLog() *EventLog {
	return e.eventLog
}

// Profiles exposes the underlying profile store for admin operations.
func (e *Engine) Profiles() *ProfileStore {
	return e.profiles
}

// classify picks the intrusion type from which anomaly categories fired,
// in priority order: rapid, geolocation, user-agent, payload, login time,
// then bot behavior as the default.
func classify(anomalies []string) detectionDomain.IntrusionType {
	fired := make(map[string]bool, len(anomalies))
	for _, a := range anomalies {
		fired[a] = true
	}

	switch {
	case fired[AnomalyRapidRequests]:
		return detectionDomain.RapidAPIRequests
	case fired[AnomalyUnusualLocation]:
		return detectionDomain.GeolocationAnomaly
	case fired[AnomalyUnusualUserAgent]:
		return detectionDomain.UserAgentAnomaly
	case fired[AnomalyMaliciousPayload]:
		return detectionDomain.EndpointScanning
	case fired[AnomalyUnusualHour]:
		return detectionDomain.UnusualLoginPattern
	default:
		return detectionDomain.BotBehavior
	}
}
