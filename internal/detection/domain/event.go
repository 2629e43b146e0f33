package domain

import (
	"time"

	"github.com/google/uuid"
)

// IntrusionEvent records one scoring decision that crossed the reporting
// threshold. Immutable after creation except the Resolved flag, which an
// operator flips through the admin API.
type IntrusionEvent struct {
	ID              uuid.UUID     `json:"id"`
	Type            IntrusionType `json:"type"`
	Severity        Severity      `json:"severity"`
	SuspiciousScore int           `json:"suspicious_score"`
	SourceAddress   string        `json:"source_address"`
	UserAgent       string        `json:"user_agent"`
	UserID          string        `json:"user_id,omitempty"`
	Endpoint        string        `json:"endpoint"`
	Method          string        `json:"method"`
	Location        string        `json:"location"`
	Anomalies       []string      `json:"anomalies"`
	Blocked         bool          `json:"blocked"`
	Resolved        bool          `json:"resolved"`
	Timestamp       time.Time     `json:"timestamp"`
}

// NewIntrusionEvent creates an event from a scored request. Severity is
// derived from the score; the Blocked flag is set by the event log when
// the blocking policy fires.
func NewIntrusionEvent(
	typ IntrusionType,
	score int,
	req *RequestContext,
	anomalies []string,
) *IntrusionEvent {
	return &IntrusionEvent{
		ID:              uuid.Must(uuid.NewV7()),
		Type:            typ,
		Severity:        SeverityForScore(score),
		SuspiciousScore: score,
		SourceAddress:   req.SourceAddress,
		UserAgent:       req.UserAgent,
		UserID:          req.UserID,
		Endpoint:        req.Path,
		Method:          req.Method,
		Location:        req.Location(),
		Anomalies:       anomalies,
		Timestamp:       req.Timestamp,
	}
}

// EventFilter narrows event listings. Zero-valued fields do not filter.
type EventFilter struct {
	Severity Severity
	Type     IntrusionType
	Resolved *bool
	Since    time.Time
	Limit    int
}

// Matches reports whether the event passes every set filter field.
func (f *EventFilter) Matches(e *IntrusionEvent) bool {
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Resolved != nil && e.Resolved != *f.Resolved {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// AnalysisResult is the decision bundle returned to the caller for one
// analyzed request. The caller is responsible for acting on ShouldBlock;
// the engine itself never terminates requests.
type AnalysisResult struct {
	IsIntrusion bool              `json:"is_intrusion"`
	Events      []*IntrusionEvent `json:"events"`
	ShouldBlock bool              `json:"should_block"`
}
