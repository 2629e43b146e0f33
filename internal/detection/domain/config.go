package domain

import (
	"time"
)

// DetectionConfig is the runtime-tunable configuration of the detection
// engine. A copy lives behind the engine's lock; admin updates replace
// fields individually after per-field validation.
type DetectionConfig struct {
	// Sensitivity 1..10 scales the rapid-request bucket limit: higher
	// sensitivity tolerates fewer requests per minute before the rapid
	// signal fires.
	Sensitivity int

	// ReportingThreshold is the minimum score for an event to be recorded.
	ReportingThreshold int

	// BlockingThreshold is the minimum score for automatic blocking, the
	// admin API's max_suspicious_score knob.
	BlockingThreshold int

	// AutomaticBlocking enables synchronous blocking at event creation.
	AutomaticBlocking bool

	// GeoAnomalyDetection toggles the location-based signal.
	GeoAnomalyDetection bool

	// ProfileLearning selects when requests are folded into profiles.
	ProfileLearning LearningMode

	// EventLogCapacity bounds the in-memory event log.
	EventLogCapacity int

	// SuspicionHalfLife is the decay half-life of the per-address
	// suspicion accumulator.
	SuspicionHalfLife time.Duration
}

// DefaultDetectionConfig returns the compiled-in defaults.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		Sensitivity:         5,
		ReportingThreshold:  75,
		BlockingThreshold:   85,
		AutomaticBlocking:   true,
		GeoAnomalyDetection: true,
		ProfileLearning:     LearningAlways,
		EventLogCapacity:    10000,
		SuspicionHalfLife:   24 * time.Hour,
	}
}

// RapidRequestLimit is the per-minute request limit above which the rapid
// signal fires. At the default sensitivity of 5 this is the historical
// limit of 20; each sensitivity step moves it by 2, floored at 4.
func (c *DetectionConfig) RapidRequestLimit() int {
	limit := 20 - (c.Sensitivity-5)*2
	if limit < 4 {
		limit = 4
	}
	return limit
}
