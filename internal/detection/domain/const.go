// Package domain defines the core models of the intrusion detection
// engine: scored events, per-user behavior profiles, request context, and
// the runtime detection configuration.
package domain

// IntrusionType classifies what kind of suspicious activity an event records.
type IntrusionType string

const (
	RapidAPIRequests    IntrusionType = "RAPID_API_REQUESTS"
	GeolocationAnomaly  IntrusionType = "GEOLOCATION_ANOMALY"
	UserAgentAnomaly    IntrusionType = "USER_AGENT_ANOMALY"
	EndpointScanning    IntrusionType = "ENDPOINT_SCANNING"
	UnusualLoginPattern IntrusionType = "UNUSUAL_LOGIN_PATTERN"
	BotBehavior         IntrusionType = "BOT_BEHAVIOR"
	SQLInjectionAttempt IntrusionType = "SQL_INJECTION_ATTEMPT"
	XSSAttempt          IntrusionType = "XSS_ATTEMPT"
	PathTraversal       IntrusionType = "PATH_TRAVERSAL"
	BruteForceLogin     IntrusionType = "BRUTE_FORCE_LOGIN"
	DataExfiltration    IntrusionType = "DATA_EXFILTRATION"
	PrivilegeEscalation IntrusionType = "PRIVILEGE_ESCALATION"
)

// IntrusionTypes lists all valid intrusion types, used for filter validation.
var IntrusionTypes = []IntrusionType{
	RapidAPIRequests,
	GeolocationAnomaly,
	UserAgentAnomaly,
	EndpointScanning,
	UnusualLoginPattern,
	BotBehavior,
	SQLInjectionAttempt,
	XSSAttempt,
	PathTraversal,
	BruteForceLogin,
	DataExfiltration,
	PrivilegeEscalation,
}

// ValidIntrusionType reports whether s names a known intrusion type.
func ValidIntrusionType(s string) bool {
	for _, t := range IntrusionTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Severity buckets a suspicious score into an operator-facing tier.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Severity bucketing boundaries. These are independent of the configurable
// reporting threshold: with the default reporting floor of 75 only HIGH and
// CRITICAL events are reachable, while a lower floor makes MEDIUM and LOW
// observable.
const (
	mediumScore   = 30
	highScore     = 60
	criticalScore = 80
)

// SeverityForScore buckets a suspicious score: ≥80 CRITICAL, ≥60 HIGH,
// ≥30 MEDIUM, else LOW.
func SeverityForScore(score int) Severity {
	switch {
	case score >= criticalScore:
		return SeverityCritical
	case score >= highScore:
		return SeverityHigh
	case score >= mediumScore:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// ValidSeverity reports whether s names a known severity tier.
func ValidSeverity(s string) bool {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// LearningMode controls when authenticated requests are folded into the
// behavior profile.
type LearningMode string

const (
	// LearningAlways updates the profile on every authenticated request,
	// anomalous or not. This matches the historical behavior and carries a
	// known profile-poisoning weakness: a sustained attack eventually
	// teaches the profile to accept itself.
	LearningAlways LearningMode = "always"

	// LearningTrustedOnly updates the profile only from requests that
	// produced no anomalies.
	LearningTrustedOnly LearningMode = "trusted-only"
)

// ParseLearningMode converts a string to a LearningMode.
func ParseLearningMode(s string) (LearningMode, error) {
	switch LearningMode(s) {
	case LearningAlways:
		return LearningAlways, nil
	case LearningTrustedOnly:
		return LearningTrustedOnly, nil
	default:
		return "", ErrInvalidLearningMode
	}
}
