package service

import (
	"regexp"
	"strings"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
)

// Anomaly labels. The engine's type classification matches on these, so
// they are constants rather than free-form strings.
const (
	AnomalyUnusualHour      = "Unusual login time"
	AnomalyRapidRequests    = "Rapid API requests"
	AnomalyUnusualLocation  = "Unusual location"
	AnomalyUnusualUserAgent = "Unusual user agent"
	AnomalyAutomationUA     = "Automation pattern detected"
	AnomalyMaliciousPayload = "Malicious payload pattern"
	AnomalyOversizedRequest = "Oversized request"
)

// Signal weights. Fixed heuristics, not learned; contributions sum without
// a cap, so a multi-signal request can exceed 100.
const (
	weightUnusualHour      = 15
	weightRapidRequests    = 25
	weightUnusualLocation  = 20
	weightUnusualUserAgent = 10
	weightAutomationUA     = 30
	weightMaliciousPayload = 40
	weightOversizedRequest = 15
)

// loginHourTolerance is how far (in hours) from every recorded login hour
// the current hour must be before the unusual-hour signal fires.
const loginHourTolerance = 2

// maxContentLength is the oversized-request boundary (1 MiB).
const maxContentLength = 1 << 20

// automationPatterns is the case-insensitive UA substring denylist.
var automationPatterns = []string{
	"curl", "wget", "python", "java", "go-http", "bot", "crawler", "spider", "scan",
}

// payloadPatterns are the injection/traversal signatures checked against
// the request path and query.
var payloadPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)union[\s+]+select`),
	regexp.MustCompile(`(?i)select\s+.*\s+from`),
	regexp.MustCompile(`(?i)(drop|truncate)\s+table`),
	regexp.MustCompile(`(?i)insert\s+into`),
	regexp.MustCompile(`(?i)'\s*or\s+'?1'?\s*=\s*'?1`),
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on(error|load|click)\s*=`),
	regexp.MustCompile(`\.\./`),
	regexp.MustCompile(`(?i)%2e%2e%2f`),
	regexp.MustCompile(`(?i)/etc/(passwd|shadow)`),
	regexp.MustCompile(`(?i)(;|\|)\s*(cat|ls|rm|sh|bash)\b`),
}

// RiskScore is one scoring outcome.
type RiskScore struct {
	Score     int
	Anomalies []string
}

// RiskScorer combines per-request signal checks with the behavioral
// baseline from the profile store. Stateless apart from its collaborators;
// given identical signals and profile state the score is reproducible.
type RiskScorer struct {
	profiles *ProfileStore
	rates    *RateTracker
}

// NewRiskScorer creates a RiskScorer over the given stores.
func NewRiskScorer(profiles *ProfileStore, rates *RateTracker) *RiskScorer {
	return &RiskScorer{
		profiles: profiles,
		rates:    rates,
	}
}

// Score evaluates all signals against one request. The rapid-request check
// records the request in the rate tracker as a side effect; every other
// check is a pure read.
func (s *RiskScorer) Score(
	req *detectionDomain.RequestContext,
	cfg detectionDomain.DetectionConfig,
) RiskScore {
	var result RiskScore

	add := func(label string, weight int) {
		result.Anomalies = append(result.Anomalies, label)
		result.Score += weight
	}

	profile, hasProfile := s.lookupProfile(req)

	if hasProfile && len(profile.LoginHours) > 0 &&
		!profile.KnowsHour(req.Timestamp.Hour(), loginHourTolerance) {
		add(AnomalyUnusualHour, weightUnusualHour)
	}

	if s.rates.Observe(req.SourceAddress) > cfg.RapidRequestLimit() {
		add(AnomalyRapidRequests, weightRapidRequests)
	}

	if cfg.GeoAnomalyDetection && hasProfile && len(profile.KnownLocations) > 0 &&
		!profile.KnowsLocation(req.Location()) {
		add(AnomalyUnusualLocation, weightUnusualLocation)
	}

	if hasProfile && len(profile.UserAgents) > 0 &&
		!profile.KnowsUserAgent(req.UserAgentToken()) {
		add(AnomalyUnusualUserAgent, weightUnusualUserAgent)
	}

	if matchesAutomation(req.UserAgent) {
		add(AnomalyAutomationUA, weightAutomationUA)
	}

	if matchesPayload(req.Path) {
		add(AnomalyMaliciousPayload, weightMaliciousPayload)
	}

	if req.ContentLength > maxContentLength {
		add(AnomalyOversizedRequest, weightOversizedRequest)
	}

	return result
}

func (s *RiskScorer) lookupProfile(
	req *detectionDomain.RequestContext,
) (detectionDomain.UserBehaviorProfile, bool) {
	if !req.Authenticated() {
		return detectionDomain.UserBehaviorProfile{}, false
	}
	return s.profiles.Get(req.UserID)
}

func matchesAutomation(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, pattern := range automationPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}

func matchesPayload(path string) bool {
	for _, pattern := range payloadPatterns {
		if pattern.MatchString(path) {
			return true
		}
	}
	return false
}
