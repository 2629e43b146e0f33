package domain

import (
	"time"
)

// Profile bounds.
const (
	maxLoginHours = 10
	maxUserAgents = 5

	trustInitial        = 50
	trustCleanReward    = 1
	trustAnomalyPenalty = 5
)

// UserBehaviorProfile is the rolling per-user baseline anomaly checks
// compare against. Created lazily on a user's first authenticated request
// and updated on every one after that, within the truncation bounds below.
//
// Profiles are not safe for concurrent mutation on their own; the profile
// store serializes access.
type UserBehaviorProfile struct {
	UserID         string
	Username       string
	LoginHours     []int    // Distinct hours 0..23, most recent last, capped at 10
	KnownLocations []string // Distinct location buckets, unbounded
	UserAgents     []string // Leading UA tokens, most recent last, capped at 5
	Endpoints      map[string]bool
	TrustScore     int // 0..100, starts at 50
	CreatedAt      time.Time
	LastUpdated    time.Time
}

// NewUserBehaviorProfile creates a profile for a user's first observed request.
func NewUserBehaviorProfile(userID, username string, now time.Time) *UserBehaviorProfile {
	return &UserBehaviorProfile{
		UserID:      userID,
		Username:    username,
		Endpoints:   make(map[string]bool),
		TrustScore:  trustInitial,
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// Observe folds one authenticated request into the profile. anomalous
// adjusts the trust score: clean requests earn trust slowly, anomalous
// ones lose it faster.
func (p *UserBehaviorProfile) Observe(req *RequestContext, anomalous bool) {
	p.observeLoginHour(req.Timestamp.Hour())
	p.observeLocation(req.Location())
	p.observeUserAgent(req.UserAgentToken())
	p.Endpoints[req.Path] = true

	if anomalous {
		p.TrustScore -= trustAnomalyPenalty
	} else {
		p.TrustScore += trustCleanReward
	}
	p.TrustScore = clamp(p.TrustScore, 0, 100)

	p.LastUpdated = req.Timestamp
}

// KnowsHour reports whether hour is within tolerance of any recorded login
// hour. Distance is the plain absolute difference, without midnight
// wraparound.
func (p *UserBehaviorProfile) KnowsHour(hour, tolerance int) bool {
	for _, h := range p.LoginHours {
		if abs(h-hour) <= tolerance {
			return true
		}
	}
	return false
}

// KnowsLocation reports whether the location bucket has been seen before.
func (p *UserBehaviorProfile) KnowsLocation(location string) bool {
	for _, l := range p.KnownLocations {
		if l == location {
			return true
		}
	}
	return false
}

// KnowsUserAgent reports whether the UA token has been seen before.
func (p *UserBehaviorProfile) KnowsUserAgent(token string) bool {
	for _, ua := range p.UserAgents {
		if ua == token {
			return true
		}
	}
	return false
}

func (p *UserBehaviorProfile) observeLoginHour(hour int) {
	for _, h := range p.LoginHours {
		if h == hour {
			return
		}
	}
	p.LoginHours = append(p.LoginHours, hour)
	if len(p.LoginHours) > maxLoginHours {
		p.LoginHours = p.LoginHours[len(p.LoginHours)-maxLoginHours:]
	}
}

func (p *UserBehaviorProfile) observeLocation(location string) {
	if p.KnowsLocation(location) {
		return
	}
	p.KnownLocations = append(p.KnownLocations, location)
}

func (p *UserBehaviorProfile) observeUserAgent(token string) {
	if token == "" || p.KnowsUserAgent(token) {
		return
	}
	p.UserAgents = append(p.UserAgents, token)
	if len(p.UserAgents) > maxUserAgents {
		p.UserAgents = p.UserAgents[len(p.UserAgents)-maxUserAgents:]
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
