package dto

import (
	"sort"
	"time"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
)

// ListIntrusionEventsResponse represents a list of intrusion events in API responses.
type ListIntrusionEventsResponse struct {
	Data []*detectionDomain.IntrusionEvent `json:"data"`
}

// MapEventsToListResponse converts a slice of events to a list response.
func MapEventsToListResponse(events []*detectionDomain.IntrusionEvent) ListIntrusionEventsResponse {
	if events == nil {
		events = []*detectionDomain.IntrusionEvent{}
	}
	return ListIntrusionEventsResponse{Data: events}
}

// ResolveEventResponse confirms an event resolution.
type ResolveEventResponse struct {
	ID       string `json:"id"`
	Resolved bool   `json:"resolved"`
}

// BehaviorProfileResponse represents a user behavior profile in API responses.
type BehaviorProfileResponse struct {
	UserID         string    `json:"user_id"`
	Username       string    `json:"username"`
	LoginHours     []int     `json:"login_hours"`
	KnownLocations []string  `json:"known_locations"`
	UserAgents     []string  `json:"user_agents"`
	Endpoints      []string  `json:"endpoints"`
	TrustScore     int       `json:"trust_score"`
	CreatedAt      time.Time `json:"created_at"`
	LastUpdated    time.Time `json:"last_updated"`
}

// MapProfileToResponse converts a domain behavior profile to an API response.
func MapProfileToResponse(profile detectionDomain.UserBehaviorProfile) BehaviorProfileResponse {
	endpoints := make([]string, 0, len(profile.Endpoints))
	for endpoint := range profile.Endpoints {
		endpoints = append(endpoints, endpoint)
	}
	sort.Strings(endpoints)

	return BehaviorProfileResponse{
		UserID:         profile.UserID,
		Username:       profile.Username,
		LoginHours:     profile.LoginHours,
		KnownLocations: profile.KnownLocations,
		UserAgents:     profile.UserAgents,
		Endpoints:      endpoints,
		TrustScore:     profile.TrustScore,
		CreatedAt:      profile.CreatedAt,
		LastUpdated:    profile.LastUpdated,
	}
}

// ListBehaviorProfilesResponse represents a list of behavior profiles in API responses.
type ListBehaviorProfilesResponse struct {
	Data []BehaviorProfileResponse `json:"data"`
}

// MapProfilesToListResponse converts a slice of domain profiles to a list response.
func MapProfilesToListResponse(
	profiles []detectionDomain.UserBehaviorProfile,
) ListBehaviorProfilesResponse {
	data := make([]BehaviorProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		data = append(data, MapProfileToResponse(profile))
	}

	return ListBehaviorProfilesResponse{Data: data}
}
