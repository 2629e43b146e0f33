package service

import (
	"sort"
	"sync"
	"time"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
)

// ProfileStore holds the per-user behavior profiles. Profiles are created
// lazily on a user's first authenticated request and mutated only through
// Observe, under the store's lock.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*detectionDomain.UserBehaviorProfile
	now      func() time.Time
}

// NewProfileStore creates an empty ProfileStore.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]*detectionDomain.UserBehaviorProfile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a copy of the user's profile, or false if none exists yet.
// A copy keeps scoring reads from racing profile updates.
func (s *ProfileStore) Get(userID string) (detectionDomain.UserBehaviorProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return detectionDomain.UserBehaviorProfile{}, false
	}
	return copyProfile(profile), true
}

// Observe folds an authenticated request into the user's profile, creating
// it on first sight.
func (s *ProfileStore) Observe(req *detectionDomain.RequestContext, anomalous bool) {
	if !req.Authenticated() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[req.UserID]
	if !ok {
		profile = detectionDomain.NewUserBehaviorProfile(req.UserID, req.Username, s.now())
		s.profiles[req.UserID] = profile
	}
	profile.Observe(req, anomalous)
}

// Profiles returns copies of up to limit profiles, ordered by user ID for
// a stable listing.
func (s *ProfileStore) Profiles(limit int) []detectionDomain.UserBehaviorProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]detectionDomain.UserBehaviorProfile, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyProfile(s.profiles[id]))
	}
	return out
}

// Len returns the number of tracked profiles.
func (s *ProfileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

func copyProfile(p *detectionDomain.UserBehaviorProfile) detectionDomain.UserBehaviorProfile {
	out := *p
	out.LoginHours = append([]int(nil), p.LoginHours...)
	out.KnownLocations = append([]string(nil), p.KnownLocations...)
	out.UserAgents = append([]string(nil), p.UserAgents...)
	out.Endpoints = make(map[string]bool, len(p.Endpoints))
	for k, v := range p.Endpoints {
		out.Endpoints[k] = v
	}
	return out
}
