package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
)

func authRequest(userID, addr string) *detectionDomain.RequestContext {
	return &detectionDomain.RequestContext{
		SourceAddress: addr,
		Method:        "GET",
		Path:          "/api/orders",
		UserAgent:     "Mozilla/5.0 (X11)",
		UserID:        userID,
		Username:      "user-" + userID,
		Timestamp:     time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
	}
}

func TestProfileStore_Observe(t *testing.T) {
	t.Run("creates profile lazily", func(t *testing.T) {
		store := NewProfileStore()
		_, ok := store.Get("u1")
		assert.False(t, ok)

		store.Observe(authRequest("u1", "10.1.2.3"), false)

		profile, ok := store.Get("u1")
		require.True(t, ok)
		assert.Equal(t, "u1", profile.UserID)
		assert.Equal(t, []int{9}, profile.LoginHours)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("ignores unauthenticated requests", func(t *testing.T) {
		store := NewProfileStore()
		req := authRequest("", "10.1.2.3")
		store.Observe(req, false)

		assert.Equal(t, 0, store.Len())
	})

	t.Run("returned profile is a copy", func(t *testing.T) {
		store := NewProfileStore()
		store.Observe(authRequest("u1", "10.1.2.3"), false)

		profile, _ := store.Get("u1")
		profile.LoginHours[0] = 23
		profile.Endpoints["/mutated"] = true

		fresh, _ := store.Get("u1")
		assert.Equal(t, []int{9}, fresh.LoginHours)
		assert.NotContains(t, fresh.Endpoints, "/mutated")
	})
}

func TestProfileStore_Profiles(t *testing.T) {
	store := NewProfileStore()
	for i := 0; i < 5; i++ {
		store.Observe(authRequest(fmt.Sprintf("u%d", i), "10.1.2.3"), false)
	}

	t.Run("ordered by user id", func(t *testing.T) {
		profiles := store.Profiles(0)
		require.Len(t, profiles, 5)
		assert.Equal(t, "u0", profiles[0].UserID)
		assert.Equal(t, "u4", profiles[4].UserID)
	})

	t.Run("limit caps the listing", func(t *testing.T) {
		profiles := store.Profiles(2)
		require.Len(t, profiles, 2)
		assert.Equal(t, "u0", profiles[0].UserID)
	})
}
