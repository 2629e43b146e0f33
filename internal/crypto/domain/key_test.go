package domain

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) *EncryptionKey {
	t.Helper()

	material := make([]byte, KeySize)
	_, err := rand.Read(material)
	require.NoError(t, err)

	now := time.Now().UTC()
	return &EncryptionKey{
		ID:        uuid.Must(uuid.NewV7()),
		Material:  material,
		Algorithm: AESGCM,
		Role:      RolePrimary,
		Active:    true,
		CreatedAt: now,
		ExpiresAt: now.Add(168 * time.Hour),
	}
}

func countByRole(ring *KeyRing, role KeyRole) int {
	count := 0
	for _, key := range ring.Snapshot() {
		if key.Role == role {
			count++
		}
	}
	return count
}

func TestKeyRing_SetPrimary(t *testing.T) {
	t.Run("first key becomes primary", func(t *testing.T) {
		ring := NewKeyRing()
		key := newTestKey(t)

		ring.SetPrimary(key)

		assert.Equal(t, key, ring.Primary())
		assert.Equal(t, RolePrimary, key.Role)
	})

	t.Run("previous primary demoted to secondary", func(t *testing.T) {
		ring := NewKeyRing()
		first := newTestKey(t)
		second := newTestKey(t)

		ring.SetPrimary(first)
		ring.SetPrimary(second)

		assert.Equal(t, second, ring.Primary())
		assert.Equal(t, RoleSecondary, first.Role)
		assert.Equal(t, 1, countByRole(ring, RolePrimary))
	})

	t.Run("exactly one primary after any sequence", func(t *testing.T) {
		ring := NewKeyRing()
		for i := 0; i < 10; i++ {
			ring.SetPrimary(newTestKey(t))
		}

		assert.Equal(t, 1, countByRole(ring, RolePrimary))
		assert.Equal(t, 10, ring.Len())
	})
}

func TestKeyRing_Archive(t *testing.T) {
	t.Run("archived key stays retrievable", func(t *testing.T) {
		ring := NewKeyRing()
		key := newTestKey(t)
		ring.SetPrimary(key)

		ring.Archive(key.ID)

		got, ok := ring.Get(key.ID)
		require.True(t, ok)
		assert.Equal(t, RoleArchived, got.Role)
		assert.False(t, got.Active)
	})

	t.Run("archiving primary clears the primary slot", func(t *testing.T) {
		ring := NewKeyRing()
		key := newTestKey(t)
		ring.SetPrimary(key)

		ring.Archive(key.ID)

		assert.Nil(t, ring.Primary())
	})

	t.Run("archiving unknown id is a no-op", func(t *testing.T) {
		ring := NewKeyRing()
		ring.Archive(uuid.Must(uuid.NewV7()))
		assert.Equal(t, 0, ring.Len())
	})
}

func TestKeyRing_Close(t *testing.T) {
	ring := NewKeyRing()
	key := newTestKey(t)
	material := key.Material
	ring.SetPrimary(key)

	ring.Close()

	assert.Equal(t, 0, ring.Len())
	for _, b := range material {
		assert.Equal(t, byte(0), b)
	}
}

func TestEncryptionKey_Expired(t *testing.T) {
	key := newTestKey(t)

	assert.False(t, key.Expired(key.ExpiresAt.Add(-time.Minute)))
	assert.True(t, key.Expired(key.ExpiresAt.Add(time.Minute)))
}
