// Package domain defines the core cryptographic domain models for the
// encryption engine: managed symmetric keys with lifecycle roles, sealed
// payloads, and the process master key.
package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EncryptionKey represents a managed symmetric encryption key.
//
// Keys are created on startup and on rotation, and are never mutated after
// creation except for role/active transitions. Keys are never deleted:
// archived keys are retained indefinitely so data sealed under them remains
// decryptable.
type EncryptionKey struct {
	ID        uuid.UUID // Unique identifier (UUIDv7)
	Material  []byte    // 32-byte key material, never serialized
	Algorithm Algorithm // AEAD algorithm this key is used with
	Role      KeyRole   // primary, secondary, or archived
	Active    bool      // False once archived
	CreatedAt time.Time
	ExpiresAt time.Time // Past this instant the rotation scan archives the key
}

// Expired reports whether the key is past its expiration at the given instant.
func (k *EncryptionKey) Expired(now time.Time) bool {
	return now.After(k.ExpiresAt)
}

// KeyRing holds all managed keys with thread-safe access.
//
// Unlike the rest of the detection state, the ring is mutated from two
// goroutines (request handling and the rotation worker), so it carries its
// own lock rather than assuming a serializing runtime.
type KeyRing struct {
	mu        sync.RWMutex
	primaryID uuid.UUID
	keys      map[uuid.UUID]*EncryptionKey
}

// NewKeyRing creates an empty key ring.
func NewKeyRing() *KeyRing {
	return &KeyRing{
		keys: make(map[uuid.UUID]*EncryptionKey),
	}
}

// Primary returns the current primary key, or nil if the ring is empty.
func (r *KeyRing) Primary() *EncryptionKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keys[r.primaryID]
}

// Get retrieves a key by its UUID. Archived keys are returned like any other;
// callers needing the distinction check the Role field.
func (r *KeyRing) Get(id uuid.UUID) (*EncryptionKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.keys[id]
	return key, ok
}

// SetPrimary stores the key as the new primary and demotes the previous
// primary (if any) to secondary. This is the only path that changes roles
// upward, preserving the single-primary invariant.
func (r *KeyRing) SetPrimary(key *EncryptionKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.keys[r.primaryID]; ok && prev.Role == RolePrimary {
		prev.Role = RoleSecondary
	}

	key.Role = RolePrimary
	key.Active = true
	r.keys[key.ID] = key
	r.primaryID = key.ID
}

// Archive transitions a key to archived and marks it inactive.
// Archiving the primary leaves the ring without a primary; callers are
// expected to install a replacement immediately after.
func (r *KeyRing) Archive(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[id]
	if !ok {
		return
	}
	key.Role = RoleArchived
	key.Active = false
	if r.primaryID == id {
		r.primaryID = uuid.Nil
	}
}

// Snapshot returns a copy of all keys for iteration without holding the lock.
// The returned slice shares key pointers; callers must not mutate them.
func (r *KeyRing) Snapshot() []*EncryptionKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]*EncryptionKey, 0, len(r.keys))
	for _, key := range r.keys {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of keys in the ring.
func (r *KeyRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

// Close securely clears all key material from the ring.
func (r *KeyRing) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range r.keys {
		Zero(key.Material)
	}
	r.primaryID = uuid.Nil
	r.keys = make(map[uuid.UUID]*EncryptionKey)
}
