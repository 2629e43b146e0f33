package service

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/fieldsrv/guardpost/internal/crypto/domain"
)

// initialKeyInfo is the HKDF info string for deriving the first data key
// from the master key. Versioned so the derivation can change without
// breaking existing deployments.
const initialKeyInfo = "guardpost-data-key-v1"

// KeyManagerService implements the KeyManager interface.
//
// It owns the key ring and enforces the single-primary invariant: every
// lifecycle operation that installs a key goes through the ring's
// SetPrimary, which demotes the previous primary in the same critical
// section. The initial primary is derived from the master key with
// HKDF-SHA256, so two processes booted with the same master key can open
// each other's payloads; rotation keys are random.
type KeyManagerService struct {
	aeadManager    AEADManager
	ring           *cryptoDomain.KeyRing
	masterKey      *cryptoDomain.MasterKey
	algorithm      cryptoDomain.Algorithm
	rotationPeriod time.Duration

	signingPub  ed25519.PublicKey
	signingPriv ed25519.PrivateKey

	// mu serializes lifecycle operations (initialize, generate, rotate) so
	// concurrent callers cannot install two primaries back to back for one
	// logical event. Ring reads take the ring's own lock.
	mu  sync.Mutex
	now func() time.Time
}

// NewKeyManager creates a new KeyManagerService.
//
// The master key must already be loaded or generated; rotationPeriod
// controls how long each key stays primary before the rotation scan
// archives it.
func NewKeyManager(
	aeadManager AEADManager,
	masterKey *cryptoDomain.MasterKey,
	alg cryptoDomain.Algorithm,
	rotationPeriod time.Duration,
) *KeyManagerService {
	return &KeyManagerService{
		aeadManager:    aeadManager,
		ring:           cryptoDomain.NewKeyRing(),
		masterKey:      masterKey,
		algorithm:      alg,
		rotationPeriod: rotationPeriod,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Initialize derives the initial primary key from the master key and
// generates the Ed25519 signing keypair.
//
// Calling Initialize on an already initialized manager is an error, not a
// reset: the ring may already hold keys that data depends on.
func (km *KeyManagerService) Initialize() error {
	km.mu.Lock()
	defer km.mu.Unlock()

	if km.ring.Len() > 0 {
		return fmt.Errorf("key manager already initialized")
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate signing keypair: %w", err)
	}
	km.signingPub = pub
	km.signingPriv = priv

	material, err := deriveKey(km.masterKey.Key, initialKeyInfo)
	if err != nil {
		return fmt.Errorf("failed to derive initial key: %w", err)
	}

	km.installPrimary(material)
	return nil
}

// GenerateNewKey creates a fresh random key and installs it as the new
// primary. The previous primary is demoted to secondary and remains
// usable for decryption.
func (km *KeyManagerService) GenerateNewKey() (*cryptoDomain.EncryptionKey, error) {
	km.mu.Lock()
	defer km.mu.Unlock()
	return km.generateNewKeyLocked()
}

func (km *KeyManagerService) generateNewKeyLocked() (*cryptoDomain.EncryptionKey, error) {
	material := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("failed to generate key material: %w", err)
	}
	return km.installPrimary(material), nil
}

// installPrimary builds an EncryptionKey around material and makes it the
// ring's primary. Callers must hold mu.
func (km *KeyManagerService) installPrimary(material []byte) *cryptoDomain.EncryptionKey {
	now := km.now()
	key := &cryptoDomain.EncryptionKey{
		ID:        uuid.Must(uuid.NewV7()),
		Material:  material,
		Algorithm: km.algorithm,
		CreatedAt: now,
		ExpiresAt: now.Add(km.rotationPeriod),
	}
	km.ring.SetPrimary(key)
	return key
}

// ActiveKey returns the current primary key. If the ring has no usable
// primary (never initialized, or the primary was archived out from under
// us), a fresh key is generated lazily.
func (km *KeyManagerService) ActiveKey() (*cryptoDomain.EncryptionKey, error) {
	if key := km.ring.Primary(); key != nil && key.Active {
		return key, nil
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	// Re-check under the lifecycle lock: another caller may have already
	// installed a replacement.
	if key := km.ring.Primary(); key != nil && key.Active {
		return key, nil
	}
	return km.generateNewKeyLocked()
}

// Key retrieves a key by ID. Archived keys are returned like any other so
// old payloads stay decryptable. Returns ErrKeyNotFound for IDs the ring
// never held.
func (km *KeyManagerService) Key(id uuid.UUID) (*cryptoDomain.EncryptionKey, error) {
	key, ok := km.ring.Get(id)
	if !ok {
		return nil, cryptoDomain.ErrKeyNotFound
	}
	return key, nil
}

// RotateKeys archives every expired key and, when at least one key was
// archived, installs a new primary.
//
// When nothing has expired the ring is left untouched and NewKeyID is
// uuid.Nil, so a scheduler can call this on a short check interval without
// churning keys: the rotation period, not the check interval, decides when
// a new primary is minted.
func (km *KeyManagerService) RotateKeys() (RotationResult, error) {
	km.mu.Lock()
	defer km.mu.Unlock()

	now := km.now()
	var archived []uuid.UUID
	for _, key := range km.ring.Snapshot() {
		if key.Role == cryptoDomain.RoleArchived {
			continue
		}
		if key.Expired(now) {
			km.ring.Archive(key.ID)
			archived = append(archived, key.ID)
		}
	}

	if len(archived) == 0 {
		return RotationResult{}, nil
	}

	newKey, err := km.generateNewKeyLocked()
	if err != nil {
		return RotationResult{}, err
	}

	return RotationResult{NewKeyID: newKey.ID, Archived: archived}, nil
}

// Keys returns a snapshot of all keys in the ring.
func (km *KeyManagerService) Keys() []*cryptoDomain.EncryptionKey {
	return km.ring.Snapshot()
}

// SigningPublicKey returns the public half of the signing keypair, or nil
// before Initialize.
func (km *KeyManagerService) SigningPublicKey() ed25519.PublicKey {
	return km.signingPub
}

// MasterKeyGenerated reports whether the master key was generated at
// startup rather than loaded from configuration.
func (km *KeyManagerService) MasterKeyGenerated() bool {
	return km.masterKey.Generated
}

// Close clears all key material, the master key, and the signing private
// key from memory.
func (km *KeyManagerService) Close() {
	km.mu.Lock()
	defer km.mu.Unlock()

	km.ring.Close()
	km.masterKey.Close()
	cryptoDomain.Zero(km.signingPriv)
	km.signingPriv = nil
}

// deriveKey derives a 32-byte key from source material with HKDF-SHA256.
// The info string separates key usages so the same master key can back
// multiple derivations without overlap.
func deriveKey(source []byte, info string) ([]byte, error) {
	reader := hkdf.New(sha256.New, source, nil, []byte(info))

	key := make([]byte, cryptoDomain.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}
