// Package service provides the cryptographic services of the encryption
// engine: AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305), the managed key
// lifecycle, payload sealing, record field encryption, and PII masking.
package service

import (
	"context"
	"crypto/ed25519"

	"github.com/google/uuid"

	cryptoDomain "github.com/fieldsrv/guardpost/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// RotationResult summarizes one key rotation pass.
type RotationResult struct {
	NewKeyID uuid.UUID   // The freshly installed primary; uuid.Nil when nothing expired
	Archived []uuid.UUID // Keys archived during the expiry scan
}

// Rotated reports whether the pass archived anything and minted a new
// primary.
func (r RotationResult) Rotated() bool {
	return r.NewKeyID != uuid.Nil
}

// KeyManager defines the interface for the managed key lifecycle.
//
// Implementations maintain a key ring with exactly one primary key at any
// time. Rotated-out keys stay in the ring for decryption; they are never
// discarded.
type KeyManager interface {
	// Initialize prepares the key hierarchy: derives the initial primary
	// key from the master key and generates the signing keypair.
	Initialize() error

	// GenerateNewKey creates a fresh random key and installs it as the new
	// primary, demoting the previous primary to secondary.
	GenerateNewKey() (*cryptoDomain.EncryptionKey, error)

	// ActiveKey returns the current primary key, generating one lazily if
	// the ring has no usable primary.
	ActiveKey() (*cryptoDomain.EncryptionKey, error)

	// Key retrieves a key by ID. Archived keys are returned like any other.
	// Returns ErrKeyNotFound for unknown IDs.
	Key(id uuid.UUID) (*cryptoDomain.EncryptionKey, error)

	// RotateKeys archives all expired keys and, when any key was archived,
	// installs a new primary. A pass with nothing expired is a no-op.
	RotateKeys() (RotationResult, error)

	// Keys returns a snapshot of all keys in the ring.
	Keys() []*cryptoDomain.EncryptionKey

	// SigningPublicKey returns the public half of the signing keypair
	// generated at initialization.
	SigningPublicKey() ed25519.PublicKey

	// MasterKeyGenerated reports whether the master key was generated at
	// startup rather than loaded from configuration.
	MasterKeyGenerated() bool

	// Close clears all key material from memory.
	Close()
}

// Encryptor defines the interface for sealing and opening payloads with
// managed keys.
type Encryptor interface {
	// Encrypt seals plaintext under the current primary key.
	Encrypt(plaintext []byte) (cryptoDomain.EncryptedPayload, error)

	// EncryptWithKey seals plaintext under a specific non-archived key.
	EncryptWithKey(keyID uuid.UUID, plaintext []byte) (cryptoDomain.EncryptedPayload, error)

	// Decrypt opens a payload using the key it references, archived or not.
	Decrypt(payload cryptoDomain.EncryptedPayload) ([]byte, error)
}

// KMSService defines the interface for opening cloud KMS keepers used to
// unwrap the master key.
type KMSService interface {
	// OpenKeeper opens a keeper for the configured KMS provider.
	// Returns an error if the KMS provider URI is invalid or connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
