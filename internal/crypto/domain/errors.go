package domain

import (
	"github.com/fieldsrv/guardpost/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// so the HTTP layer can map them to status codes without inspecting
// cryptographic detail.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	// Supported algorithms: AESGCM (AES-256-GCM), ChaCha20 (ChaCha20-Poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	// All keys must be exactly 32 bytes (256 bits).
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a decryption operation failed: wrong key,
	// tampered ciphertext, or corrupt nonce. The specific cause is not
	// disclosed to prevent information leakage.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrKeyNotFound indicates the key ID referenced by a payload is not in
	// the key ring. Archived keys remain retrievable, so this means the
	// payload references a key this process never held.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "encryption key not found")

	// ErrKeyArchived indicates an encrypt operation referenced an archived key.
	// Archived keys serve decryption only.
	ErrKeyArchived = errors.Wrap(errors.ErrInvalidInput, "encryption key is archived")

	// ErrInvalidPayloadFormat indicates a serialized payload could not be parsed.
	ErrInvalidPayloadFormat = errors.Wrap(errors.ErrInvalidInput, "invalid encrypted payload format")

	// ErrInvalidMasterKey indicates the configured master key is malformed
	// (not 64 hex characters / 32 bytes).
	ErrInvalidMasterKey = errors.Wrap(errors.ErrInvalidInput, "invalid master key")
)
