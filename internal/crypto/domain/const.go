package domain

// Algorithm represents the cryptographic algorithm used for encryption.
//
// All supported algorithms provide Authenticated Encryption with Associated Data
// (AEAD) with 256-bit keys, 12-byte nonces, and 16-byte authentication tags.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	// Preferred on CPUs with AES-NI hardware acceleration.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	// Constant-time in software, preferred on platforms without AES-NI.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// ParseAlgorithm converts a string to an Algorithm.
// Returns ErrUnsupportedAlgorithm for unknown values.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}

// KeyRole represents the lifecycle role of an encryption key.
//
// Exactly one key holds RolePrimary at any time; it is the key used for
// new encrypt operations. Rotated-out keys pass through RoleSecondary and
// end as RoleArchived, which are retained so previously encrypted data
// remains decryptable (archived is not deleted).
type KeyRole string

const (
	// RolePrimary is the currently active key used for new encryptions.
	RolePrimary KeyRole = "primary"

	// RoleSecondary is the most recently demoted key, still active for decryption.
	RoleSecondary KeyRole = "secondary"

	// RoleArchived is a rotated-out key retained only for decryption.
	RoleArchived KeyRole = "archived"
)

// NonceSize is the AEAD nonce size in bytes for both supported algorithms.
const NonceSize = 12

// TagSize is the AEAD authentication tag size in bytes for both supported algorithms.
const TagSize = 16

// KeySize is the symmetric key size in bytes (256 bits).
const KeySize = 32
