package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// MasterKey is the root secret of the key hierarchy. It is loaded from the
// environment (64 hex characters / 32 bytes), unwrapped through a KMS
// keeper, or freshly generated on startup when neither is configured.
type MasterKey struct {
	Key       []byte
	Generated bool // True when the key was generated this boot rather than loaded
}

// LoadMasterKeyFromHex decodes a 64-hex-character master key.
// Returns ErrInvalidMasterKey if the input is not exactly 32 bytes of hex.
func LoadMasterKeyFromHex(hexKey string) (*MasterKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMasterKey, err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidMasterKey, KeySize, len(raw))
	}

	return &MasterKey{Key: raw}, nil
}

// GenerateMasterKey creates a fresh random 32-byte master key.
// The Generated flag lets the caller decide whether to surface the key
// material once for operator capture.
func GenerateMasterKey() (*MasterKey, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}

	return &MasterKey{Key: raw, Generated: true}, nil
}

// Hex returns the hex encoding of the key material. Used only when
// surfacing a freshly generated key to the operator.
func (m *MasterKey) Hex() string {
	return hex.EncodeToString(m.Key)
}

// Close securely clears the master key material from memory.
func (m *MasterKey) Close() {
	Zero(m.Key)
}
