package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EncryptedPayload represents a sealed data blob.
//
// The payload is immutable once created. Decryption requires looking up
// KeyID in the key ring; the key may be archived but must still exist.
// The key ID is bound into the AEAD associated data at seal time, so a
// payload cannot be silently "rekeyed" by editing the KeyID field.
type EncryptedPayload struct {
	KeyID      uuid.UUID
	Algorithm  Algorithm
	Nonce      []byte // 12 bytes, fresh random per encryption
	Ciphertext []byte // Without the authentication tag
	AuthTag    []byte // 16-byte AEAD tag
	Timestamp  time.Time
}

// Sealed returns ciphertext with the authentication tag re-appended,
// the form the AEAD primitive consumes.
func (p EncryptedPayload) Sealed() []byte {
	sealed := make([]byte, 0, len(p.Ciphertext)+len(p.AuthTag))
	sealed = append(sealed, p.Ciphertext...)
	sealed = append(sealed, p.AuthTag...)
	return sealed
}

// String serializes the payload to its storage representation:
// "keyID:algorithm:base64-nonce:base64-ciphertext:base64-tag".
// Round-trips with ParseEncryptedPayload (the timestamp is not carried).
func (p EncryptedPayload) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		p.KeyID.String(),
		p.Algorithm,
		base64.StdEncoding.EncodeToString(p.Nonce),
		base64.StdEncoding.EncodeToString(p.Ciphertext),
		base64.StdEncoding.EncodeToString(p.AuthTag),
	)
}

// ParseEncryptedPayload parses the storage representation produced by String.
//
// Returns ErrInvalidPayloadFormat if the input does not have exactly five
// colon-separated parts, the key ID is not a UUID, the algorithm is unknown,
// or any base64 segment fails to decode.
func ParseEncryptedPayload(content string) (EncryptedPayload, error) {
	parts := strings.Split(content, ":")
	if len(parts) != 5 {
		return EncryptedPayload{}, fmt.Errorf(
			"%w: expected 5 parts, got %d", ErrInvalidPayloadFormat, len(parts),
		)
	}

	keyID, err := uuid.Parse(parts[0])
	if err != nil {
		return EncryptedPayload{}, fmt.Errorf("%w: bad key id: %v", ErrInvalidPayloadFormat, err)
	}

	alg, err := ParseAlgorithm(parts[1])
	if err != nil {
		return EncryptedPayload{}, fmt.Errorf("%w: bad algorithm %q", ErrInvalidPayloadFormat, parts[1])
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return EncryptedPayload{}, fmt.Errorf("%w: bad nonce: %v", ErrInvalidPayloadFormat, err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return EncryptedPayload{}, fmt.Errorf("%w: bad ciphertext: %v", ErrInvalidPayloadFormat, err)
	}

	tag, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return EncryptedPayload{}, fmt.Errorf("%w: bad auth tag: %v", ErrInvalidPayloadFormat, err)
	}

	return EncryptedPayload{
		KeyID:      keyID,
		Algorithm:  alg,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		AuthTag:    tag,
	}, nil
}
