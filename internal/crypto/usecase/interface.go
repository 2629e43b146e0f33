// Package usecase implements the application operations of the encryption
// engine exposed to the HTTP layer.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/fieldsrv/guardpost/internal/crypto/domain"
	"github.com/fieldsrv/guardpost/internal/crypto/service"
)

// KeyMetadata describes a managed key without exposing its material.
type KeyMetadata struct {
	ID        uuid.UUID              `json:"id"`
	Algorithm cryptoDomain.Algorithm `json:"algorithm"`
	Role      cryptoDomain.KeyRole   `json:"role"`
	Active    bool                   `json:"active"`
	CreatedAt time.Time              `json:"created_at"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// EncryptionStatus is the status/statistics snapshot of the encryption engine.
type EncryptionStatus struct {
	Algorithm          cryptoDomain.Algorithm `json:"algorithm"`
	ActiveKeyID        uuid.UUID              `json:"active_key_id"`
	TotalKeys          int                    `json:"total_keys"`
	KeysByRole         map[string]int         `json:"keys_by_role"`
	RotationPeriod     string                 `json:"rotation_period"`
	MasterKeyGenerated bool                   `json:"master_key_generated"`
	SigningPublicKey   string                 `json:"signing_public_key"`
	RegisteredTables   []string               `json:"registered_tables"`
}

// RotationReport summarizes a manual or scheduled key rotation pass.
// NewKeyID is nil when no key had expired and the primary was left alone.
type RotationReport struct {
	NewKeyID     *uuid.UUID  `json:"new_key_id,omitempty"`
	ArchivedKeys []uuid.UUID `json:"archived_keys"`
}

// RoundTripReport is the result of an encrypt+decrypt self-test, including
// what the PII scanner found in the submitted plaintext.
type RoundTripReport struct {
	Match         bool               `json:"match"`
	KeyID         uuid.UUID          `json:"key_id"`
	PayloadLength int                `json:"payload_length"`
	PIIDetected   []service.PIIMatch `json:"pii_detected"`
	MaskedPreview string             `json:"masked_preview"`
}

// EncryptionUseCase defines the application operations of the encryption engine.
type EncryptionUseCase interface {
	// Status returns the status/statistics snapshot. Key material is never included.
	Status(ctx context.Context) (EncryptionStatus, error)

	// Rotate archives expired keys and, when any were archived, installs a
	// new primary.
	Rotate(ctx context.Context) (RotationReport, error)

	// TestRoundTrip encrypts and decrypts the given plaintext and reports
	// whether the round trip matched, plus PII findings in the input.
	TestRoundTrip(ctx context.Context, plaintext string) (RoundTripReport, error)

	// Keys returns metadata for every key in the ring, newest first.
	Keys(ctx context.Context) ([]KeyMetadata, error)

	// EncryptString seals a string under the active key and returns the
	// serialized payload.
	EncryptString(ctx context.Context, plaintext string) (string, error)

	// DecryptString parses a serialized payload and opens it.
	DecryptString(ctx context.Context, serialized string) (string, error)

	// EncryptRecord seals the registered fields of a record.
	EncryptRecord(ctx context.Context, table string, record map[string]any) (map[string]any, error)

	// DecryptRecord opens the flagged fields of a record and reports a
	// per-field status.
	DecryptRecord(
		ctx context.Context,
		table string,
		record map[string]any,
	) (map[string]any, map[string]service.FieldStatus, error)
}
