package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"sort"
	"time"

	cryptoDomain "github.com/fieldsrv/guardpost/internal/crypto/domain"
	"github.com/fieldsrv/guardpost/internal/crypto/service"
)

// encryptionUseCase implements EncryptionUseCase over the key manager,
// encryptor, field registry, and PII scanner.
type encryptionUseCase struct {
	keyManager     service.KeyManager
	encryptor      service.Encryptor
	fieldRegistry  *service.FieldRegistry
	piiService     *service.PIIService
	rotationPeriod time.Duration
	logger         *slog.Logger
}

// NewEncryptionUseCase creates a new EncryptionUseCase.
func NewEncryptionUseCase(
	keyManager service.KeyManager,
	encryptor service.Encryptor,
	fieldRegistry *service.FieldRegistry,
	piiService *service.PIIService,
	rotationPeriod time.Duration,
	logger *slog.Logger,
) EncryptionUseCase {
	return &encryptionUseCase{
		keyManager:     keyManager,
		encryptor:      encryptor,
		fieldRegistry:  fieldRegistry,
		piiService:     piiService,
		rotationPeriod: rotationPeriod,
		logger:         logger,
	}
}

// Status returns the status/statistics snapshot of the encryption engine.
func (u *encryptionUseCase) Status(ctx context.Context) (EncryptionStatus, error) {
	active, err := u.keyManager.ActiveKey()
	if err != nil {
		return EncryptionStatus{}, err
	}

	byRole := make(map[string]int)
	keys := u.keyManager.Keys()
	for _, key := range keys {
		byRole[string(key.Role)]++
	}

	return EncryptionStatus{
		Algorithm:          active.Algorithm,
		ActiveKeyID:        active.ID,
		TotalKeys:          len(keys),
		KeysByRole:         byRole,
		RotationPeriod:     u.rotationPeriod.String(),
		MasterKeyGenerated: u.keyManager.MasterKeyGenerated(),
		SigningPublicKey:   base64.StdEncoding.EncodeToString(u.keyManager.SigningPublicKey()),
		RegisteredTables:   u.fieldRegistry.Tables(),
	}, nil
}

// Rotate archives expired keys and, when any were archived, installs a new
// primary. Every effective rotation is logged as a configuration-change
// audit entry; a pass that found nothing expired is not.
func (u *encryptionUseCase) Rotate(ctx context.Context) (RotationReport, error) {
	result, err := u.keyManager.RotateKeys()
	if err != nil {
		return RotationReport{}, err
	}

	if !result.Rotated() {
		u.logger.DebugContext(ctx, "key rotation pass found no expired keys")
		return RotationReport{}, nil
	}

	u.logger.InfoContext(ctx, "encryption keys rotated",
		slog.String("new_key_id", result.NewKeyID.String()),
		slog.Int("archived_keys", len(result.Archived)),
	)

	newKeyID := result.NewKeyID
	return RotationReport{
		NewKeyID:     &newKeyID,
		ArchivedKeys: result.Archived,
	}, nil
}

// TestRoundTrip encrypts and decrypts the given plaintext and reports the
// outcome plus PII findings, proving the active key path end to end
// without touching stored data.
func (u *encryptionUseCase) TestRoundTrip(
	ctx context.Context,
	plaintext string,
) (RoundTripReport, error) {
	payload, err := u.encryptor.Encrypt([]byte(plaintext))
	if err != nil {
		return RoundTripReport{}, err
	}

	decrypted, err := u.encryptor.Decrypt(payload)
	if err != nil {
		return RoundTripReport{}, err
	}

	return RoundTripReport{
		Match:         bytes.Equal([]byte(plaintext), decrypted),
		KeyID:         payload.KeyID,
		PayloadLength: len(payload.String()),
		PIIDetected:   u.piiService.Detect(plaintext),
		MaskedPreview: u.piiService.Mask(plaintext),
	}, nil
}

// Keys returns metadata for every key in the ring, newest first. Raw key
// bytes never leave the service layer.
func (u *encryptionUseCase) Keys(ctx context.Context) ([]KeyMetadata, error) {
	keys := u.keyManager.Keys()

	out := make([]KeyMetadata, 0, len(keys))
	for _, key := range keys {
		out = append(out, KeyMetadata{
			ID:        key.ID,
			Algorithm: key.Algorithm,
			Role:      key.Role,
			Active:    key.Active,
			CreatedAt: key.CreatedAt,
			ExpiresAt: key.ExpiresAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return out, nil
}

// EncryptString seals a string under the active key.
func (u *encryptionUseCase) EncryptString(ctx context.Context, plaintext string) (string, error) {
	payload, err := u.encryptor.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return payload.String(), nil
}

// DecryptString parses a serialized payload and opens it.
func (u *encryptionUseCase) DecryptString(ctx context.Context, serialized string) (string, error) {
	payload, err := cryptoDomain.ParseEncryptedPayload(serialized)
	if err != nil {
		return "", err
	}

	plaintext, err := u.encryptor.Decrypt(payload)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptRecord seals the registered fields of a record.
func (u *encryptionUseCase) EncryptRecord(
	ctx context.Context,
	table string,
	record map[string]any,
) (map[string]any, error) {
	return u.fieldRegistry.EncryptRecord(table, record)
}

// DecryptRecord opens the flagged fields of a record. Failed fields are
// logged and reported in the status map; the record read still succeeds.
func (u *encryptionUseCase) DecryptRecord(
	ctx context.Context,
	table string,
	record map[string]any,
) (map[string]any, map[string]service.FieldStatus, error) {
	out, status, err := u.fieldRegistry.DecryptRecord(table, record)
	if err != nil {
		return nil, nil, err
	}

	for field, st := range status {
		if st == service.FieldFailed {
			u.logger.WarnContext(ctx, "field decryption failed",
				slog.String("table", table),
				slog.String("field", field),
			)
		}
	}

	return out, status, nil
}
