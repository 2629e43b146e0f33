package service

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/fieldsrv/guardpost/internal/crypto/domain"
)

// EncryptionService implements the Encryptor interface on top of the key
// manager and AEAD ciphers.
//
// The encrypting key's ID is bound into the AEAD associated data, so a
// payload whose KeyID field has been edited fails authentication instead
// of silently decrypting under the wrong key.
type EncryptionService struct {
	keyManager  KeyManager
	aeadManager AEADManager
}

// NewEncryptionService creates a new EncryptionService.
func NewEncryptionService(keyManager KeyManager, aeadManager AEADManager) *EncryptionService {
	return &EncryptionService{
		keyManager:  keyManager,
		aeadManager: aeadManager,
	}
}

// Encrypt seals plaintext under the current primary key.
func (e *EncryptionService) Encrypt(plaintext []byte) (cryptoDomain.EncryptedPayload, error) {
	key, err := e.keyManager.ActiveKey()
	if err != nil {
		return cryptoDomain.EncryptedPayload{}, err
	}
	return e.seal(key, plaintext)
}

// EncryptWithKey seals plaintext under a specific key. Archived keys are
// refused: they serve decryption only.
func (e *EncryptionService) EncryptWithKey(
	keyID uuid.UUID,
	plaintext []byte,
) (cryptoDomain.EncryptedPayload, error) {
	key, err := e.keyManager.Key(keyID)
	if err != nil {
		return cryptoDomain.EncryptedPayload{}, err
	}
	if key.Role == cryptoDomain.RoleArchived {
		return cryptoDomain.EncryptedPayload{}, cryptoDomain.ErrKeyArchived
	}
	return e.seal(key, plaintext)
}

// Decrypt opens a payload using the key it references. Archived keys work
// here; that is the whole point of retaining them.
func (e *EncryptionService) Decrypt(payload cryptoDomain.EncryptedPayload) ([]byte, error) {
	key, err := e.keyManager.Key(payload.KeyID)
	if err != nil {
		return nil, err
	}

	aead, err := e.aeadManager.CreateCipher(key.Material, payload.Algorithm)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Decrypt(payload.Sealed(), payload.Nonce, keyAAD(payload.KeyID))
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}

func (e *EncryptionService) seal(
	key *cryptoDomain.EncryptionKey,
	plaintext []byte,
) (cryptoDomain.EncryptedPayload, error) {
	aead, err := e.aeadManager.CreateCipher(key.Material, key.Algorithm)
	if err != nil {
		return cryptoDomain.EncryptedPayload{}, err
	}

	sealed, nonce, err := aead.Encrypt(plaintext, keyAAD(key.ID))
	if err != nil {
		return cryptoDomain.EncryptedPayload{}, err
	}

	// The AEAD appends the tag to the ciphertext; the payload stores them
	// separately.
	split := len(sealed) - cryptoDomain.TagSize
	return cryptoDomain.EncryptedPayload{
		KeyID:      key.ID,
		Algorithm:  key.Algorithm,
		Nonce:      nonce,
		Ciphertext: sealed[:split],
		AuthTag:    sealed[split:],
		Timestamp:  time.Now().UTC(),
	}, nil
}

// keyAAD returns the associated data binding a payload to its key.
func keyAAD(keyID uuid.UUID) []byte {
	return []byte(keyID.String())
}
