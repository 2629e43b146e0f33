package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/fieldsrv/guardpost/internal/crypto/domain"
)

func newTestEncryptionService(t *testing.T) (*EncryptionService, *KeyManagerService) {
	t.Helper()
	km := newTestKeyManager(t)
	return NewEncryptionService(km, NewAEADManager()), km
}

func TestEncryptionService_RoundTrip(t *testing.T) {
	svc, _ := newTestEncryptionService(t)

	t.Run("encrypt then decrypt recovers plaintext", func(t *testing.T) {
		plaintext := []byte("customer phone +1 555 0100")

		payload, err := svc.Encrypt(plaintext)
		require.NoError(t, err)
		assert.Len(t, payload.Nonce, cryptoDomain.NonceSize)
		assert.Len(t, payload.AuthTag, cryptoDomain.TagSize)
		assert.NotEqual(t, plaintext, payload.Ciphertext)

		decrypted, err := svc.Decrypt(payload)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("serialized payload round-trips", func(t *testing.T) {
		payload, err := svc.Encrypt([]byte("serialize me"))
		require.NoError(t, err)

		parsed, err := cryptoDomain.ParseEncryptedPayload(payload.String())
		require.NoError(t, err)

		decrypted, err := svc.Decrypt(parsed)
		require.NoError(t, err)
		assert.Equal(t, []byte("serialize me"), decrypted)
	})

	t.Run("fresh nonce per encryption", func(t *testing.T) {
		p1, err := svc.Encrypt([]byte("same"))
		require.NoError(t, err)
		p2, err := svc.Encrypt([]byte("same"))
		require.NoError(t, err)

		assert.NotEqual(t, p1.Nonce, p2.Nonce)
		assert.NotEqual(t, p1.Ciphertext, p2.Ciphertext)
	})
}

func TestEncryptionService_DecryptAfterRotation(t *testing.T) {
	svc, km := newTestEncryptionService(t)

	payload, err := svc.Encrypt([]byte("sealed before rotation"))
	require.NoError(t, err)

	// Rotate past expiry so the sealing key is archived, not just demoted.
	km.now = func() time.Time { return time.Now().UTC().Add(8 * 24 * time.Hour) }
	result, err := km.RotateKeys()
	require.NoError(t, err)
	assert.Contains(t, result.Archived, payload.KeyID)

	decrypted, err := svc.Decrypt(payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("sealed before rotation"), decrypted)
}

func TestEncryptionService_TamperDetection(t *testing.T) {
	svc, km := newTestEncryptionService(t)

	payload, err := svc.Encrypt([]byte("integrity protected"))
	require.NoError(t, err)

	t.Run("flipped ciphertext byte", func(t *testing.T) {
		tampered := payload
		tampered.Ciphertext = append([]byte(nil), payload.Ciphertext...)
		tampered.Ciphertext[0] ^= 0xff

		_, err := svc.Decrypt(tampered)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("flipped auth tag byte", func(t *testing.T) {
		tampered := payload
		tampered.AuthTag = append([]byte(nil), payload.AuthTag...)
		tampered.AuthTag[0] ^= 0xff

		_, err := svc.Decrypt(tampered)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("rekeyed payload fails authentication", func(t *testing.T) {
		// A second live key exists; pointing the payload at it must fail
		// because the original key ID is bound in the AAD.
		other, err := km.GenerateNewKey()
		require.NoError(t, err)

		rekeyed := payload
		rekeyed.KeyID = other.ID

		_, err = svc.Decrypt(rekeyed)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("unknown key id", func(t *testing.T) {
		lost := payload
		lost.KeyID = uuid.Must(uuid.NewV7())

		_, err := svc.Decrypt(lost)
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyNotFound)
	})
}

func TestEncryptionService_EncryptWithKey(t *testing.T) {
	svc, km := newTestEncryptionService(t)

	t.Run("seals under the requested key", func(t *testing.T) {
		key, err := km.ActiveKey()
		require.NoError(t, err)

		payload, err := svc.EncryptWithKey(key.ID, []byte("explicit key"))
		require.NoError(t, err)
		assert.Equal(t, key.ID, payload.KeyID)
	})

	t.Run("secondary key still encrypts", func(t *testing.T) {
		old, err := km.ActiveKey()
		require.NoError(t, err)
		_, err = km.GenerateNewKey()
		require.NoError(t, err)

		payload, err := svc.EncryptWithKey(old.ID, []byte("secondary"))
		require.NoError(t, err)

		decrypted, err := svc.Decrypt(payload)
		require.NoError(t, err)
		assert.Equal(t, []byte("secondary"), decrypted)
	})

	t.Run("archived key is refused", func(t *testing.T) {
		old, err := km.ActiveKey()
		require.NoError(t, err)
		km.now = func() time.Time { return time.Now().UTC().Add(8 * 24 * time.Hour) }
		_, err = km.RotateKeys()
		require.NoError(t, err)

		_, err = svc.EncryptWithKey(old.ID, []byte("nope"))
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyArchived)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := svc.EncryptWithKey(uuid.Must(uuid.NewV7()), []byte("nope"))
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyNotFound)
	})
}
