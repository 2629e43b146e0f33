package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptedPayload_String_RoundTrip(t *testing.T) {
	payload := EncryptedPayload{
		KeyID:      uuid.Must(uuid.NewV7()),
		Algorithm:  AESGCM,
		Nonce:      []byte("012345678901"),
		Ciphertext: []byte("sealed data bytes"),
		AuthTag:    []byte("0123456789abcdef"),
	}

	parsed, err := ParseEncryptedPayload(payload.String())
	require.NoError(t, err)

	assert.Equal(t, payload.KeyID, parsed.KeyID)
	assert.Equal(t, payload.Algorithm, parsed.Algorithm)
	assert.Equal(t, payload.Nonce, parsed.Nonce)
	assert.Equal(t, payload.Ciphertext, parsed.Ciphertext)
	assert.Equal(t, payload.AuthTag, parsed.AuthTag)
}

func TestParseEncryptedPayload_Invalid(t *testing.T) {
	validID := uuid.Must(uuid.NewV7()).String()

	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"too few parts", "a:b:c"},
		{"too many parts", "a:b:c:d:e:f"},
		{"bad uuid", "not-a-uuid:aes-gcm:AAAA:AAAA:AAAA"},
		{"bad algorithm", validID + ":des:AAAA:AAAA:AAAA"},
		{"bad nonce base64", validID + ":aes-gcm:!!!!:AAAA:AAAA"},
		{"bad ciphertext base64", validID + ":aes-gcm:AAAA:!!!!:AAAA"},
		{"bad tag base64", validID + ":aes-gcm:AAAA:AAAA:!!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEncryptedPayload(tt.content)
			assert.ErrorIs(t, err, ErrInvalidPayloadFormat)
		})
	}
}

func TestEncryptedPayload_Sealed(t *testing.T) {
	payload := EncryptedPayload{
		Ciphertext: []byte{1, 2, 3},
		AuthTag:    []byte{4, 5},
	}

	assert.Equal(t, []byte{1, 2, 3, 4, 5}, payload.Sealed())
}

func TestMasterKey(t *testing.T) {
	t.Run("load from valid hex", func(t *testing.T) {
		hexKey := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
		mk, err := LoadMasterKeyFromHex(hexKey)
		require.NoError(t, err)
		assert.Len(t, mk.Key, KeySize)
		assert.False(t, mk.Generated)
		assert.Equal(t, hexKey, mk.Hex())
	})

	t.Run("reject short hex", func(t *testing.T) {
		_, err := LoadMasterKeyFromHex("abcd")
		assert.ErrorIs(t, err, ErrInvalidMasterKey)
	})

	t.Run("reject non-hex", func(t *testing.T) {
		_, err := LoadMasterKeyFromHex("zz23456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
		assert.ErrorIs(t, err, ErrInvalidMasterKey)
	})

	t.Run("generated keys are random and flagged", func(t *testing.T) {
		first, err := GenerateMasterKey()
		require.NoError(t, err)
		second, err := GenerateMasterKey()
		require.NoError(t, err)

		assert.True(t, first.Generated)
		assert.NotEqual(t, first.Key, second.Key)
	})

	t.Run("close zeroes material", func(t *testing.T) {
		mk, err := GenerateMasterKey()
		require.NoError(t, err)

		mk.Close()
		for _, b := range mk.Key {
			assert.Equal(t, byte(0), b)
		}
	})
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("aes-gcm")
	require.NoError(t, err)
	assert.Equal(t, AESGCM, alg)

	alg, err = ParseAlgorithm("chacha20-poly1305")
	require.NoError(t, err)
	assert.Equal(t, ChaCha20, alg)

	_, err = ParseAlgorithm("3des")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}
