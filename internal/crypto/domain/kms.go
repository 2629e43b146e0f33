package domain

import "context"

// KMSKeeper abstracts a cloud KMS keeper used to wrap and unwrap the
// master key. *secrets.Keeper from gocloud.dev implements this interface.
type KMSKeeper interface {
	// Encrypt encrypts plaintext using the KMS key.
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)

	// Decrypt decrypts ciphertext using the KMS key.
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)

	// Close releases resources held by the keeper.
	Close() error
}
