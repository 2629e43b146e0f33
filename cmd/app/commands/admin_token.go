package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/allisson/go-pwdhash"
)

// RunCreateAdminToken generates a random admin API bearer token and prints it
// together with its Argon2id hash. Only the hash goes into configuration; the
// token itself is shown once and never stored.
func RunCreateAdminToken(writer io.Writer) error {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate admin token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	if err != nil {
		return fmt.Errorf("failed to create password hasher: %w", err)
	}

	hash, err := hasher.Hash([]byte(token))
	if err != nil {
		return fmt.Errorf("failed to hash admin token: %w", err)
	}

	fmt.Fprintln(writer, "# Admin Token Configuration")
	fmt.Fprintln(writer, "# Store the token in your secrets manager; only the hash goes into the environment")
	fmt.Fprintln(writer)
	fmt.Fprintf(writer, "Admin token (give to operators): %s\n", token)
	fmt.Fprintln(writer)
	fmt.Fprintf(writer, "ADMIN_TOKEN_HASH=\"%s\"\n", hash)

	return nil
}
