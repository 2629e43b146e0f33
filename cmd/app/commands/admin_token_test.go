package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/allisson/go-pwdhash"
	"github.com/stretchr/testify/require"
)

func TestRunCreateAdminToken(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunCreateAdminToken(&out))

	output := out.String()
	require.Contains(t, output, "Admin token (give to operators): ")
	require.Contains(t, output, "ADMIN_TOKEN_HASH=\"")

	// The printed hash must verify the printed token
	var token, hash string
	for _, line := range strings.Split(output, "\n") {
		if rest, ok := strings.CutPrefix(line, "Admin token (give to operators): "); ok {
			token = rest
		}
		if rest, ok := strings.CutPrefix(line, "ADMIN_TOKEN_HASH=\""); ok {
			hash = strings.TrimSuffix(rest, "\"")
		}
	}
	require.NotEmpty(t, token)
	require.NotEmpty(t, hash)

	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	require.NoError(t, err)

	ok, err := hasher.Verify([]byte(token), hash)
	require.NoError(t, err)
	require.True(t, ok)
}
