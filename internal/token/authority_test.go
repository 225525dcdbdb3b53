package token

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthority_Issue(t *testing.T) {
	authority := NewAuthority()

	creds, err := authority.Issue()
	require.NoError(t, err)

	t.Run("job token is a uuid", func(t *testing.T) {
		_, err := uuid.Parse(creds.JobToken)
		assert.NoError(t, err)
	})

	t.Run("engineer token decodes to 32 bytes", func(t *testing.T) {
		raw, err := base64.RawURLEncoding.DecodeString(creds.EngineerToken)
		require.NoError(t, err)
		assert.Len(t, raw, engineerTokenBytes)
	})

	t.Run("short code uses the unambiguous alphabet", func(t *testing.T) {
		assert.Len(t, creds.ShortCode, shortCodeLength)
		for _, r := range creds.ShortCode {
			assert.True(t, strings.ContainsRune(shortCodeAlphabet, r),
				"unexpected character %q in short code", r)
		}
	})
}

func TestAuthority_Issue_Unique(t *testing.T) {
	authority := NewAuthority()

	jobTokens := make(map[string]bool)
	engineerTokens := make(map[string]bool)
	shortCodes := make(map[string]bool)

	for i := 0; i < 200; i++ {
		creds, err := authority.Issue()
		require.NoError(t, err)

		assert.False(t, jobTokens[creds.JobToken])
		assert.False(t, engineerTokens[creds.EngineerToken])
		assert.False(t, shortCodes[creds.ShortCode])

		jobTokens[creds.JobToken] = true
		engineerTokens[creds.EngineerToken] = true
		shortCodes[creds.ShortCode] = true
	}
}
