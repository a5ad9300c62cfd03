package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
	"github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/security"
)

func TestRun_RequiresSecret(t *testing.T) {
	err := run("", "iss", 1, "user", "", "", time.Hour, "", "")
	require.Error(t, err)
}

func TestRun_RejectsUnknownRole(t *testing.T) {
	err := run("s", "iss", 1, "moderator", "", "", time.Hour, "", "")
	require.Error(t, err)
}

func TestRun_WritesVerifiableTokens(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tokens.txt")

	require.NoError(t, run("s3cret", "movie-review-auth", 3, "admin", "", "", time.Hour, out, ""))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Fields(string(raw))
	require.Len(t, lines, 3)

	v := security.NewJWTIssuer("s3cret", "movie-review-auth", time.Now)
	seen := map[string]bool{}
	for i, tok := range lines {
		c, err := v.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, c.Role)
		assert.NotEmpty(t, c.AccountID)
		assert.False(t, seen[c.AccountID], "account ids should differ")
		seen[c.AccountID] = true
		assert.Equal(t, "user-"+string(rune('0'+i))+"@example.com", c.Email)
	}
}
