package loginlink_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/magicauth/pkg/loginlink"
)

func TestGenerateSecret(t *testing.T) {
	t.Parallel()

	t.Run("alphanumeric of fixed length", func(t *testing.T) {
		t.Parallel()
		secret, err := loginlink.GenerateSecret()
		require.NoError(t, err)
		assert.Len(t, secret, loginlink.SecretLength)
		assert.True(t, loginlink.WellFormed(secret))
	})

	t.Run("no repeats across many draws", func(t *testing.T) {
		t.Parallel()
		seen := make(map[string]struct{}, 1000)
		for range 1000 {
			secret, err := loginlink.GenerateSecret()
			require.NoError(t, err)
			_, dup := seen[secret]
			require.False(t, dup)
			seen[secret] = struct{}{}
		}
	})
}

func TestWellFormed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid", strings.Repeat("aZ9", 10) + "xy", true},
		{"empty", "", false},
		{"too short", "abc", false},
		{"too long", strings.Repeat("a", loginlink.SecretLength+1), false},
		{"url unsafe char", strings.Repeat("a", loginlink.SecretLength-1) + "/", false},
		{"dash", strings.Repeat("a", loginlink.SecretLength-1) + "-", false},
		{"non ascii", strings.Repeat("a", loginlink.SecretLength-2) + "é", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, loginlink.WellFormed(tt.input))
		})
	}
}

func TestHasher(t *testing.T) {
	t.Parallel()

	t.Run("rejects short keys", func(t *testing.T) {
		t.Parallel()
		_, err := loginlink.NewHasher([]byte("short"))
		assert.ErrorIs(t, err, loginlink.ErrInvalidKey)
	})

	t.Run("deterministic per key", func(t *testing.T) {
		t.Parallel()
		h1, err := loginlink.NewHasher([]byte(strings.Repeat("k", 32)))
		require.NoError(t, err)
		h2, err := loginlink.NewHasher([]byte(strings.Repeat("k", 32)))
		require.NoError(t, err)
		other, err := loginlink.NewHasher([]byte(strings.Repeat("o", 32)))
		require.NoError(t, err)

		assert.Equal(t, h1.Digest("secret"), h2.Digest("secret"))
		assert.NotEqual(t, h1.Digest("secret"), h1.Digest("secret2"))
		assert.NotEqual(t, h1.Digest("secret"), other.Digest("secret"))
		assert.Len(t, h1.Digest("secret"), 64)
		assert.NotContains(t, h1.Digest("secret"), "secret")
	})
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := loginlink.ParseKind("login")
	require.NoError(t, err)
	assert.Equal(t, loginlink.KindLogin, k)

	k, err = loginlink.ParseKind("invitation")
	require.NoError(t, err)
	assert.Equal(t, loginlink.KindInvitation, k)

	_, err = loginlink.ParseKind("password")
	assert.ErrorIs(t, err, loginlink.ErrInvalidKind)
}
