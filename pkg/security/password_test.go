package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password", testPasswordConfig())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, err := security.VerifyPassword("very-secure-password", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = security.VerifyPassword("bogus-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := security.HashPassword("", testPasswordConfig())
	assert.Error(t, err)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!$aGFzaA",
	} {
		_, err := security.VerifyPassword("pw", encoded)
		assert.ErrorIs(t, err, security.ErrInvalidHash, encoded)
	}
}

func TestNeedsRehash(t *testing.T) {
	cfg := testPasswordConfig()
	hash, err := security.HashPassword("galley-crew-2026", cfg)
	require.NoError(t, err)
	assert.False(t, security.NeedsRehash(hash, cfg))

	stronger := cfg
	stronger.ArgonTime = 3
	assert.True(t, security.NeedsRehash(hash, stronger))
	assert.True(t, security.NeedsRehash("not-a-hash", cfg))
}

func TestVerifyPasswordRejectsUnknownVersion(t *testing.T) {
	hash, err := security.HashPassword("pw-12345678", testPasswordConfig())
	require.NoError(t, err)
	_, err = security.VerifyPassword("pw-12345678", strings.Replace(hash, "v=19", "v=16", 1))
	assert.ErrorIs(t, err, security.ErrInvalidHash)
}

func TestRandomString(t *testing.T) {
	got, err := security.RandomString(64, security.UpperAlnum)
	require.NoError(t, err)
	assert.Len(t, got, 64)
	for _, r := range got {
		assert.True(t, strings.ContainsRune(security.UpperAlnum, r))
	}

	_, err = security.RandomString(0, security.UpperAlnum)
	assert.Error(t, err)
	_, err = security.RandomString(4, "")
	assert.Error(t, err)
}
