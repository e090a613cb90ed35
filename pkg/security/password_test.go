package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/article39/artist-platform-backend/pkg/config"
	"github.com/article39/artist-platform-backend/pkg/security"
)

func fastConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:      8,
		ArgonTime:          1,
		ArgonParallelism:   1,
		ArgonSaltLen:       16,
		ArgonKeyLen:        32,
		TempPasswordLength: 6,
	}
}

func TestHashAndVerify(t *testing.T) {
	hasher := security.NewHasher(fastConfig())

	hash, err := hasher.Hash("very-secure-password")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8,t=1,p=1$"))

	ok, err := hasher.Verify("very-secure-password", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("bogus-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashRejectsEmpty(t *testing.T) {
	_, err := security.NewHasher(fastConfig()).Hash("")
	assert.Error(t, err)
}

func TestVerifyBadHash(t *testing.T) {
	hasher := security.NewHasher(fastConfig())
	for _, encoded := range []string{"not-a-hash", "$argon2id$v=19$m=8$x$y", "pbkdf2_sha256$1000$salt$hash"} {
		_, err := hasher.Verify("irrelevant", encoded)
		assert.ErrorIs(t, err, security.ErrInvalidHash, encoded)
	}
}

func TestNeedsRehashAfterCostChange(t *testing.T) {
	old := security.NewHasher(fastConfig())
	hash, err := old.Hash("pw")
	require.NoError(t, err)
	assert.False(t, old.NeedsRehash(hash))

	stronger := fastConfig()
	stronger.ArgonTime = 2
	upgraded := security.NewHasher(stronger)
	assert.True(t, upgraded.NeedsRehash(hash))

	ok, err := upgraded.Verify("pw", hash)
	require.NoError(t, err)
	assert.True(t, ok, "old hashes keep verifying after a cost change")

	assert.True(t, upgraded.NeedsRehash("garbage"))
}

func TestTempPassword(t *testing.T) {
	hasher := security.NewHasher(fastConfig())

	pw, err := hasher.TempPassword()
	require.NoError(t, err)
	assert.Len(t, pw, 6)
	assert.False(t, strings.ContainsAny(pw, "0O1lI"))

	hash, err := hasher.Hash(pw)
	require.NoError(t, err)
	ok, err := hasher.Verify(pw, hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGenerateTempPasswordLength(t *testing.T) {
	_, err := security.GenerateTempPassword(0)
	assert.Error(t, err)

	pw, err := security.GenerateTempPassword(12)
	require.NoError(t, err)
	assert.Len(t, pw, 12)
}
