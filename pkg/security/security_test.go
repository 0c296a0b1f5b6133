package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cheapArgon() *ArgonHash {
	return &ArgonHash{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestArgonHash_RoundTrip(t *testing.T) {
	t.Parallel()

	a := cheapArgon()

	hash, err := a.Hash("Abc12345!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	assert.True(t, a.Verify("Abc12345!", hash))
	assert.False(t, a.Verify("Abc12345?", hash))
	assert.False(t, a.Verify("", hash))
}

func TestArgonHash_SaltedHashesDiffer(t *testing.T) {
	t.Parallel()

	a := cheapArgon()

	h1, err := a.Hash("same-password")
	require.NoError(t, err)
	h2, err := a.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, a.Verify("same-password", h1))
	assert.True(t, a.Verify("same-password", h2))
}

func TestArgonHash_VerifyUsesEncodedParams(t *testing.T) {
	t.Parallel()

	hash, err := cheapArgon().Hash("Abc12345!")
	require.NoError(t, err)

	// A hasher configured differently must still verify older hashes.
	assert.True(t, New().Verify("Abc12345!", hash))
}

func TestArgonHash_MalformedHash(t *testing.T) {
	t.Parallel()

	a := cheapArgon()

	tests := []struct {
		name string
		hash string
	}{
		{name: "empty", hash: ""},
		{name: "plain text", hash: "Abc12345!"},
		{name: "wrong algorithm", hash: "$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA"},
		{name: "bad params", hash: "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA"},
		{name: "zero params", hash: "$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA"},
		{name: "bad salt", hash: "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA"},
		{name: "empty key", hash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.False(t, a.Verify("Abc12345!", tt.hash))
		})
	}
}

func TestNewVerificationCode(t *testing.T) {
	t.Parallel()

	for i := 0; i < 200; i++ {
		code, err := NewVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, 8)

		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "unexpected rune %q in %s", r, code)
		}
		require.NotEqual(t, byte('0'), code[0])
	}
}
