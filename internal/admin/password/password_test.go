package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)

	require.NoError(t, h.Verify("Secret123", hash))
	require.ErrorIs(t, h.Verify("wrong", hash), ErrMismatch)

	err = h.Verify("Secret123", "not-a-hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)

	_, err = h.Hash("")
	require.Error(t, err)
}
