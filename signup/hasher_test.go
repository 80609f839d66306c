package signup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasherRejectsCostOutOfRange(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost - 1)
	require.Error(t, err)

	_, err = NewBcryptHasher(bcrypt.MaxCost + 1)
	require.Error(t, err)
}

func TestBcryptHasherSaltsEachHash(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	first, err := h.Hash("Str0ngP@ss!")
	require.NoError(t, err)
	second, err := h.Hash("Str0ngP@ss!")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.False(t, strings.Contains(first, "Str0ngP@ss!"))
	require.NoError(t, h.Verify(first, "Str0ngP@ss!"))
	require.NoError(t, h.Verify(second, "Str0ngP@ss!"))
	require.Error(t, h.Verify(first, "wrong-password1!"))
}
