package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	require.ErrorIs(t, VerifyPassword("wrong password", hash), ErrPasswordMismatch)
}

func TestHashesAreSalted(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("same input")
	require.NoError(t, err)
	b, err := HashPassword("same input")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	t.Run("wrong part count", func(t *testing.T) {
		err := VerifyPassword("pw", "$argon2id$v=19$broken")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		err := VerifyPassword("pw", "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrPasswordMismatch)
	})
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	require.Len(t, tok, 43)

	_, err = GenerateToken(0)
	require.Error(t, err)
}

func TestGenerateOTPSecret(t *testing.T) {
	t.Parallel()

	secret, err := GenerateOTPSecret(20)
	require.NoError(t, err)
	require.NotEmpty(t, secret)
	require.Equal(t, strings.ToUpper(secret), secret)
}
