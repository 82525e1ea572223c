package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/knmori/lobby/internal/domain"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("it should keep the supplied username", func(t *testing.T) {
		u, err := domain.NewUser("u1", "Alice")
		require.NoError(t, err)
		require.Equal(t, domain.UserID("u1"), u.ID)
		require.Equal(t, "Alice", u.Username)
	})

	t.Run("it should derive a guest name when username is absent", func(t *testing.T) {
		u, err := domain.NewUser("abcdef123", "")
		require.NoError(t, err)
		require.Equal(t, "User abcd", u.Username)
	})

	t.Run("it should reject an empty id", func(t *testing.T) {
		_, err := domain.NewUser("", "Alice")
		require.ErrorIs(t, err, domain.ErrUserIDEmpty)
	})

	t.Run("it should reject overlong fields", func(t *testing.T) {
		long := strings.Repeat("x", domain.MaxUserIDLen+1)
		_, err := domain.NewUser(domain.UserID(long), "Alice")
		require.ErrorIs(t, err, domain.ErrUserIDTooLong)

		_, err = domain.NewUser("u1", strings.Repeat("x", domain.MaxUsernameLen+1))
		require.ErrorIs(t, err, domain.ErrUsernameTooLong)
	})
}

func TestGuestUsername(t *testing.T) {
	t.Parallel()

	require.Equal(t, "User ab", domain.GuestUsername("ab"))
	require.Equal(t, "User 1234", domain.GuestUsername("123456789"))
}
