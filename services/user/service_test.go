package user_test

import (
	"testing"
	"time"

	"github.com/cgchat/authkit/services/user"
	"github.com/cgchat/authkit/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_GetUser(t *testing.T) {
	db := testutils.SetupTestDB(t, &user.User{})
	s := user.NewService(db, nil)

	require.NoError(t, db.Create(&user.User{
		ID:       "user-1",
		Email:    "user@example.com",
		Verified: true,
	}).Error)

	t.Run("existing user", func(t *testing.T) {
		u, err := s.GetUser("user-1")
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", u.Email)
		assert.True(t, u.Verified)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := s.GetUser("no-such-user")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("soft-deleted user", func(t *testing.T) {
		deletedAt := time.Now()
		require.NoError(t, db.Create(&user.User{
			ID:        "user-2",
			Email:     "gone@example.com",
			Verified:  true,
			DeletedAt: &deletedAt,
		}).Error)

		_, err := s.GetUser("user-2")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}
