package refreshtoken

import (
	"strings"
	"testing"
	"time"

	"github.com/cgchat/authkit/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutils.SetupTestDB(t, &RefreshToken{})
	return NewService(db, testutils.GetTestConfig(), nil)
}

func storeRecord(t *testing.T, s *Service, userID, familyID string) *RefreshToken {
	t.Helper()
	id, token, err := s.NewOpaqueToken()
	require.NoError(t, err)

	record := &RefreshToken{
		ID:        id,
		UserID:    userID,
		Token:     token,
		FamilyID:  familyID,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	require.NoError(t, s.Create(record))
	return record
}

func TestService_NewOpaqueToken(t *testing.T) {
	s := newTestService(t)

	id, token, err := s.NewOpaqueToken()
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, strings.HasPrefix(token, "rt_"+id+"."))

	_, token2, err := s.NewOpaqueToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
}

func TestService_CreateAndFind(t *testing.T) {
	s := newTestService(t)

	record := storeRecord(t, s, "user-1", "family-1")

	found, err := s.FindByToken(record.Token)
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)
	assert.Equal(t, "user-1", found.UserID)
	assert.Equal(t, "family-1", found.FamilyID)
	assert.Nil(t, found.RevokedAt)
	assert.True(t, found.Live(time.Now()))
}

func TestService_FindByToken_NotFound(t *testing.T) {
	s := newTestService(t)

	_, err := s.FindByToken("rt_missing.secret")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestService_Revoke(t *testing.T) {
	s := newTestService(t)

	record := storeRecord(t, s, "user-1", "family-1")

	require.NoError(t, s.Revoke(record.ID, ReasonRotation))

	found, err := s.FindByToken(record.Token)
	require.NoError(t, err)
	require.NotNil(t, found.RevokedAt)
	assert.Equal(t, ReasonRotation, found.RevokedReason)
	assert.False(t, found.Live(time.Now()))

	t.Run("idempotent - reason is not overwritten", func(t *testing.T) {
		require.NoError(t, s.Revoke(record.ID, ReasonLogout))

		again, err := s.FindByToken(record.Token)
		require.NoError(t, err)
		assert.Equal(t, ReasonRotation, again.RevokedReason)
		assert.Equal(t, found.RevokedAt.Unix(), again.RevokedAt.Unix())
	})
}

func TestService_RevokeFamily(t *testing.T) {
	s := newTestService(t)

	first := storeRecord(t, s, "user-1", "family-a")
	second := storeRecord(t, s, "user-1", "family-a")
	other := storeRecord(t, s, "user-1", "family-b")

	count, err := s.RevokeFamily("family-a", ReasonReuse)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	for _, token := range []string{first.Token, second.Token} {
		found, err := s.FindByToken(token)
		require.NoError(t, err)
		require.NotNil(t, found.RevokedAt)
		assert.Equal(t, ReasonReuse, found.RevokedReason)
	}

	untouched, err := s.FindByToken(other.Token)
	require.NoError(t, err)
	assert.Nil(t, untouched.RevokedAt)

	t.Run("idempotent on already-revoked family", func(t *testing.T) {
		count, err := s.RevokeFamily("family-a", ReasonLogout)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}

func TestService_RevokeAllUserTokens(t *testing.T) {
	s := newTestService(t)

	storeRecord(t, s, "user-1", "family-a")
	storeRecord(t, s, "user-1", "family-b")
	other := storeRecord(t, s, "user-2", "family-c")

	count, err := s.RevokeAllUserTokens("user-1", ReasonUserRevoked)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	found, err := s.FindByToken(other.Token)
	require.NoError(t, err)
	assert.Nil(t, found.RevokedAt)
}

func TestService_CleanupExpiredTokens(t *testing.T) {
	s := newTestService(t)

	expired := storeRecord(t, s, "user-1", "family-a")
	require.NoError(t, s.db.Model(expired).Update("expires_at", time.Now().Add(-time.Hour)).Error)
	live := storeRecord(t, s, "user-1", "family-b")

	require.NoError(t, s.CleanupExpiredTokens())

	_, err := s.FindByToken(expired.Token)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = s.FindByToken(live.Token)
	assert.NoError(t, err)
}
