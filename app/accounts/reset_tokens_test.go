package accounts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judyrop/viara-backend/models"
)

func TestResetTokens(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := NewResetTokens("secret", time.Hour)
	tokens.now = func() time.Time { return now }

	user := &models.User{ID: 7, PasswordHash: "hash-1"}
	token, err := tokens.Issue(user)
	require.NoError(t, err)
	assert.NoError(t, tokens.Check(user, token))

	other := &models.User{ID: 8, PasswordHash: "hash-1"}
	assert.ErrorIs(t, tokens.Check(other, token), ErrInvalidResetToken)

	changed := &models.User{ID: 7, PasswordHash: "hash-2"}
	assert.ErrorIs(t, tokens.Check(changed, token), ErrInvalidResetToken)

	forged := NewResetTokens("other-secret", time.Hour)
	forged.now = tokens.now
	assert.ErrorIs(t, forged.Check(user, token), ErrInvalidResetToken)

	now = now.Add(2 * time.Hour)
	assert.ErrorIs(t, tokens.Check(user, token), ErrInvalidResetToken)
}

func TestUIDRoundTrip(t *testing.T) {
	uid := EncodeUID(42)
	assert.Equal(t, "NDI", uid)

	id, err := DecodeUID(uid)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	id, err = DecodeUID("NDI=")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = DecodeUID("MA")
	assert.Error(t, err)
	_, err = DecodeUID("%%")
	assert.Error(t, err)
}
