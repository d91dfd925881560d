package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdesk/case-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5*time.Minute, "case-service")
	role := domain.StaffRoleSubstitute

	token, exp, err := tm.GenerateToken("staff-1", domain.SubjectTypeStaff, &role)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", claims.Subject)
	assert.Equal(t, domain.SubjectTypeStaff, claims.Kind)
	require.NotNil(t, claims.Role)
	assert.Equal(t, domain.StaffRoleSubstitute, *claims.Role)
}

func TestTokenRejectsForeignSecretAndIssuer(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Minute, "case-service").GenerateToken("s", domain.SubjectTypeStudent, nil)
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Minute, "case-service").ParseToken(token)
	require.Error(t, err)

	_, err = NewTokenManager("one", time.Minute, "billing").ParseToken(token)
	require.Error(t, err)
}

func TestTokenExpires(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute, "")
	issued := time.Date(2024, time.March, 11, 9, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return issued }

	token, _, err := tm.GenerateToken("s", domain.SubjectTypeStudent, nil)
	require.NoError(t, err)

	tm.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tm.ParseToken(token)
	require.Error(t, err)
}

func TestHasher(t *testing.T) {
	h := NewHasher(4)
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, "correct horse"))
	assert.False(t, h.Verify(hash, "wrong"))

	_, err = h.Hash(string(make([]byte, 73)))
	require.ErrorIs(t, err, ErrPasswordTooLong)

	assert.Equal(t, NewHasher(0), NewHasher(10))
}
