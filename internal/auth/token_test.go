package auth

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_GenerateAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret-key-12345", 24)

	token, err := svc.Generate("budi@bpn.go.id", RoleEditor)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := svc.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "budi@bpn.go.id", session.UserID)
	assert.Equal(t, "budi@bpn.go.id", session.Subject())
	assert.Equal(t, RoleEditor, session.Role)
	assert.NotEmpty(t, session.SessionID)
	assert.True(t, session.CanWrite())
	assert.False(t, session.CanDelete())
	assert.Greater(t, time.Until(session.ExpiresAt), 23*time.Hour)
}

func TestTokenService_GenerateRoles(t *testing.T) {
	svc := NewTokenService("secret", 1)

	tests := []struct {
		in   Role
		want Role
	}{
		{RoleAdmin, RoleAdmin},
		{RoleEditor, RoleEditor},
		{RoleViewer, RoleViewer},
		{Role("superuser"), RoleViewer},
		{Role("ADMIN"), RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			token, err := svc.Generate("u1", tt.in)
			require.NoError(t, err)

			session, err := svc.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, session.Role)
		})
	}
}

func TestTokenService_Generate_InvalidUserID(t *testing.T) {
	svc := NewTokenService("secret", 24)

	_, err := svc.Generate("", RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidUserID)

	long := make([]byte, maxUserIDSize+1)
	for i := range long {
		long[i] = 'a'
	}

	_, err = svc.Generate(string(long), RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestTokenService_Verify_InvalidToken(t *testing.T) {
	svc := NewTokenService("secret", 24)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"invalid base64", "not-valid-base64!!!"},
		{"too short", "YWJjZA"},
		{"wrong signature", base64.RawURLEncoding.EncodeToString(make([]byte, minTokenSize+4))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenService_Verify_WrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a", 24).Generate("u1", RoleAdmin)
	require.NoError(t, err)

	_, err = NewTokenService("secret-b", 24).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Verify_Tampered(t *testing.T) {
	svc := NewTokenService("secret", 24)

	token, err := svc.Generate("u1", RoleViewer)
	require.NoError(t, err)

	data, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)

	// Promote the role byte without re-signing.
	data[sessionIDSize+expSize] = roleCodes[RoleAdmin]

	_, err = svc.Verify(base64.RawURLEncoding.EncodeToString(data))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Verify_ExpiredToken(t *testing.T) {
	svc := NewTokenService("secret", 1)
	issued := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, err := svc.Generate("u1", RoleAdmin)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
