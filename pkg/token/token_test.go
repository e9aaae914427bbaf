package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	signed, err := GenerateJWT("u1", "s1", string(RoleMember), "chat_service")
	require.NoError(t, err)

	claims, err := ParseJWT(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.MemberID)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, string(RoleMember), claims.Role)
	assert.Equal(t, "chat_service", claims.Issuer)
}

func TestParseJWT_Tampered(t *testing.T) {
	signed, err := GenerateJWT("u1", "s1", string(RoleMember), "chat_service")
	require.NoError(t, err)

	_, err = ParseJWT(signed + "x")
	assert.Error(t, err)
}

func TestParseJWT_MissingMember(t *testing.T) {
	signed, err := GenerateJWT("", "s1", string(RoleGuest), "chat_service")
	require.NoError(t, err)

	_, err = ParseJWT(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
