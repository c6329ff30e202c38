package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newTestService(t *testing.T, username, password string) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return NewService(username, string(hash), testSecret, zap.NewNop())
}

func TestLogin(t *testing.T) {
	svc := newTestService(t, "admin", "s3cret-pass")

	token, err := svc.Login("admin", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		require.IsType(t, &jwt.SigningMethodHMAC{}, tok.Method)
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "admin", claims["sub"])
	require.Equal(t, "admin", claims["role"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	iat, err := claims.GetIssuedAt()
	require.NoError(t, err)
	require.Equal(t, TokenTTL, exp.Sub(iat.Time))
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t, "admin", "s3cret-pass")

	_, err := svc.Login("admin", "wrong")
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginUnknownUsername(t *testing.T) {
	svc := newTestService(t, "admin", "s3cret-pass")

	_, err := svc.Login("intruder", "s3cret-pass")
	require.ErrorIs(t, err, ErrBadCredentials)
}
