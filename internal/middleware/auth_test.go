package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, role string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin",
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protected(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	reached := false
	h := RequireAdmin(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		require.Equal(t, "admin", r.Context().Value(UserKey))
		require.Equal(t, "admin", r.Context().Value(RoleKey))
		w.WriteHeader(http.StatusOK)
	}))
	return h, &reached
}

func TestRequireAdminBearerHeader(t *testing.T) {
	h, reached := protected(t)

	req := httptest.NewRequest(http.MethodDelete, "/albums/1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "admin", time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, *reached)
}

func TestRequireAdminCookie(t *testing.T) {
	h, reached := protected(t)

	req := httptest.NewRequest(http.MethodDelete, "/albums/1", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, testSecret, "admin", time.Hour)})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, *reached)
}

func TestRequireAdminMissingToken(t *testing.T) {
	h, reached := protected(t)

	req := httptest.NewRequest(http.MethodDelete, "/albums/1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, *reached)
}

func TestRequireAdminWrongSecret(t *testing.T) {
	h, reached := protected(t)

	req := httptest.NewRequest(http.MethodDelete, "/albums/1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", "admin", time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, *reached)
}

func TestRequireAdminExpiredToken(t *testing.T) {
	h, reached := protected(t)

	req := httptest.NewRequest(http.MethodDelete, "/albums/1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "admin", -time.Minute))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, *reached)
}

func TestRequireAdminNonAdminRole(t *testing.T) {
	h, reached := protected(t)

	req := httptest.NewRequest(http.MethodDelete, "/albums/1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "viewer", time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, *reached)
}
