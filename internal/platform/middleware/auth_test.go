package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signingKey = "test-signing-key"

func signToken(t *testing.T, key, subject, azp string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		AuthorizedParty: azp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	v := NewValidator(signingKey, []string{"syfomodiaperson"})

	t.Run("valid token", func(t *testing.T) {
		raw := signToken(t, signingKey, "Z999999", "syfomodiaperson", time.Now().Add(time.Hour))
		claims, err := v.ValidateToken(raw)
		require.NoError(t, err)
		assert.Equal(t, "Z999999", claims.Subject)
		assert.Equal(t, "syfomodiaperson", claims.AuthorizedParty)
	})

	t.Run("expired token", func(t *testing.T) {
		raw := signToken(t, signingKey, "Z999999", "syfomodiaperson", time.Now().Add(-time.Hour))
		_, err := v.ValidateToken(raw)
		require.Error(t, err)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		raw := signToken(t, "other-key", "Z999999", "syfomodiaperson", time.Now().Add(time.Hour))
		_, err := v.ValidateToken(raw)
		require.Error(t, err)
	})

	t.Run("client not on allow-list", func(t *testing.T) {
		raw := signToken(t, signingKey, "Z999999", "unknown-app", time.Now().Add(time.Hour))
		_, err := v.ValidateToken(raw)
		require.Error(t, err)
	})

	t.Run("empty allow-list accepts any client", func(t *testing.T) {
		open := NewValidator(signingKey, nil)
		raw := signToken(t, signingKey, "Z999999", "any-app", time.Now().Add(time.Hour))
		_, err := open.ValidateToken(raw)
		require.NoError(t, err)
	})
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := NewValidator(signingKey, nil)

	protected := RequireAuth(v, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, GetSubject(r.Context()))
	}))

	t.Run("passes claims through context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, signingKey, "Z999999", "app", time.Now().Add(time.Hour)))
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Z999999", rec.Body.String())
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCallID(t *testing.T) {
	echo := CallID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, GetCallID(r.Context()))
	}))

	t.Run("propagates incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderCallID, "abc-123")
		rec := httptest.NewRecorder()
		echo.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Body.String())
		assert.Equal(t, "abc-123", rec.Header().Get(HeaderCallID))
	})

	t.Run("generates one when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, rec.Body.String())
		assert.Equal(t, rec.Body.String(), rec.Header().Get(HeaderCallID))
	})
}
