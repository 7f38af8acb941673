package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "jwt-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

// runAuth sends one request through JWTAuth into a probe handler that
// records whether it ran and what identity the middleware stored.
func runAuth(authHeader string) (*httptest.ResponseRecorder, map[string]interface{}) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	seen := map[string]interface{}{}
	handler := JWTAuth(testSecret)(func(c echo.Context) error {
		seen["user_id"] = c.Get("user_id")
		seen["role"] = c.Get("role")
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, seen
}

func TestJWTAuth(t *testing.T) {
	t.Parallel()

	t.Run("valid token passes identity through", func(t *testing.T) {
		tok := signToken(t, testSecret, jwt.MapClaims{
			"sub":  "owner-1",
			"role": "USER",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		rec, seen := runAuth("Bearer " + tok)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "owner-1", seen["user_id"])
		assert.Equal(t, "USER", seen["role"])
	})

	t.Run("missing header", func(t *testing.T) {
		rec, seen := runAuth("")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, seen)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok := signToken(t, "some-other-secret", jwt.MapClaims{"sub": "owner-1"})
		rec, _ := runAuth("Bearer " + tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		tok := signToken(t, testSecret, jwt.MapClaims{
			"sub": "owner-1",
			"exp": time.Now().Add(-time.Minute).Unix(),
		})
		rec, _ := runAuth("Bearer " + tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unsigned token", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "owner-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		rec, _ := runAuth("Bearer " + unsigned)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	run := func(role interface{}, allowed ...string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		handler := RequireRole(allowed...)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		_ = handler(c)
		return rec
	}

	assert.Equal(t, http.StatusOK, run("MERCHANT", "MERCHANT").Code)
	assert.Equal(t, http.StatusOK, run("USER", "USER", "MERCHANT").Code)
	assert.Equal(t, http.StatusForbidden, run("USER", "MERCHANT").Code)
	assert.Equal(t, http.StatusForbidden, run(nil, "MERCHANT").Code)
	assert.Equal(t, http.StatusForbidden, run(42, "MERCHANT").Code)
}
