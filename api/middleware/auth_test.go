package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/minsukang/storefront-backend/pkg/auth"
	"github.com/minsukang/storefront-backend/pkg/config"
	"github.com/minsukang/storefront-backend/pkg/logger"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "storefront-test",
		ExpirationMinutes: 60,
	}
}

func testAuthLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authHandler(t *testing.T, captured *struct {
	userID string
	name   string
	called bool
}) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.called = true
		captured.userID = UserIDFromContext(r.Context())
		captured.name = UserNameFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	var captured struct {
		userID string
		name   string
		called bool
	}
	handler := Auth(testJWTConfig(), testAuthLogger())(authHandler(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, captured.called)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	var captured struct {
		userID string
		name   string
		called bool
	}
	handler := Auth(testJWTConfig(), testAuthLogger())(authHandler(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, captured.called)
}

func TestAuthRejectsBareBearerPrefix(t *testing.T) {
	var captured struct {
		userID string
		name   string
		called bool
	}
	handler := Auth(testJWTConfig(), testAuthLogger())(authHandler(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, captured.called)
}

func TestAuthSeedsContextFromValidToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Name:   "Dana Smith",
	})
	require.NoError(t, err)

	var captured struct {
		userID string
		name   string
		called bool
	}
	handler := Auth(cfg, testAuthLogger())(authHandler(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, captured.called)
	assert.Equal(t, userID.String(), captured.userID)
	assert.Equal(t, "Dana Smith", captured.name)
}

func TestAuthAcceptsTokenWithoutBearerPrefix(t *testing.T) {
	cfg := testJWTConfig()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
	})
	require.NoError(t, err)

	var captured struct {
		userID string
		name   string
		called bool
	}
	handler := Auth(cfg, testAuthLogger())(authHandler(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, captured.called)
}
