package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eveexchange/backend/internal/domain"
)

// fakeVerifier accepts one known token and one known key.
type fakeVerifier struct {
	token string
	key   string
}

func (f *fakeVerifier) VerifyToken(token string) (int64, error) {
	if token == f.token {
		return 42, nil
	}
	return 0, domain.ErrUnauthorized
}

func (f *fakeVerifier) VerifyKey(_ context.Context, key string) (int64, error) {
	if key == f.key {
		return 7, nil
	}
	return 0, domain.ErrUnauthorized
}

func authedHandler(t *testing.T, wantUser int64) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		require.True(t, ok, "user id must be set after auth")
		assert.Equal(t, wantUser, id)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthAcceptsTokenScheme(t *testing.T) {
	v := &fakeVerifier{token: "good-jwt"}
	h := Auth(v)(authedHandler(t, 42))

	r := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	r.Header.Set("Authorization", "Token good-jwt")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthAcceptsKeyScheme(t *testing.T) {
	v := &fakeVerifier{key: "abc123.secret"}
	h := Auth(v)(authedHandler(t, 7))

	r := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	r.Header.Set("Authorization", "Key abc123.secret")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthSchemeIsCaseInsensitive(t *testing.T) {
	v := &fakeVerifier{token: "good-jwt"}
	h := Auth(v)(authedHandler(t, 42))

	r := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	r.Header.Set("Authorization", "TOKEN good-jwt")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	h := Auth(&fakeVerifier{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsBadCredentials(t *testing.T) {
	v := &fakeVerifier{token: "good-jwt"}
	h := Auth(v)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	r.Header.Set("Authorization", "Token forged")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsUnknownScheme(t *testing.T) {
	h := Auth(&fakeVerifier{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	r.Header.Set("Authorization", "Bearer whatever")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthExemptPathsPassThrough(t *testing.T) {
	var called bool
	h := Auth(&fakeVerifier{}, "/api/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := UserID(r.Context())
		assert.False(t, ok, "exempt requests carry no user id")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
}
