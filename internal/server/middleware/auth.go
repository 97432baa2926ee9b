package middleware

import (
	"context"
	"net/http"
	"strings"
)

// TokenVerifier resolves credentials to a user id. Implemented by the
// auth package.
type TokenVerifier interface {
	// VerifyToken checks an HS256 session token.
	VerifyToken(token string) (int64, error)
	// VerifyKey checks a "<keyID>.<secret>" API key.
	VerifyKey(ctx context.Context, key string) (int64, error)
}

type contextKey int

const userIDKey contextKey = 0

// UserID returns the authenticated user id stored by the Auth middleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// WithUserID returns a context carrying the user id. Exported for tests.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// Auth returns middleware that authenticates requests via the
// Authorization header. Two schemes are accepted:
//
//	Authorization: Token <jwt>     - session token
//	Authorization: Key <api-key>   - long-lived API key
//
// Paths in exempt pass through without credentials.
func Auth(verifier TokenVerifier, exempt ...string) func(http.Handler) http.Handler {
	exemptSet := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		exemptSet[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			scheme, credential, ok := splitAuthorization(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w, "missing authorization header")
				return
			}

			var userID int64
			var err error
			switch scheme {
			case "token":
				userID, err = verifier.VerifyToken(credential)
			case "key":
				userID, err = verifier.VerifyKey(r.Context(), credential)
			default:
				writeUnauthorized(w, "unsupported authorization scheme")
				return
			}
			if err != nil {
				writeUnauthorized(w, "invalid credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// splitAuthorization separates "Token abc" into a lowercased scheme and
// the credential.
func splitAuthorization(header string) (scheme, credential string, ok bool) {
	if header == "" {
		return "", "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	credential = strings.TrimSpace(parts[1])
	if credential == "" {
		return "", "", false
	}
	return strings.ToLower(parts[0]), credential, true
}

// writeUnauthorized sends a 401 response with a JSON error body.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
