package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const userContextKey contextKey = "user"

const jwtClaimUserID = "user_id"

var (
	errMissingToken = errors.New("missing bearer token")
	errForbidden    = errors.New("token does not belong to this user")
)

// Identity checks that requests act on the caller's own league. With no
// secret configured every request is let through.
type Identity struct {
	secret []byte
}

// NewIdentity creates an identity checker for HS256 tokens
func NewIdentity(secret string) *Identity {
	return &Identity{secret: []byte(secret)}
}

// Enabled reports whether tokens are required
func (i *Identity) Enabled() bool {
	return i != nil && len(i.secret) > 0
}

// Authenticate parses the bearer token and stores its user in the request
// context
func (i *Identity) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			respondError(w, http.StatusUnauthorized, errMissingToken.Error())
			return
		}
		userID, err := i.userFromToken(raw)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GuardWebsocket checks the "token" query parameter against the "user"
// one before the upgrade
func (i *Identity) GuardWebsocket(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !i.Enabled() {
			next(w, r)
			return
		}
		userID, err := i.userFromToken(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if userID != r.URL.Query().Get("user") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func (i *Identity) userFromToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	userID, ok := claims[jwtClaimUserID].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}
	return userID, nil
}

// IssueToken signs a token for a user. Used by tests and local tooling.
func (i *Identity) IssueToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{jwtClaimUserID: userID})
	return token.SignedString(i.secret)
}

// authorize compares the authenticated user with the owner of the resource
func authorize(ctx context.Context, owner string) error {
	userID, ok := ctx.Value(userContextKey).(string)
	if !ok {
		return nil
	}
	if userID != owner {
		return errForbidden
	}
	return nil
}
