package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"social-server/utils/authz"
	"social-server/utils/errors"
)

// TokenBlacklist reports whether a token has been revoked.
type TokenBlacklist interface {
	Contains(ctx context.Context, token string) (bool, error)
}

// Authenticate verifies the bearer token on every protected route: it must be
// present, well formed, signed with the server secret, unexpired and not
// revoked. On success the decoded identity is attached to the request context.
func Authenticate(jwtSecret string, blacklist TokenBlacklist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				WriteError(w, errors.ErrUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			revoked, err := blacklist.Contains(r.Context(), tokenString)
			if err != nil {
				WriteError(w, errors.Wrap(err, "BLACKLIST_ERROR", "Failed to check token", http.StatusInternalServerError))
				return
			}
			if revoked {
				WriteError(w, errors.ErrUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.NewAPIError("INVALID_TOKEN", "Unexpected signing method", http.StatusUnauthorized)
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				WriteError(w, errors.ErrUnauthorized)
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				WriteError(w, errors.ErrUnauthorized)
				return
			}
			userID, ok := claims["userID"].(string)
			if !ok {
				WriteError(w, errors.ErrUnauthorized)
				return
			}
			isAdmin, _ := claims["isAdmin"].(bool)

			ctx := authz.WithIdentity(r.Context(), authz.Identity{UserID: userID, IsAdmin: isAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
