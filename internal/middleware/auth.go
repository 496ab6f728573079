package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

type contextKey string

const userContextKey contextKey = "user"

// BearerAuth validates access tokens minted by the external identity
// provider and stores the authenticated user ID in the request context. The
// token's sub claim is the user identifier; everything else about the user
// lives with the provider.
func BearerAuth(secret, issuer string, logger zerolog.Logger) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("missing bearer token")
				http.Error(w, "unauthorised: missing bearer token", http.StatusUnauthorized)
				return
			}

			userID, err := validateToken(tokenString, key, issuer)
			if err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("invalid bearer token")
				http.Error(w, "unauthorised: invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// extractToken pulls the token from the Authorization header or the
// access_token cookie set by the storefront.
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// validateToken parses and verifies the token, returning the subject claim.
func validateToken(tokenString string, key []byte, issuer string) (string, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, parserOpts...)
	if err != nil {
		return "", err
	}

	if claims.Subject == "" {
		return "", jwt.ErrTokenInvalidSubject
	}

	return claims.Subject, nil
}

// WithUserID returns a context carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

// UserID returns the authenticated user ID stored by BearerAuth, or an
// empty string on unauthenticated requests.
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(userContextKey).(string)
	return userID
}
