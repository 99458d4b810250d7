package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/juridia/legal-assistant-be/utils"
)

type contextKey string

const UserClaimsKey contextKey = "user_claims"

// AuthMiddleware rejects requests without a valid Bearer token and stores the
// parsed claims in the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			http.Error(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := utils.ParseUserToken(tokenString)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the claims stored by AuthMiddleware, if any.
func ClaimsFromContext(ctx context.Context) (*utils.UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*utils.UserClaims)
	return claims, ok
}
