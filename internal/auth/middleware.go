package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/strefethen/music-agent-go/internal/api"
	"github.com/strefethen/music-agent-go/internal/apperrors"
	"github.com/strefethen/music-agent-go/internal/config"
)

var publicPrefixes = []string{
	"/v1/health",
}

// queryTokenRoutes accept ?access_token= because browsers cannot set headers
// on websocket upgrades.
var queryTokenRoutes = map[string]struct{}{
	"/v1/now-playing/ws": {},
}

// Middleware validates bearer tokens for protected routes.
func Middleware(cfg config.GatewayConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := bearerToken(r)
			if err != nil {
				api.WriteError(w, r, err)
				return
			}

			payload, err := VerifyToken(cfg, token)
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					api.WriteError(w, r, apperrors.NewUnauthorizedError("Token has expired", apperrors.ErrorCodeAuthTokenExpired))
					return
				}
				api.WriteError(w, r, apperrors.NewUnauthorizedError("Invalid token", apperrors.ErrorCodeAuthTokenInvalid))
				return
			}

			user := User{Sub: payload.Sub, ClientName: payload.ClientName}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if _, ok := queryTokenRoutes[r.URL.Path]; ok {
			if token := r.URL.Query().Get("access_token"); token != "" {
				return token, nil
			}
		}
		return "", apperrors.NewUnauthorizedError("Missing Authorization header")
	}
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", apperrors.NewUnauthorizedError("Invalid Authorization header format")
	}
	return strings.TrimSpace(token), nil
}

func isPublicRoute(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
