package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/music-agent-go/internal/config"
)

func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		JWTSecret:               "0123456789abcdef0123456789abcdef",
		JWTAccessTokenExpirySec: 3600,
	}
}

func TestIssueAndVerify(t *testing.T) {
	cfg := testGatewayConfig()

	token, expiresAt, err := IssueToken(cfg, TokenPayload{Sub: "client-1", ClientName: "Kitchen iPad"}, 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	payload, err := VerifyToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "client-1", payload.Sub)
	assert.Equal(t, "Kitchen iPad", payload.ClientName)
}

func TestIssueToken_Validation(t *testing.T) {
	_, _, err := IssueToken(config.GatewayConfig{JWTSecret: "short"}, TokenPayload{Sub: "a", ClientName: "b"}, time.Minute)
	require.Error(t, err)

	_, _, err = IssueToken(testGatewayConfig(), TokenPayload{Sub: "a"}, time.Minute)
	require.Error(t, err)
}

func TestVerifyToken_Failures(t *testing.T) {
	cfg := testGatewayConfig()

	claims := tokenClaims{
		ClientName: "b",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "a",
			Issuer:    Issuer,
			Audience:  []string{Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)
	_, err = VerifyToken(cfg, stale)
	require.ErrorIs(t, err, ErrTokenExpired)

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	claims.Audience = []string{"someone-else"}
	wrongAudience, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)
	_, err = VerifyToken(cfg, wrongAudience)
	require.ErrorIs(t, err, ErrTokenInvalid)

	other := cfg
	other.JWTSecret = "ffffffffffffffffffffffffffffffff"
	good, _, err := IssueToken(cfg, TokenPayload{Sub: "a", ClientName: "b"}, time.Minute)
	require.NoError(t, err)
	_, err = VerifyToken(other, good)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = VerifyToken(config.GatewayConfig{}, good)
	require.ErrorIs(t, err, ErrNoSecret)
}

func TestMiddleware(t *testing.T) {
	cfg := testGatewayConfig()
	token, _, err := IssueToken(cfg, TokenPayload{Sub: "client-1", ClientName: "CLI"}, time.Minute)
	require.NoError(t, err)

	var seen User
	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
		code   string
	}{
		{"public health", "/v1/health/live", "", http.StatusNoContent, ""},
		{"missing header", "/v1/tools", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"bad format", "/v1/tools", "Token " + token, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"bad token", "/v1/tools", "Bearer nope", http.StatusUnauthorized, "AUTH_TOKEN_INVALID"},
		{"valid", "/v1/tools", "Bearer " + token, http.StatusNoContent, ""},
		{"query token on websocket", "/v1/now-playing/ws?access_token=" + token, "", http.StatusNoContent, ""},
		{"query token elsewhere", "/v1/tools?access_token=" + token, "", http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), tt.code)
			}
		})
	}

	assert.Equal(t, User{Sub: "client-1", ClientName: "CLI"}, seen)
}
