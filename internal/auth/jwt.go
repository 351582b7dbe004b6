package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/strefethen/music-agent-go/internal/config"
)

const (
	Issuer   = "music-agent"
	Audience = "music-agent-client"
)

// TokenPayload represents the validated payload data.
type TokenPayload struct {
	Sub        string
	ClientName string
	ExpiresAt  time.Time
}

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrNoSecret     = errors.New("JWT secret is not configured")
)

type tokenClaims struct {
	ClientName string `json:"clientName"`
	jwt.RegisteredClaims
}

// IssueToken signs a gateway access token. A zero ttl uses the configured
// access token expiry.
func IssueToken(cfg config.GatewayConfig, payload TokenPayload, ttl time.Duration) (string, time.Time, error) {
	if err := cfg.Validate(); err != nil {
		return "", time.Time{}, err
	}
	if payload.Sub == "" || payload.ClientName == "" {
		return "", time.Time{}, errors.New("token subject and client name are required")
	}
	if ttl <= 0 {
		ttl = time.Duration(cfg.JWTAccessTokenExpirySec) * time.Second
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		ClientName: payload.ClientName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.Sub,
			Issuer:    Issuer,
			Audience:  []string{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyToken parses and validates a gateway token.
func VerifyToken(cfg config.GatewayConfig, token string) (TokenPayload, error) {
	if cfg.JWTSecret == "" {
		return TokenPayload{}, ErrNoSecret
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithAudience(Audience),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)

	claims := &tokenClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenPayload{}, ErrTokenExpired
		}
		return TokenPayload{}, ErrTokenInvalid
	}
	if parsed == nil || !parsed.Valid {
		return TokenPayload{}, ErrTokenInvalid
	}

	payload := TokenPayload{
		Sub:        claims.Subject,
		ClientName: claims.ClientName,
		ExpiresAt:  claims.ExpiresAt.Time,
	}
	if payload.Sub == "" || payload.ClientName == "" {
		return TokenPayload{}, ErrTokenInvalid
	}
	return payload, nil
}
