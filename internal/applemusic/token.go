package applemusic

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenLifetime is used when no lifetime is configured.
	DefaultTokenLifetime = 24 * time.Hour
	// MaxTokenLifetime is the longest lifetime Apple accepts for a developer token.
	MaxTokenLifetime = 15777000 * time.Second

	teamIDLength  = 10
	refreshBuffer = 5 * time.Minute
)

// Secret holds the credentials used to sign developer tokens.
type Secret struct {
	PrivateKeyPEM []byte
	TeamID        string
	KeyID         string
}

// Validate checks the team ID and key ID. The key itself is checked when parsed.
func (s Secret) Validate() error {
	if len(s.TeamID) != teamIDLength {
		return fmt.Errorf("%w: team ID must be %d characters, got %d", ErrInvalidSecret, teamIDLength, len(s.TeamID))
	}
	if s.KeyID == "" {
		return fmt.Errorf("%w: key ID is required", ErrInvalidSecret)
	}
	return nil
}

// LoadSecret reads a .p8 private key from disk.
func LoadSecret(teamID, keyID, path string) (Secret, error) {
	if path == "" {
		return Secret{}, fmt.Errorf("%w: private key path is required", ErrInvalidPrivateKey)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Secret{}, fmt.Errorf("read private key: %w", err)
	}
	return Secret{PrivateKeyPEM: data, TeamID: teamID, KeyID: keyID}, nil
}

// TokenFactory signs ES256 developer tokens.
type TokenFactory struct {
	teamID     string
	keyID      string
	privateKey *ecdsa.PrivateKey
	lifetime   time.Duration
	now        func() time.Time
}

// NewTokenFactory validates the secret and lifetime and parses the private key.
// A zero lifetime means DefaultTokenLifetime.
func NewTokenFactory(secret Secret, lifetime time.Duration) (*TokenFactory, error) {
	if err := secret.Validate(); err != nil {
		return nil, err
	}
	if lifetime == 0 {
		lifetime = DefaultTokenLifetime
	}
	if lifetime < 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", lifetime)
	}
	if lifetime > MaxTokenLifetime {
		return nil, ErrExpirationTooLong
	}

	privateKey, err := ParsePrivateKey(secret.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}

	return &TokenFactory{
		teamID:     secret.TeamID,
		keyID:      secret.KeyID,
		privateKey: privateKey,
		lifetime:   lifetime,
		now:        time.Now,
	}, nil
}

// Lifetime returns the configured token lifetime.
func (f *TokenFactory) Lifetime() time.Duration {
	return f.lifetime
}

// GenerateToken returns a freshly signed developer token.
func (f *TokenFactory) GenerateToken() (string, error) {
	token, _, err := f.sign()
	return token, err
}

func (f *TokenFactory) sign() (string, time.Time, error) {
	now := f.now()
	expiry := now.Add(f.lifetime)

	claims := jwt.MapClaims{
		"iss": f.teamID,
		"iat": now.Unix(),
		"exp": expiry.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = f.keyID

	signed, err := token.SignedString(f.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiry, nil
}

// ValidateToken reports whether token carries a valid ES256 signature from this
// factory's key and has not expired. It never returns an error.
func (f *TokenFactory) ValidateToken(token string) bool {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(f.now),
	)
	parsed, err := parser.Parse(token, func(_ *jwt.Token) (any, error) {
		return &f.privateKey.PublicKey, nil
	})
	if err != nil {
		return false
	}
	return parsed != nil && parsed.Valid
}

// TokenClaims is the decoded, unverified content of a developer token.
type TokenClaims struct {
	KeyID     string    `json:"kid"`
	Issuer    string    `json:"iss"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// DecodeClaims reads the header and registered claims without verifying the signature.
func DecodeClaims(token string) (TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("decode token: %w", err)
	}

	out := TokenClaims{Issuer: claims.Issuer}
	if kid, ok := parsed.Header["kid"].(string); ok {
		out.KeyID = kid
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// ParsePrivateKey decodes a PEM block holding a P-256 key in PKCS#8 (the .p8
// format Apple issues) or SEC1 form.
func ParsePrivateKey(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidPrivateKey)
	}

	var ecdsaKey *ecdsa.PrivateKey
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		var ok bool
		ecdsaKey, ok = key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: key is not ECDSA (got %T)", ErrInvalidPrivateKey, key)
		}
	} else {
		ecKey, ecErr := x509.ParseECPrivateKey(block.Bytes)
		if ecErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
		}
		ecdsaKey = ecKey
	}

	if ecdsaKey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: curve %s is not P-256", ErrInvalidPrivateKey, ecdsaKey.Curve.Params().Name)
	}
	return ecdsaKey, nil
}

// TokenProvider supplies the bearer token for each request.
type TokenProvider interface {
	Token() (string, error)
}

// StaticToken is a pre-generated developer token.
type StaticToken string

// Token implements TokenProvider.
func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", ErrMissingToken
	}
	return string(t), nil
}

// TokenSource caches a signed token and re-signs it shortly before it expires.
type TokenSource struct {
	factory *TokenFactory

	mu     sync.RWMutex
	cached string
	expiry time.Time
}

// NewTokenSource wraps a factory with a cache.
func NewTokenSource(factory *TokenFactory) *TokenSource {
	return &TokenSource{factory: factory}
}

// Token returns the cached token, signing a new one when the cached token is
// within the refresh margin of expiry.
func (s *TokenSource) Token() (string, error) {
	s.mu.RLock()
	if s.fresh() {
		token := s.cached
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fresh() {
		return s.cached, nil
	}

	token, expiry, err := s.factory.sign()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	s.cached = token
	s.expiry = expiry
	return token, nil
}

func (s *TokenSource) fresh() bool {
	return s.cached != "" && s.factory.now().Add(s.margin()).Before(s.expiry)
}

// margin is five minutes, capped at a quarter of the lifetime so short-lived
// tokens are still reused.
func (s *TokenSource) margin() time.Duration {
	if quarter := s.factory.lifetime / 4; quarter < refreshBuffer {
		return quarter
	}
	return refreshBuffer
}
