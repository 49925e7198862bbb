// ABOUTME: JWT minting and verification binding tokens to an API key hash
// ABOUTME: Uses HS256 signing with a configurable secret and TTL

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum accepted signing secret length in bytes.
const MinSecretLength = 32

// DefaultTokenTTL is the token lifetime used when the config does not set one.
const DefaultTokenTTL = time.Hour

// apiKeyHashClaim is the claim carrying the bound API key hash. The name
// matches the wire format of tokens issued by earlier deployments.
const apiKeyHashClaim = "apiKeyHash"

// Token errors
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrMissingClaim   = errors.New("missing required claim")
	ErrSecretTooShort = errors.New("signing secret too short")
)

// TokenCodec mints and verifies HS256-signed JWTs that bind to an API key
// hash. The signing secret is known only to this process; tokens are
// stateless and carry their own expiry.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec creates a codec with the given secret and token TTL.
// A TTL of zero selects DefaultTokenTTL.
func NewTokenCodec(secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrSecretTooShort, MinSecretLength, len(secret))
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{secret: secret, ttl: ttl}, nil
}

// Mint creates a signed token bound to the given API key hash using the
// codec's configured TTL.
func (c *TokenCodec) Mint(apiKeyHash string) (string, error) {
	return c.MintWithTTL(apiKeyHash, c.ttl)
}

// MintWithTTL creates a signed token with an explicit lifetime. A negative
// TTL produces an already-expired token; tests use this to exercise the
// expiry path without waiting.
func (c *TokenCodec) MintWithTTL(apiKeyHash string, ttl time.Duration) (string, error) {
	if apiKeyHash == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingClaim, apiKeyHashClaim)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		apiKeyHashClaim: apiKeyHash,
		"iat":           now.Unix(),
		"exp":           now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify validates the token signature and expiry and extracts the bound
// API key hash. Signature and expiry checks are independent; both must pass.
func (c *TokenCodec) Verify(tokenString string) (apiKeyHash string, err error) {
	if tokenString == "" {
		return "", fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})

	if err != nil {
		// Check if it's specifically an expiration error
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	hash, ok := claims[apiKeyHashClaim].(string)
	if !ok || hash == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingClaim, apiKeyHashClaim)
	}

	return hash, nil
}
