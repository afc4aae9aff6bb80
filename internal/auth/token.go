package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification errors.
var (
	// ErrInvalidSignature indicates the token signature does not match.
	ErrInvalidSignature = errors.New("token signature is invalid")
	// ErrTokenExpired indicates the token expiry has elapsed.
	ErrTokenExpired = errors.New("token is expired")
	// ErrMalformedClaims indicates the token or its required claims are malformed.
	ErrMalformedClaims = errors.New("token claims are malformed")
)

// Claims is the validated claim set carried by an access token.
type Claims struct {
	Username  string
	UserID    int64
	ExpiresAt time.Time
}

// tokenClaims is the internal claims type used for JWT encoding.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// TokenService issues and verifies signed, time-limited bearer tokens.
// It is constructed once at startup from configuration and is safe for
// concurrent use; verification is stateless, so tokens cannot be revoked
// before expiry.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService from the process-wide signing
// configuration. A missing secret or an unsupported algorithm is a fatal
// configuration error: the caller must not serve traffic on it.
func NewTokenService(secret, algorithm string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is not configured")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token TTL must be positive, got %s", ttl)
	}

	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", algorithm)
	}

	return &TokenService{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue builds and signs a token for the given identity.
// A non-positive ttl falls back to the configured default.
func (s *TokenService) Issue(username string, userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := s.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify decodes the token, checks its signature and expiry, and returns
// the validated claims.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &parsed, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedClaims
		default:
			// Signature mismatch and any other validation failure are
			// indistinguishable to the caller.
			return nil, ErrInvalidSignature
		}
	}

	// Subject, user_id, and exp are required claims.
	if parsed.Subject == "" || parsed.UserID == 0 || parsed.ExpiresAt == nil {
		return nil, ErrMalformedClaims
	}

	return &Claims{
		Username:  parsed.Subject,
		UserID:    parsed.UserID,
		ExpiresAt: parsed.ExpiresAt.Time,
	}, nil
}

// TTL returns the configured default token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
