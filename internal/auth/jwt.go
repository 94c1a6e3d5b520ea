package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is how long a session token stays valid after issuance.
const TTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload proving an authenticated identity.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and validates session tokens with a single process-wide
// HS256 key.
type Issuer struct {
	key []byte
	now func() time.Time
}

// NewIssuer creates an issuer for the given signing key.
func NewIssuer(key string) *Issuer {
	return &Issuer{key: []byte(key), now: time.Now}
}

// NewIssuerAt is like NewIssuer with an injectable clock for tests.
func NewIssuerAt(key string, now func() time.Time) *Issuer {
	return &Issuer{key: []byte(key), now: now}
}

// Issue signs a token carrying the user's identity and role, expiring
// TTL after issuance.
func (i *Issuer) Issue(userID, email, role string) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
}

// Parse validates a token and returns its claims. Tampering, a malformed
// payload, or expiry at or before now all yield ErrInvalidToken.
func (i *Issuer) Parse(tokenStr string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.key, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(i.now()) {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
