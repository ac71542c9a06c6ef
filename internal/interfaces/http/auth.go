package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/invoicetrust/trustdemo/internal/access"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned for malformed, forged or expired tokens
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims represents the JWT claims
type Claims struct {
	UserID      string      `json:"user_id"`
	Email       string      `json:"email,omitempty"`
	Role        access.Role `json:"role"`
	CompanyRole access.Role `json:"company_role,omitempty"`
	jwt.RegisteredClaims
}

// User converts the claims to the principal used by the access resolver
func (c *Claims) User() *access.User {
	u := &access.User{
		ID:    c.UserID,
		Email: c.Email,
		Role:  c.Role,
	}
	if c.CompanyRole != "" {
		u.Preferences = &access.Preferences{CompanyRole: c.CompanyRole}
	}
	return u
}

// TokenIssuer signs and verifies HS256 bearer tokens
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer
func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates a signed token for user
func (t *TokenIssuer) Issue(user access.User) (string, time.Time, error) {
	if user.ID == "" {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}
	if !user.Role.IsValid() {
		return "", time.Time{}, fmt.Errorf("unknown role: %q", user.Role)
	}

	now := t.now()
	expiresAt := now.Add(t.ttl)

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if user.Preferences != nil {
		claims.CompanyRole = user.Preferences.CompanyRole
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies a token and returns its claims
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
