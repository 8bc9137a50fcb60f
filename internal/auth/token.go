package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

// TokenUser is the user reference carried in a token.
type TokenUser struct {
	ID int `json:"id"`
}

// Claims is the token payload: {"user":{"id":N}} plus the registered claims.
type Claims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. The secret must not be empty.
func NewIssuer(secret string, expiry time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is empty: %w", budgetbuddy.ErrInvalidConfig)
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("token expiry must be positive: %w", budgetbuddy.ErrInvalidConfig)
	}
	return &Issuer{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// RandomSecret returns a 32-byte hex secret for development use.
func RandomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Issue returns a signed token for userID and its expiry time.
func (i *Issuer) Issue(userID int) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.expiry)
	claims := Claims{
		User: TokenUser{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks the signature and expiry of token and returns the user id.
// Every failure wraps budgetbuddy.ErrUnauthorized.
func (i *Issuer) Verify(token string) (int, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: no token", budgetbuddy.ErrUnauthorized)
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("%w: token expired", budgetbuddy.ErrUnauthorized)
		}
		return 0, fmt.Errorf("%w: token is not valid", budgetbuddy.ErrUnauthorized)
	}
	if claims.User.ID <= 0 {
		return 0, fmt.Errorf("%w: token carries no user", budgetbuddy.ErrUnauthorized)
	}
	return claims.User.ID, nil
}
