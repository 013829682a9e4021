// Package auth verifies the identity tokens issued by the account system.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinSecretLength is the minimum accepted HMAC secret length in bytes.
	MinSecretLength = 32

	issuer = "savoir"
)

var (
	ErrSecretTooShort = errors.New("auth: signing secret must be at least 32 bytes")
	ErrInvalidToken   = errors.New("auth: invalid token")
	ErrInvalidSubject = errors.New("auth: token subject is not a user id")
)

// TokenVerifier checks HS256 tokens whose subject is the numeric user ID.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewTokenVerifier creates a TokenVerifier for the shared secret.
func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	return &TokenVerifier{secret: []byte(secret), now: time.Now}, nil
}

// Verify returns the user ID carried by a valid, unexpired token.
func (v *TokenVerifier) Verify(tokenStr string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidSubject
	}
	return id, nil
}

// Issue signs a token for userID valid for ttl. The shop never logs users
// in itself; this serves local development and tests.
func (v *TokenVerifier) Issue(userID int64, ttl time.Duration) (string, error) {
	now := v.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
