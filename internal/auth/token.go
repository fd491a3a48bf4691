package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"casino-maintenance-backend/internal/apperr"
)

// TokenType is the OAuth2 token type reported to clients.
const TokenType = "bearer"

// MsgInvalidToken is returned for any token that fails verification.
const MsgInvalidToken = "Could not validate credentials"

// Token is a signed access token and its absolute expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenIssuer mints and verifies HS256 access tokens. The signing key is
// fixed for the lifetime of the issuer.
type TokenIssuer struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// NewTokenIssuer creates an issuer. A nil now uses time.Now.
func NewTokenIssuer(signingKey []byte, issuer string, now func() time.Time) (*TokenIssuer, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("token signing key must not be empty")
	}
	if now == nil {
		now = time.Now
	}
	key := make([]byte, len(signingKey))
	copy(key, signingKey)
	return &TokenIssuer{signingKey: key, issuer: issuer, now: now}, nil
}

// Issue returns a token for subject that expires ttl from now.
func (ti *TokenIssuer) Issue(subject string, ttl time.Duration) (Token, error) {
	if subject == "" {
		return Token{}, errors.New("token subject must not be empty")
	}
	now := ti.now()
	expiresAt := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    ti.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.signingKey)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return Token{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, algorithm and expiry, and returns the subject.
func (ti *TokenIssuer) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	}
	if ti.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ti.issuer))
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return ti.signingKey, nil
	}, opts...)
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindUnauthenticated, MsgInvalidToken)
	}
	if !token.Valid || claims.Subject == "" {
		return "", apperr.Unauthenticated(MsgInvalidToken)
	}
	return claims.Subject, nil
}
