// Package jwt emite y valida los tokens de owner que autentican la API de
// proyectos (HS256, sub = owner id del namespace interno).
package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSecret       = errors.New("jwt: signing secret not configured")
	ErrInvalidToken   = errors.New("jwt: invalid token")
	ErrMissingSubject = errors.New("jwt: token has no subject")
)

// Issuer firma y valida tokens de owner con un secreto compartido.
type Issuer struct {
	Iss    string
	secret []byte
	now    func() time.Time
}

// NewIssuer crea un Issuer. Un secreto vacío deja el Issuer inutilizable
// (Issue/Parse retornan ErrNoSecret).
func NewIssuer(iss, secret string) *Issuer {
	return &Issuer{Iss: iss, secret: []byte(secret), now: time.Now}
}

// Issue firma un token para ownerID válido por ttl.
func (i *Issuer) Issue(ownerID string, ttl time.Duration) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrNoSecret
	}
	if strings.TrimSpace(ownerID) == "" {
		return "", ErrMissingSubject
	}
	now := i.now()
	claims := jwtv5.RegisteredClaims{
		Issuer:    i.Iss,
		Subject:   ownerID,
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

// Parse valida firma, exp e iss y retorna el owner id (sub).
func (i *Issuer) Parse(raw string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrNoSecret
	}
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithTimeFunc(i.now),
		jwtv5.WithLeeway(30 * time.Second),
		jwtv5.WithExpirationRequired(),
	}
	if i.Iss != "" {
		opts = append(opts, jwtv5.WithIssuer(i.Iss))
	}

	var claims jwtv5.RegisteredClaims
	tok, err := jwtv5.ParseWithClaims(raw, &claims, func(*jwtv5.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}
