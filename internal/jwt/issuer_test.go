package jwt

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	i := NewIssuer("hellojohn", "s3cret")
	tok, err := i.Issue("owner-1", time.Minute)
	require.NoError(t, err)

	sub, err := i.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", sub)
}

func TestParse_Rejects(t *testing.T) {
	i := NewIssuer("hellojohn", "s3cret")
	good, err := i.Issue("owner-1", time.Minute)
	require.NoError(t, err)

	other, err := NewIssuer("hellojohn", "other").Issue("owner-1", time.Minute)
	require.NoError(t, err)
	_, err = i.Parse(other)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	wrongIss, err := NewIssuer("someone-else", "s3cret").Issue("owner-1", time.Minute)
	require.NoError(t, err)
	_, err = i.Parse(wrongIss)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong issuer")

	later := NewIssuer("hellojohn", "s3cret")
	later.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = later.Parse(good)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	none, err := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, jwtv5.RegisteredClaims{Subject: "x"}).
		SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = i.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")

	_, err = i.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNoSecret(t *testing.T) {
	i := NewIssuer("hellojohn", "")
	_, err := i.Issue("owner-1", time.Minute)
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = i.Parse("x")
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = NewIssuer("hellojohn", "s").Issue(" ", time.Minute)
	assert.ErrorIs(t, err, ErrMissingSubject)
}
