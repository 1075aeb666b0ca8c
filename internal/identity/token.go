// Package identity issues and verifies the HS256 JWT bearer tokens that
// vouch for a caller. The subject is the user id; the display name rides
// in a "name" claim.
package identity

import (
	"errors"
	"time"

	"github.com/dkeye/OneVoice/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrEmptySecret  = errors.New("identity: empty secret")
)

type claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs who. A zero ttl means the token never expires.
func (v *Verifier) Issue(who domain.Identity, ttl time.Duration) (string, error) {
	now := v.now()
	c := claims{
		Name: who.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  who.UserID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}

func (v *Verifier) Verify(token string) (domain.Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.Identity{}, ErrExpiredToken
	case err != nil:
		return domain.Identity{}, ErrInvalidToken
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return domain.Identity{}, ErrInvalidToken
	}
	who, err := domain.NewIdentity(id, c.Name)
	if err != nil {
		return domain.Identity{}, ErrInvalidToken
	}
	return who, nil
}
