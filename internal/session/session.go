// Package session encodes marketplace sessions as signed HS256 tokens so a
// shell can resume the current user between runs.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
)

// DefaultTTL is used when the codec is built with a non-positive TTL.
const DefaultTTL = 24 * time.Hour

type claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCodec builds a codec signing with key.
func NewCodec(key []byte, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{key: key, ttl: ttl, now: time.Now}
}

// Encode issues a token for s and returns it with its expiry.
func (c *Codec) Encode(s model.Session) (string, time.Time, error) {
	if len(c.key) == 0 {
		return "", time.Time{}, errors.New("session: empty signing key")
	}
	now := c.now()
	exp := now.Add(c.ttl)
	cl := claims{
		Username: s.Username,
		Role:     string(s.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.key)
	return signed, exp, err
}

// Decode verifies tok and returns the session it carries.
// Any defect in the token is reported as errs.ErrUnauthorized.
func (c *Codec) Decode(tok string) (model.Session, error) {
	var cl claims
	parsed, err := jwt.ParseWithClaims(tok, &cl, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.key, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil || !parsed.Valid {
		return model.Session{}, fmt.Errorf("invalid session token: %w", errs.ErrUnauthorized)
	}
	id, err := uuid.FromString(cl.Subject)
	if err != nil {
		return model.Session{}, fmt.Errorf("bad subject: %w", errs.ErrUnauthorized)
	}
	role := model.Role(cl.Role)
	if !role.Valid() {
		return model.Session{}, fmt.Errorf("bad role %q: %w", cl.Role, errs.ErrUnauthorized)
	}
	return model.Session{UserID: id, Username: cl.Username, Role: role}, nil
}
