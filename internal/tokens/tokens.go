// Package tokens issues and verifies the two classes of signed bearer
// tokens: short-lived access tokens and long-lived refresh tokens. Each
// class signs with its own secret so that a leaked secret for one class
// cannot forge tokens of the other.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers malformed, forged and expired tokens alike.
// Callers outside the trust boundary must not be able to tell these
// cases apart.
var ErrInvalidToken = errors.New("invalid token")

// Payload is the application claim set carried by both token classes.
// ID and UserID both hold the user's identity; they are duplicated for
// compatibility with the two call sites that read them.
type Payload struct {
	ID              uint   `json:"id"`
	UserID          uint   `json:"userId"`
	Email           string `json:"email"`
	PasswordVersion int    `json:"passwordVersion"`
}

type Claims struct {
	Payload
	jwt.RegisteredClaims
}

// Config is the immutable signing context for one token class.
type Config struct {
	Secret   []byte
	Lifetime time.Duration
}

type Codec struct {
	access  Config
	refresh Config
	now     func() time.Time
}

func NewCodec(access, refresh Config) *Codec {
	return &Codec{access: access, refresh: refresh, now: time.Now}
}

func (c *Codec) IssueAccess(p Payload) (string, error) {
	return c.issue(c.access, p, "")
}

// IssueRefresh mints a refresh token with a fresh jti, so two tokens
// issued for the same payload are still distinct strings.
func (c *Codec) IssueRefresh(p Payload) (string, error) {
	return c.issue(c.refresh, p, uuid.NewString())
}

func (c *Codec) issue(cfg Config, p Payload, jti string) (string, error) {
	issuedAt := c.now().Truncate(time.Second)
	claims := Claims{
		Payload: p,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(cfg.Lifetime)),
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
}

func (c *Codec) VerifyAccess(raw string) (*Payload, error) {
	return c.verify(c.access, raw)
}

func (c *Codec) VerifyRefresh(raw string) (*Payload, error) {
	return c.verify(c.refresh, raw)
}

func (c *Codec) verify(cfg Config, raw string) (*Payload, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return cfg.Secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims.Payload, nil
}
