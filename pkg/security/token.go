package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	AuthModePresence = "presence"
	AuthModeJWT      = "jwt"

	adminSubject = "admin"
)

// Authorizer issues session tokens after a successful login and decides
// whether a bearer token may mutate the gallery
type Authorizer interface {
	Issue(secret string) (string, error)
	Authorize(token string) error
}

// NewAuthorizer returns the authorizer for mode. An empty mode means
// presence.
func NewAuthorizer(mode, jwtSecret string, ttl time.Duration) (Authorizer, error) {
	switch mode {
	case "", AuthModePresence:
		return PresenceAuthorizer{}, nil
	case AuthModeJWT:
		if jwtSecret == "" {
			return nil, errors.New("jwt auth mode requires a secret")
		}
		return &JWTAuthorizer{Secret: []byte(jwtSecret), TTL: ttl}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
}

// PresenceAuthorizer accepts any non-empty bearer token. The token it hands
// out is opaque and nothing is stored server side.
type PresenceAuthorizer struct{}

func (PresenceAuthorizer) Issue(secret string) (string, error) {
	return SHA256Hex(secret + strconv.FormatInt(time.Now().UnixNano(), 10)), nil
}

func (PresenceAuthorizer) Authorize(token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	return nil
}

// JWTAuthorizer issues HS256 tokens that expire after TTL and only accepts
// tokens it signed itself
type JWTAuthorizer struct {
	Secret []byte
	TTL    time.Duration
}

func (a *JWTAuthorizer) Issue(_ string) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:  adminSubject,
		IssuedAt: jwt.NewNumericDate(now),
	}

	if a.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(a.TTL))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token, %w", err)
	}

	return signed, nil
}

func (a *JWTAuthorizer) Authorize(token string) error {
	claims := &jwt.RegisteredClaims{}

	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithSubject(adminSubject))
	if err != nil || !t.Valid {
		return ErrInvalidToken
	}

	return nil
}
