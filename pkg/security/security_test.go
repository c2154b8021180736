package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cheap parameters, the defaults make the suite slow
var testParams = ArgonParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestCredentialCheckerSHA256(t *testing.T) {
	c, err := NewCredentialChecker(SHA256Hex("hunter2"))
	require.NoError(t, err)

	ok, err := c.Verify("hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Verify("hunter3")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Verify("")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentialCheckerUppercaseDigest(t *testing.T) {
	digest := "F52FBD32B2B3B86FF88EF6C490628285F482AF15DDCB29541F94BCF526A3F6C7"

	c, err := NewCredentialChecker(digest)
	require.NoError(t, err)

	ok, err := c.Verify("hunter2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCredentialCheckerArgon(t *testing.T) {
	digest, err := HashPassword("hunter2", testParams)
	require.NoError(t, err)
	assert.Contains(t, digest, "$argon2id$v=19$m=1024,t=1,p=1$")

	c, err := NewCredentialChecker(digest)
	require.NoError(t, err)

	ok, err := c.Verify("hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Verify("hunter3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentialCheckerRejectsBadDigest(t *testing.T) {
	for _, d := range []string{"", "plaintext", "zz" + SHA256Hex("x")[2:]} {
		_, err := NewCredentialChecker(d)
		assert.ErrorIs(t, err, ErrInvalidDigest, d)
	}

	c, err := NewCredentialChecker("$argon2id$broken")
	require.NoError(t, err)

	_, err = c.Verify("x")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestPresenceAuthorizer(t *testing.T) {
	a, err := NewAuthorizer("", "", 0)
	require.NoError(t, err)

	token, err := a.Issue("hunter2")
	require.NoError(t, err)
	assert.Len(t, token, 64)

	assert.NoError(t, a.Authorize(token))
	assert.NoError(t, a.Authorize("anything"))
	assert.ErrorIs(t, a.Authorize(""), ErrInvalidToken)
}

func TestJWTAuthorizer(t *testing.T) {
	a, err := NewAuthorizer(AuthModeJWT, "secret", time.Hour)
	require.NoError(t, err)

	token, err := a.Issue("hunter2")
	require.NoError(t, err)
	assert.NoError(t, a.Authorize(token))

	assert.ErrorIs(t, a.Authorize("anything"), ErrInvalidToken)

	other := &JWTAuthorizer{Secret: []byte("other"), TTL: time.Hour}
	foreign, err := other.Issue("")
	require.NoError(t, err)
	assert.ErrorIs(t, a.Authorize(foreign), ErrInvalidToken)
}

func TestJWTAuthorizerRejectsExpired(t *testing.T) {
	a := &JWTAuthorizer{Secret: []byte("secret")}

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString(a.Secret)
	require.NoError(t, err)

	assert.ErrorIs(t, a.Authorize(expired), ErrInvalidToken)
}

func TestJWTAuthorizerRejectsOtherSubject(t *testing.T) {
	a := &JWTAuthorizer{Secret: []byte("secret")}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "someone",
	}).SignedString(a.Secret)
	require.NoError(t, err)

	assert.ErrorIs(t, a.Authorize(token), ErrInvalidToken)
}

func TestNewAuthorizerErrors(t *testing.T) {
	_, err := NewAuthorizer(AuthModeJWT, "", time.Hour)
	assert.Error(t, err)

	_, err = NewAuthorizer("magic", "", 0)
	assert.Error(t, err)
}
