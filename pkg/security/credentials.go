// Package security verifies the admin secret and authorizes bearer tokens
package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrInvalidDigest = errors.New("admin password digest must be a SHA-256 hex digest or an argon2id hash")

// CredentialChecker compares submitted secrets with the configured admin
// digest. It keeps no state and never locks anyone out.
type CredentialChecker struct {
	digest string
	argon  bool
}

func NewCredentialChecker(digest string) (*CredentialChecker, error) {
	digest = strings.TrimSpace(digest)

	if strings.HasPrefix(digest, argonPrefix) {
		return &CredentialChecker{digest: digest, argon: true}, nil
	}

	if len(digest) != sha256.Size*2 {
		return nil, ErrInvalidDigest
	}

	if _, err := hex.DecodeString(digest); err != nil {
		return nil, ErrInvalidDigest
	}

	return &CredentialChecker{digest: strings.ToLower(digest)}, nil
}

// SHA256Hex is the digest format the plain configuration uses
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether secret matches the admin digest. An empty secret
// never matches.
func (c *CredentialChecker) Verify(secret string) (bool, error) {
	if secret == "" {
		return false, nil
	}

	if c.argon {
		return verifyArgon(secret, c.digest)
	}

	return subtle.ConstantTimeCompare([]byte(SHA256Hex(secret)), []byte(c.digest)) == 1, nil
}
