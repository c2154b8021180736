package internal

import (
	"designerdada/photo-api/internal/service"
	"designerdada/photo-api/pkg/security"
)

type Deps struct {
	Photos      *service.PhotoService
	Credentials *security.CredentialChecker
	Auth        security.Authorizer

	CORSOrigins []string

	// AuthRateLimit is the number of login attempts per second a client
	// may make, 0 disables the limiter
	AuthRateLimit int

	// MaxUploadSize in bytes
	MaxUploadSize int64
}
