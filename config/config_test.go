package config

import (
	"testing"

	v "github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, values map[string]any) {
	t.Helper()

	v.Reset()
	t.Cleanup(v.Reset)

	SetDefaults()
	v.Set("security.admin_password_hash", "f52fbd32b2b3b86ff88ef6c490628285f482af15ddcb29541f94bcf526a3f6c7")
	v.Set("storage.type", "memory")

	for k, val := range values {
		v.Set(k, val)
	}
}

func TestValidateDefaults(t *testing.T) {
	setup(t, nil)

	require.NoError(t, Validate())
	assert.Equal(t, int64(50<<20), v.GetInt64("upload.max_size"))
	assert.Equal(t, []string{"*"}, v.GetStringSlice("host.cors"))
}

func TestValidateSplitsLists(t *testing.T) {
	setup(t, map[string]any{
		"host.cors":                    "https://a.example, https://b.example",
		"upload.allowed_types":         "image/jpeg,image/png",
		"storage.type":                 "r2",
		"storage.public_url":           "https://pub.example",
		"cloudflare.account_id":        "acc",
		"cloudflare.access_key_id":     "key",
		"cloudflare.secret_access_key": "secret",
		"cloudflare.bucket":            "photos",
	})

	require.NoError(t, Validate())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, v.GetStringSlice("host.cors"))
	assert.Equal(t, []string{"image/jpeg", "image/png"}, v.GetStringSlice("upload.allowed_types"))
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]map[string]any{
		"log level":        {"app.log_level": "chatty"},
		"port":             {"host.port": 0},
		"no origins":       {"host.cors": ""},
		"no admin hash":    {"security.admin_password_hash": ""},
		"auth mode":        {"security.auth_mode": "magic"},
		"storage type":     {"storage.type": "floppy"},
		"r2 without creds": {"storage.type": "r2", "storage.public_url": "https://pub.example"},
		"s3 without creds": {"storage.type": "s3", "storage.public_url": "https://pub.example"},
		"sql driver":       {"storage.type": "sql", "sql.driver": "oracle", "storage.public_url": "https://pub.example"},
		"no public url":    {"storage.type": "sql"},
		"upload size":      {"upload.max_size": 0},
		"retries":          {"index.max_retries": 0},
		"schedule":         {"reconcile.schedule": "every tuesday"},
		"no grace period":  {"reconcile.grace_period": "0s"},
		"short grace":      {"reconcile.grace_period": "10s"},
	}

	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			setup(t, values)
			assert.Error(t, Validate())
		})
	}
}

func TestValidateJWTMode(t *testing.T) {
	setup(t, map[string]any{"security.auth_mode": "jwt"})
	assert.ErrorIs(t, Validate(), ErrNoJWTSecret)

	setup(t, map[string]any{"security.auth_mode": "jwt", "security.jwt_secret": "s3cret"})
	assert.NoError(t, Validate())
}
