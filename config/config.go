// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"designerdada/photo-api/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	Reconcile    = pflag.Bool("reconcile", false, "Runs a single reconciliation pass over the bucket and exits")
	MigrateURLs  = pflag.Bool("migrate-urls", false, "Points every photo at CDN resized variants and exits")
	HashPassword = pflag.String("hash-password", "", "Prints an argon2id digest of the given password and exits")

	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"s3", "r2", "sql", "memory"}
	validSQLDrivers   = []string{"sqlite", "postgres"}
	validAuthModes    = []string{"presence", "jwt"}
)

var ErrNoJWTSecret = errors.New("security.jwt_secret is required in jwt auth mode")

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()

	// Nothing else is needed to hash a password
	if *HashPassword != "" {
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	bindEnv()
	SetDefaults()

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	err := Validate()
	if errors.Is(err, ErrNoJWTSecret) {
		fmt.Println("WARNING: You haven't set a JWT secret, so one has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	return err
}

func bindEnv() {
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.cors", "HOST_CORS")

	v.BindEnv("security.admin_password_hash", "ADMIN_PASSWORD_HASH")
	v.BindEnv("security.auth_mode", "SECURITY_AUTH_MODE")
	v.BindEnv("security.jwt_secret", "SECURITY_JWT_SECRET")
	v.BindEnv("security.jwt_ttl", "SECURITY_JWT_TTL")
	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")

	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.public_url", "R2_PUBLIC_URL")

	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.access_key_id", "AWS_ACCESS_KEY_ID")
	v.BindEnv("aws.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("aws.bucket", "AWS_BUCKET")
	v.BindEnv("aws.endpoint", "AWS_ENDPOINT")

	v.BindEnv("cloudflare.account_id", "CLOUDFLARE_ACCOUNT_ID")
	v.BindEnv("cloudflare.access_key_id", "CLOUDFLARE_ACCESS_KEY_ID")
	v.BindEnv("cloudflare.secret_access_key", "CLOUDFLARE_SECRET_ACCESS_KEY")
	v.BindEnv("cloudflare.bucket", "CLOUDFLARE_BUCKET")

	v.BindEnv("sql.driver", "SQL_DRIVER")
	v.BindEnv("sql.dsn", "SQL_DSN")

	v.BindEnv("upload.max_size", "UPLOAD_MAX_SIZE")
	v.BindEnv("upload.allowed_types", "UPLOAD_ALLOWED_TYPES")

	v.BindEnv("index.cache_ttl", "INDEX_CACHE_TTL")
	v.BindEnv("index.max_retries", "INDEX_MAX_RETRIES")

	v.BindEnv("lock.redis_addr", "LOCK_REDIS_ADDR")
	v.BindEnv("lock.redis_password", "LOCK_REDIS_PASSWORD")

	v.BindEnv("reconcile.schedule", "RECONCILE_SCHEDULE")
	v.BindEnv("reconcile.grace_period", "RECONCILE_GRACE_PERIOD")

	v.BindEnv("cdn.enabled", "CDN_ENABLED")
}

// SetDefaults registers the default value of every key
func SetDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors", []string{"*"})

	v.SetDefault("security.auth_mode", "presence")
	v.SetDefault("security.jwt_ttl", "24h")
	v.SetDefault("security.rate_limit", 5)

	v.SetDefault("storage.type", "r2")

	v.SetDefault("aws.region", "us-east-1")

	v.SetDefault("sql.driver", "sqlite")
	v.SetDefault("sql.dsn", "photos.db")

	v.SetDefault("upload.max_size", 50)
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/avif", "image/heic"})

	v.SetDefault("index.cache_ttl", "5s")
	v.SetDefault("index.max_retries", 5)

	v.SetDefault("reconcile.grace_period", "1h")

	v.SetDefault("cdn.enabled", false)
}

// Validate checks the loaded configuration and normalizes list values.
// upload.max_size is converted from MiB to bytes.
func Validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	v.Set("host.cors", splitList("host.cors"))
	if len(v.GetStringSlice("host.cors")) == 0 {
		return errors.New("host.cors needs at least one origin")
	}

	if v.GetString("security.admin_password_hash") == "" {
		return errors.New("security.admin_password_hash can't be empty")
	}

	mode := v.GetString("security.auth_mode")
	if !slices.Contains(validAuthModes, mode) {
		return errors.New("invalid auth mode provided")
	}

	if mode == "jwt" {
		if v.GetString("security.jwt_secret") == "" {
			return ErrNoJWTSecret
		}

		if v.GetDuration("security.jwt_ttl") <= 0 {
			return errors.New("security.jwt_ttl must be bigger than 0")
		}
	}

	if v.GetInt("security.rate_limit") < 0 {
		return errors.New("security.rate_limit can't be negative")
	}

	storageType := v.GetString("storage.type")
	if !slices.Contains(validStorageTypes, storageType) {
		return errors.New("invalid storage type provided")
	}

	switch storageType {
	case "s3":
		if v.GetString("aws.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("aws.access_key_id") == "" {
			return errors.New("access key id can't be empty")
		}
		if v.GetString("aws.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
	case "r2":
		if v.GetString("cloudflare.account_id") == "" {
			return errors.New("account id can't be empty")
		}
		if v.GetString("cloudflare.access_key_id") == "" {
			return errors.New("account access id can't be empty")
		}
		if v.GetString("cloudflare.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
		if v.GetString("cloudflare.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
	case "sql":
		if !slices.Contains(validSQLDrivers, v.GetString("sql.driver")) {
			return errors.New("invalid sql driver provided")
		}
		if v.GetString("sql.dsn") == "" {
			return errors.New("sql.dsn can't be empty")
		}
	}

	if storageType != "memory" && v.GetString("storage.public_url") == "" {
		return errors.New("storage.public_url can't be empty")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	v.Set("upload.allowed_types", splitList("upload.allowed_types"))

	if v.GetDuration("index.cache_ttl") < 0 {
		return errors.New("index.cache_ttl can't be negative")
	}

	if v.GetInt("index.max_retries") <= 0 {
		return errors.New("index.max_retries must be bigger than 0")
	}

	if v.GetDuration("reconcile.grace_period") < service.MinGracePeriod {
		return fmt.Errorf("reconcile.grace_period must be at least %s", service.MinGracePeriod)
	}

	if spec := v.GetString("reconcile.schedule"); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid reconcile.schedule, %w", err)
		}
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

// splitList accepts both TOML arrays and comma separated env values
func splitList(key string) []string {
	var out []string

	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
