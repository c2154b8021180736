package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"designerdada/photo-api/aws"
	"designerdada/photo-api/cloudflare"
	"designerdada/photo-api/db"
	"designerdada/photo-api/internal"
	"designerdada/photo-api/internal/lock"
	"designerdada/photo-api/internal/service"
	"designerdada/photo-api/internal/storage"
	"designerdada/photo-api/pkg/security"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Redis lock leases outlive any single index update by a wide margin
const lockLease = 30 * time.Second

// App holds everything the server and the maintenance commands share
type App struct {
	Deps       *internal.Deps
	Index      *service.IndexStore
	Reconciler *service.Reconciler

	cron    *cron.Cron
	closers []func()
}

// New builds the app from the loaded configuration
func New(ctx context.Context) (*App, error) {
	a := &App{}

	store, err := a.newStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Index = service.NewIndexStore(store, locker, service.IndexOptions{
		CacheTTL:   viper.GetDuration("index.cache_ttl"),
		MaxRetries: viper.GetInt("index.max_retries"),
	})
	a.closers = append(a.closers, a.Index.Close)

	photos := service.NewPhotoService(store, a.Index, viper.GetString("storage.public_url"))
	photos.ResizeVariants = viper.GetBool("cdn.enabled")
	photos.MaxUploadSize = viper.GetInt64("upload.max_size")
	photos.AllowedTypes = viper.GetStringSlice("upload.allowed_types")

	a.Reconciler = service.NewReconciler(store, a.Index, viper.GetDuration("reconcile.grace_period"))

	credentials, err := security.NewCredentialChecker(viper.GetString("security.admin_password_hash"))
	if err != nil {
		a.Close()
		return nil, err
	}

	authorizer, err := security.NewAuthorizer(
		viper.GetString("security.auth_mode"),
		viper.GetString("security.jwt_secret"),
		viper.GetDuration("security.jwt_ttl"),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Deps = &internal.Deps{
		Photos:        photos,
		Credentials:   credentials,
		Auth:          authorizer,
		CORSOrigins:   viper.GetStringSlice("host.cors"),
		AuthRateLimit: viper.GetInt("security.rate_limit"),
		MaxUploadSize: photos.MaxUploadSize,
	}

	return a, nil
}

func (a *App) newStore(ctx context.Context) (storage.ObjectStore, error) {
	switch t := viper.GetString("storage.type"); t {
	case "s3":
		c, err := aws.NewS3(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}
		return storage.NewBucket(c.C, c.Bucket), nil
	case "r2":
		c, err := cloudflare.NewR2(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize R2 client, %w", err)
		}
		return storage.NewBucket(c.C, c.Bucket), nil
	case "sql":
		conn, err := db.New()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database, %w", err)
		}

		if sqlDB, err := conn.DB(); err == nil {
			a.closers = append(a.closers, func() { _ = sqlDB.Close() })
		}

		return storage.NewSQLStore(conn), nil
	case "memory":
		zap.L().Warn("Using in-memory storage, everything is lost on restart")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("invalid storage type %q", t)
	}
}

// newLocker returns a Redis lease when lock.redis_addr is set so that
// several replicas can share one bucket. A nil locker makes the index
// fall back to an in-process lock.
func (a *App) newLocker(ctx context.Context) (lock.Locker, error) {
	addr := viper.GetString("lock.redis_addr")
	if addr == "" {
		return nil, nil
	}

	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("lock.redis_password"),
	})

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to reach redis at %s, %w", addr, err)
	}

	a.closers = append(a.closers, func() { _ = c.Close() })
	return lock.NewRedis(c, lockLease), nil
}

// Handler returns the HTTP router. Its background work is stopped by Close.
func (a *App) Handler() http.Handler {
	ctx, cancel := context.WithCancel(context.Background())
	a.closers = append(a.closers, cancel)

	return NewRouter(ctx, a.Deps)
}

// StartReconciler schedules background reconciliation if a schedule is
// configured
func (a *App) StartReconciler() error {
	spec := viper.GetString("reconcile.schedule")
	if spec == "" {
		return nil
	}

	if a.cron != nil {
		return errors.New("reconciler already started")
	}

	c, err := a.Reconciler.Schedule(spec)
	if err != nil {
		return err
	}

	a.cron = c
	return nil
}

// Close stops background work and releases connections
func (a *App) Close() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
