package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"designerdada/photo-api/app"
	"designerdada/photo-api/config"
	"designerdada/photo-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	if *config.HashPassword != "" {
		digest, err := security.HashPassword(*config.HashPassword, security.DefaultArgonParams())
		if err != nil {
			panic(err)
		}

		fmt.Println(digest)
		return
	}

	if err := app.MakeLogger(viper.GetString("app.log_level")); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		zap.L().Fatal("Failed to initialize app", zap.Error(err))
	}
	defer a.Close()

	switch {
	case *config.Reconcile:
		n, err := a.Reconciler.Run(ctx)
		if err != nil {
			zap.L().Fatal("Reconciliation failed", zap.Error(err))
		}

		zap.L().Info("Reconciliation finished", zap.Int("deleted", n))
		return
	case *config.MigrateURLs:
		migrated, skipped, err := a.Deps.Photos.MigrateURLs(ctx)
		if err != nil {
			zap.L().Fatal("URL migration failed", zap.Error(err))
		}

		zap.L().Info("URL migration finished", zap.Int("migrated", migrated), zap.Int("skipped", skipped))
		return
	}

	if err := a.StartReconciler(); err != nil {
		zap.L().Fatal("Failed to schedule reconciler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(viper.GetInt("host.port")),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Graceful shutdown failed", zap.Error(err))
	}
}
