// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dndbuilder/internal/assets"
	"dndbuilder/internal/auth"
	"dndbuilder/internal/cache"
	"dndbuilder/internal/config"
	"dndbuilder/internal/content"
	"dndbuilder/internal/database"
	"dndbuilder/internal/handlers"
	"dndbuilder/internal/logger"
	"dndbuilder/internal/mail"
	"dndbuilder/internal/middleware"
	"dndbuilder/internal/registry"
	"dndbuilder/internal/router"
	"dndbuilder/internal/session"
	"dndbuilder/internal/storage"
	"dndbuilder/internal/store"
	"dndbuilder/internal/themes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.L()
	log.Info("configuration loaded", zap.String("env", cfg.Env), zap.String("addr", cfg.Addr()))

	db, err := database.Connect(ctx, cfg.DSN(), database.DefaultPool)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			return err
		}
	}

	valkey, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return err
	}
	defer valkey.Close()

	userStore := store.NewUserStore(db)
	themeStore := store.NewThemeStore(db)
	contentStore := store.NewContentStore(db)
	assetStore := store.NewAssetStore(db)

	reg := registry.Default()

	// Theme writes drop the cached previews of the owner; the closure is
	// only called once contentSvc is set.
	var contentSvc *content.Service
	themeSvc := themes.New(themeStore,
		themes.WithCache(cache.NewThemeCache(valkey, cache.DefaultThemeTTL)),
		themes.OnChange(func(ctx context.Context, userID uuid.UUID) {
			contentSvc.ThemeChanged(ctx, userID)
		}),
	)
	contentSvc = content.New(contentStore, reg,
		content.WithThemes(themeSvc),
		content.WithPageCache(cache.NewPageCache(valkey, cache.DefaultPageTTL)),
	)

	mailSvc := mail.NewService(mail.Config{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUser,
		Password:    cfg.SMTPPassword,
		From:        cfg.MailFrom,
		FromName:    cfg.MailFromName,
		FrontendURL: cfg.FrontendURL,
	})
	if !mailSvc.IsConfigured() {
		log.Warn("smtp not configured, emails will be logged instead of sent")
	}

	authSvc := auth.NewService(userStore, session.NewStore(valkey), mailSvc, cfg.JWTSecret, cfg.JWTTTL)

	var objects assets.Objects
	if cfg.StorageEnabled() {
		client, err := storage.New(storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return fmt.Errorf("init s3 storage: %w", err)
		}
		objects = client
		log.Info("s3 storage connected", zap.String("endpoint", cfg.S3Endpoint), zap.String("bucket", cfg.S3Bucket))
	} else {
		log.Warn("s3 storage not configured, asset uploads disabled")
	}

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute,
		middleware.WithCounter(middleware.NewValkeyCounter(valkey, "ratelimit:auth:")))
	defer limiter.Stop()

	r := router.New(router.Handlers{
		Auth:    handlers.NewAuth(authSvc),
		Themes:  handlers.NewThemes(themeSvc, contentSvc.ThemeRemoved),
		Content: handlers.NewContent(contentSvc),
		Blocks:  handlers.NewBlocks(reg),
		Assets:  handlers.NewAssets(assets.New(assetStore, objects)),
		Mail:    handlers.NewMail(mailSvc),
		Admin:   handlers.NewAdmin(userStore),
	}, router.Options{
		Tokens:      authSvc,
		Metrics:     middleware.NewMetrics("dndbuilder"),
		AuthLimiter: limiter,
		CORSOrigin:  cfg.FrontendURL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}
