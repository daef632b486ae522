package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/workly/internal/admin"
	"github.com/sudo-init-do/workly/internal/auth"
	"github.com/sudo-init-do/workly/internal/config"
	"github.com/sudo-init-do/workly/internal/db"
	"github.com/sudo-init-do/workly/internal/logging"
	"github.com/sudo-init-do/workly/internal/marketplace"
	"github.com/sudo-init-do/workly/internal/messaging"
	"github.com/sudo-init-do/workly/internal/metrics"
	mware "github.com/sudo-init-do/workly/internal/middleware"
	"github.com/sudo-init-do/workly/internal/profile"
	"github.com/sudo-init-do/workly/internal/server"
	"github.com/sudo-init-do/workly/internal/shell"
	"github.com/sudo-init-do/workly/internal/status"
	"github.com/sudo-init-do/workly/internal/supabase"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	logger.Info("starting workly",
		slog.Int("port", cfg.Server.Port),
		slog.String("env", cfg.Deploy.Env),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Init(ctx, cfg.Database.URL, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	ready := map[string]status.Pinger{"db": pool}

	var kv profile.KV
	if cfg.Cache.RedisAddr != "" {
		redisKV, err := profile.NewRedisKV(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisKV.Close()
		kv = redisKV
		ready["redis"] = redisKV
		logger.Info("profile cache on redis", slog.String("addr", cfg.Cache.RedisAddr))
	} else {
		kv = profile.NewMemoryKV()
		logger.Info("profile cache in memory")
	}
	cache := profile.NewCache(kv, cfg.Cache.ProfileTTL, logger)

	sb, err := supabase.New(supabase.Config{URL: cfg.Supabase.URL, APIKey: cfg.Supabase.ServiceKey})
	if err != nil {
		return fmt.Errorf("failed to create supabase client: %w", err)
	}

	var shellHandler *shell.Handler
	if shellCfg, err := shell.Load(cfg.Shell.Path); err != nil {
		logger.Warn("shell config not loaded, /shell routes disabled", slog.String("path", cfg.Shell.Path), slog.String("error", err.Error()))
	} else {
		shellHandler = shell.NewHandler(shellCfg)
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(cfg.Deploy.Env, cfg.Deploy.CommitSHA)

	store := marketplace.NewPGStore(pool)
	hub := messaging.NewHub(store, logger)
	profiles := profile.NewPGStore(pool)

	e := server.New(server.Deps{
		Logger:    logger,
		JWTSecret: []byte(cfg.Supabase.JWTSecret),
		Roles:     profile.NewRoles(profiles, cache),
		Deploy:    cfg.Deploy,
		Ready:     ready,
		Marketplace: marketplace.NewHandler(marketplace.Dependencies{
			Store:      store,
			Events:     hub,
			Logger:     logger,
			JobPosters: []echo.MiddlewareFunc{mware.RequireRoles("client", "admin")},
		}),
		Profiles: profile.NewHandler(profile.Dependencies{
			Store:   profiles,
			Cache:   cache,
			Avatars: profile.NewAvatars(sb.Storage().From(cfg.Supabase.AvatarBucket)),
			Hosts:   profile.NewImageHosts(sb.Host(), cfg.Supabase.ImageHosts),
			Logger:  logger,
		}),
		Auth:  auth.NewHandler(sb.Auth(), cache, []byte(cfg.Supabase.JWTSecret), auth.DefaultRedirect, logger),
		Hub:   hub,
		Shell: shellHandler,
		Admin: admin.NewHandler(admin.NewPGStore(pool), cache, logger),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", slog.String("address", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}
