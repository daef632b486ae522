package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/sudo-init-do/workly/internal/admin"
	"github.com/sudo-init-do/workly/internal/config"
	"github.com/sudo-init-do/workly/internal/db"
	"github.com/sudo-init-do/workly/internal/logging"
	"github.com/sudo-init-do/workly/internal/profile"
)

func main() {
	id := flag.String("id", "", "Profile id (auth user id) to make a provider")
	flag.Parse()

	if _, err := uuid.Parse(*id); err != nil {
		log.Fatalf("usage: go run ./cmd/adminutil/promote_provider -id <uuid>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	ctx := context.Background()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	pool, err := db.Init(ctx, cfg.Database.URL, logger)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := admin.NewPGStore(pool).SetRole(ctx, *id, "provider"); err != nil {
		log.Fatalf("failed to set provider role on %s: %v", *id, err)
	}

	// The server resolves roles through the profile cache.
	if cfg.Cache.RedisAddr != "" {
		kv, err := profile.NewRedisKV(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			log.Printf("warning: cached profile not cleared, new role applies within %s: %v", cfg.Cache.ProfileTTL, err)
		} else {
			profile.NewCache(kv, cfg.Cache.ProfileTTL, logger).Clear(ctx, *id)
			_ = kv.Close()
		}
	}

	fmt.Printf("Profile %s is now a provider.\n", *id)
}
