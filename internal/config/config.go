package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config is the complete runtime configuration, read from the environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Supabase SupabaseConfig
	Cache    CacheConfig
	Logging  LoggingConfig
	Shell    ShellConfig
	Deploy   DeployInfo
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the Postgres connection string
type DatabaseConfig struct {
	URL string
}

// SupabaseConfig holds the hosted project settings
type SupabaseConfig struct {
	URL          string
	ServiceKey   string
	JWTSecret    string
	AvatarBucket string
	ImageHosts   []string
}

// CacheConfig holds profile cache settings. An empty RedisAddr selects the in-memory store.
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ProfileTTL    time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// ShellConfig points at the native shell YAML file
type ShellConfig struct {
	Path string
}

// DeployInfo is read-only deployment metadata surfaced by /version.
type DeployInfo struct {
	Env           string
	DeploymentID  string
	URL           string
	CommitSHA     string
	CommitRef     string
	CommitMessage string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	shutdown, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	ttl, err := durationEnv("PROFILE_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            port,
			ShutdownTimeout: shutdown,
		},
		Database: DatabaseConfig{URL: databaseURL()},
		Supabase: SupabaseConfig{
			URL:          strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
			ServiceKey:   os.Getenv("SUPABASE_SERVICE_KEY"),
			JWTSecret:    os.Getenv("SUPABASE_JWT_SECRET"),
			AvatarBucket: stringEnv("AVATAR_BUCKET", "avatars"),
			ImageHosts:   listEnv("IMAGE_HOSTS"),
		},
		Cache: CacheConfig{
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       redisDB,
			ProfileTTL:    ttl,
		},
		Logging: LoggingConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "console"),
		},
		Shell: ShellConfig{Path: stringEnv("SHELL_CONFIG", "shell.yaml")},
		Deploy: DeployInfo{
			Env:           os.Getenv("VERCEL_ENV"),
			DeploymentID:  os.Getenv("VERCEL_DEPLOYMENT_ID"),
			URL:           os.Getenv("VERCEL_URL"),
			CommitSHA:     os.Getenv("VERCEL_GIT_COMMIT_SHA"),
			CommitRef:     os.Getenv("VERCEL_GIT_COMMIT_REF"),
			CommitMessage: os.Getenv("VERCEL_GIT_COMMIT_MESSAGE"),
		},
	}
	return cfg, nil
}

// Validate checks that everything the server needs to start is present.
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required (DATABASE_URL or DB_* variables)")
	}
	if c.Supabase.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.Supabase.ServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.Supabase.JWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.Cache.ProfileTTL < 0 {
		return fmt.Errorf("profile cache ttl must not be negative")
	}
	return nil
}

// databaseURL prefers DATABASE_URL and falls back to the discrete DB_* variables.
func databaseURL() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	port := stringEnv("DB_PORT", "5432")
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		host,
		port,
		os.Getenv("DB_NAME"),
	)
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func listEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
