package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	HTTPCache HTTPCacheConfig
	RateLimit RateLimitConfig
	Push      PushConfig
	Events    EventsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard exposure and cache tuning.
type DashboardConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// HTTPCacheConfig tunes the in-memory GET response cache.
type HTTPCacheConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// RateLimitConfig tunes the per-IP token bucket.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// PushConfig holds VAPID keys for web push notifications.
type PushConfig struct {
	Enabled    bool
	PublicKey  string
	PrivateKey string
	Subject    string
	TTL        int
	Workers    int
}

// EventsConfig tunes the change-notification bus.
type EventsConfig struct {
	// Backend selects "redis" or "memory".
	Backend    string
	BufferSize int
	Heartbeat  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		Enabled:  v.GetBool("ENABLE_DASHBOARD"),
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.HTTPCache = HTTPCacheConfig{
		TTL:             parseDuration(v.GetString("HTTP_CACHE_TTL"), 30*time.Second),
		CleanupInterval: parseDuration(v.GetString("HTTP_CACHE_CLEANUP_INTERVAL"), 5*time.Minute),
	}

	cfg.RateLimit = RateLimitConfig{
		PerSecond: v.GetFloat64("RATE_LIMIT_PER_SEC"),
		Burst:     v.GetInt("RATE_LIMIT_BURST"),
	}

	pushWorkers := v.GetInt("PUSH_WORKERS")
	if pushWorkers <= 0 {
		pushWorkers = 1
	}
	cfg.Push = PushConfig{
		Enabled:    v.GetBool("ENABLE_PUSH"),
		PublicKey:  v.GetString("VAPID_PUBLIC_KEY"),
		PrivateKey: v.GetString("VAPID_PRIVATE_KEY"),
		Subject:    v.GetString("VAPID_SUBJECT"),
		TTL:        v.GetInt("PUSH_TTL"),
		Workers:    pushWorkers,
	}

	cfg.Events = EventsConfig{
		Backend:    v.GetString("EVENTS_BACKEND"),
		BufferSize: v.GetInt("EVENTS_BUFFER_SIZE"),
		Heartbeat:  parseDuration(v.GetString("EVENTS_HEARTBEAT"), 25*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "campus-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_DASHBOARD", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("HTTP_CACHE_TTL", "30s")
	v.SetDefault("HTTP_CACHE_CLEANUP_INTERVAL", "5m")

	v.SetDefault("RATE_LIMIT_PER_SEC", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("ENABLE_PUSH", false)
	v.SetDefault("VAPID_PUBLIC_KEY", "")
	v.SetDefault("VAPID_PRIVATE_KEY", "")
	v.SetDefault("VAPID_SUBJECT", "mailto:ops@campushub.example")
	v.SetDefault("PUSH_TTL", 3600)
	v.SetDefault("PUSH_WORKERS", 2)

	v.SetDefault("EVENTS_BACKEND", "memory")
	v.SetDefault("EVENTS_BUFFER_SIZE", 16)
	v.SetDefault("EVENTS_HEARTBEAT", "25s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
