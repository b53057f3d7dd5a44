package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MaxWriteBatchSize is the store's per-batch operation limit.
const MaxWriteBatchSize = 300

// Config holds all configuration for the roster service
type Config struct {
	AppEnv      string
	HTTPPort    int
	CORSOrigins []string

	// Database
	DBDriver   string
	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDatabase string
	SQLitePath string

	// Redis
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Admin credential gate
	AdminPasswordHash string
	JWTSecret         string
	AdminTokenTTL     time.Duration

	// Roster behaviour
	AlertWindow    time.Duration
	WriteBatchSize int
	CollationLang  string
	ConsoleIdleTTL time.Duration
}

// PostgresDSN builds the connection string used by both GORM and sqlx.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// RedisAddr returns host:port for the Redis client.
func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// Load reads an optional .env file and then the process environment.
//
// Every malformed value is collected so the operator sees all problems at
// once instead of fixing them one restart at a time.
func Load() (Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		HTTPPort:          8080,
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "https://*,http://localhost:5173")),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		PGHost:            getEnv("PG_HOST", "localhost"),
		PGPort:            getEnv("PG_PORT", "5432"),
		PGUser:            getEnv("PG_USER", ""),
		PGPassword:        getEnv("PG_PASSWORD", ""),
		PGDatabase:        getEnv("PG_DB", "poolroster"),
		SQLitePath:        getEnv("SQLITE_PATH", "poolroster.db"),
		RedisHost:         getEnv("REDIS_HOST", "localhost"),
		RedisPort:         getEnv("REDIS_PORT", "6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminTokenTTL:     15 * time.Minute,
		AlertWindow:       3 * time.Second,
		WriteBatchSize:    MaxWriteBatchSize,
		CollationLang:     getEnv("COLLATION_LANG", "es"),
		ConsoleIdleTTL:    30 * time.Minute,
	}

	invalid := make([]string, 0, 4)

	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			invalid = append(invalid, "HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		invalid = append(invalid, "DB_DRIVER")
	}

	if v := strings.TrimSpace(os.Getenv("REDIS_ENABLED")); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, "REDIS_ENABLED")
		} else {
			cfg.RedisEnabled = enabled
		}
	}

	parseDuration := func(key string, dst *time.Duration) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			invalid = append(invalid, key)
			return
		}
		*dst = d
	}
	parseDuration("ADMIN_TOKEN_TTL", &cfg.AdminTokenTTL)
	parseDuration("ALERT_WINDOW", &cfg.AlertWindow)
	parseDuration("CONSOLE_IDLE_TTL", &cfg.ConsoleIdleTTL)

	if v := strings.TrimSpace(os.Getenv("WRITE_BATCH_SIZE")); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			invalid = append(invalid, "WRITE_BATCH_SIZE")
		} else {
			cfg.WriteBatchSize = ClampBatchSize(size)
		}
	}

	if cfg.AdminPasswordHash != "" && cfg.JWTSecret == "" {
		invalid = append(invalid, "JWT_SECRET")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// ClampBatchSize keeps a configured batch size inside the store's limit.
func ClampBatchSize(size int) int {
	if size <= 0 || size > MaxWriteBatchSize {
		return MaxWriteBatchSize
	}
	return size
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
