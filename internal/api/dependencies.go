package api

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"infinite-experiment/poolroster/internal/common"
	"infinite-experiment/poolroster/internal/config"
	"infinite-experiment/poolroster/internal/db/repositories"
	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/metrics"
	"infinite-experiment/poolroster/internal/roster"
	"infinite-experiment/poolroster/internal/services"
	"infinite-experiment/poolroster/internal/store"
)

// DefaultMaxUploadBytes caps spreadsheet uploads.
const DefaultMaxUploadBytes = 10 << 20

// replaceLockTTL bounds how long a crashed instance can hold the lock.
const replaceLockTTL = 2 * time.Minute

type Repositories struct {
	Reports *repositories.RosterReportRepo
}

type Services struct {
	Ingestion *services.IngestionService
	History   *services.HistoryService
	AdminAuth *services.AdminAuthService
}

type Collections struct {
	Guests  *store.GuestCollection
	History *store.HistoryCollection
	// Notifier is nil when REDIS_ENABLED is false.
	Notifier *store.RedisNotifier
}

type Dependencies struct {
	Repo        *Repositories
	Services    *Services
	Collections *Collections
	Consoles    *common.ConsoleRegistry
	Metrics     *metrics.MetricsRegistry
	// Redis is nil when REDIS_ENABLED is false.
	Redis          *redis.Client
	MaxUploadBytes int64
}

// InitDependencies wires collections, services and the console registry.
// With Redis disabled every shared primitive falls back to its
// single-instance version.
func InitDependencies(cfg config.Config, orm *gorm.DB, sqlxDB *sqlx.DB, metricsReg *metrics.MetricsRegistry) *Dependencies {
	var (
		redisClient *redis.Client
		notifier    *store.RedisNotifier
		lock        services.ReplaceLock
		ledger      services.TokenLedger
	)

	if cfg.RedisEnabled {
		redisClient = common.NewRedisClient(cfg)
		notifier = store.NewRedisNotifier(redisClient)
		lock = common.NewRedisReplaceLock(redisClient, replaceLockTTL)
		ledger = common.NewRedisTokenLedger(redisClient)
	} else {
		logging.Info("Redis disabled, running as a single instance")
		lock = common.NewLocalReplaceLock()
		ledger = common.NewMemoryTokenLedger()
	}

	opts := []store.CollectionOption{store.WithMetrics(metricsReg)}
	if notifier != nil {
		opts = append(opts, store.WithNotifier(notifier))
	}
	guests := store.NewGuestCollection(orm, opts...)
	history := store.NewHistoryCollection(orm, opts...)

	historySvc := services.NewHistoryService(history, cfg.WriteBatchSize, metricsReg)
	ingestionSvc := services.NewIngestionService(guests, historySvc, lock, cfg.WriteBatchSize, metricsReg)
	adminSvc := services.NewAdminAuthService(cfg.AdminPasswordHash, cfg.JWTSecret, cfg.AdminTokenTTL, ledger)

	deriver := roster.NewDeriver(cfg.CollationLang)
	consoles := common.NewConsoleRegistry(cfg.ConsoleIdleTTL, func(id string) *roster.Console {
		return roster.NewConsole(id, guests, deriver, roster.ConsoleOptions{
			AlertWindow: cfg.AlertWindow,
			Metrics:     metricsReg,
		})
	})

	return &Dependencies{
		Repo: &Repositories{
			Reports: repositories.NewRosterReportRepo(sqlxDB),
		},
		Services: &Services{
			Ingestion: ingestionSvc,
			History:   historySvc,
			AdminAuth: adminSvc,
		},
		Collections: &Collections{
			Guests:   guests,
			History:  history,
			Notifier: notifier,
		},
		Consoles:       consoles,
		Metrics:        metricsReg,
		Redis:          redisClient,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}
