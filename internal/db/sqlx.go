package db

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gorm.io/gorm"

	"infinite-experiment/poolroster/internal/config"
)

// OpenSQLX returns the raw-SQL handle used by reporting queries.
//
// Postgres gets its own lib/pq pool, retried while the database starts.
// SQLite shares GORM's single connection.
func OpenSQLX(cfg config.Config, orm *gorm.DB) (*sqlx.DB, error) {
	if cfg.DBDriver == "postgres" {
		return connectPostgres(cfg.PostgresDSN())
	}

	sqlDB, err := orm.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}
	return sqlx.NewDb(sqlDB, "sqlite3"), nil
}

func connectPostgres(dsn string) (*sqlx.DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)
	for i := 0; i < 10; i++ {
		conn, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return conn, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return nil, fmt.Errorf("failed to connect to postgres via sqlx: %w", err)
}
