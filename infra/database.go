package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atollmatch/atollmatch/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteScheme = "sqlite://"

// IsSQLite reports whether url selects the embedded SQLite backend.
func IsSQLite(url string) bool {
	return strings.HasPrefix(url, sqliteScheme)
}

// NewDBConnection opens the database named by cnf.Url: a PostgreSQL DSN,
// or sqlite://<path> for local development.
func NewDBConnection(
	cnf *config.DB,
	appEnv string,
) (*gorm.DB, error) {
	if cnf == nil || cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}
	gormCfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	var dialector gorm.Dialector
	maxOpen := cnf.MaxOpenConns
	if IsSQLite(cnf.Url) {
		path := strings.TrimPrefix(cnf.Url, sqliteScheme)
		dialector = sqlite.Open(path + sqliteParams(path))
		// SQLite has a single writer; one connection turns lock
		// contention into queueing.
		maxOpen = 1
	} else {
		dialector = postgres.Open(cnf.Url)
	}

	connection, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	if maxOpen <= 0 {
		maxOpen = 25
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	return connection, nil
}

func sqliteParams(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return sep + "_busy_timeout=5000&_foreign_keys=on"
}
