package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	infrarepo "github.com/atollmatch/atollmatch/infra/repository"
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"
)

// RunMigrations brings the schema up to date. PostgreSQL runs the
// versioned SQL files under cnf.MigrationsPath; SQLite is migrated from
// the GORM models.
func RunMigrations(db *gorm.DB, cnf *config.DB, logger *slog.Logger) error {
	if IsSQLite(cnf.Url) {
		logger.Info("Migrating SQLite schema from models")
		return infrarepo.AutoMigrate(db)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	driver, err := migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	path, err := filepath.Abs(cnf.MigrationsPath)
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("Database schema is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, _, _ := m.Version()
	logger.Info("Database migrated", "version", version)
	return nil
}
