package repository

import (
	auditrepo "github.com/atollmatch/atollmatch/infra/repository/audit"
	connectionrepo "github.com/atollmatch/atollmatch/infra/repository/connection"
	ledgerrepo "github.com/atollmatch/atollmatch/infra/repository/ledger"
	postrepo "github.com/atollmatch/atollmatch/infra/repository/post"
	settingsrepo "github.com/atollmatch/atollmatch/infra/repository/settings"
	topuprepo "github.com/atollmatch/atollmatch/infra/repository/topup"
	userrepo "github.com/atollmatch/atollmatch/infra/repository/user"
	"gorm.io/gorm"
)

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&userrepo.User{},
		&ledgerrepo.Entry{},
		&topuprepo.Topup{},
		&settingsrepo.Settings{},
		&auditrepo.Log{},
		&postrepo.Post{},
		&connectionrepo.Request{},
	}
}

// AutoMigrate creates or updates the schema from the GORM models. It backs
// SQLite databases; PostgreSQL uses the versioned SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
