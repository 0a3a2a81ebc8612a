// Package testutils provides a SQLite-backed harness for service and
// repository tests: a fresh in-memory database per test, seed helpers and
// fault injection.
package testutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	infrarepo "github.com/atollmatch/atollmatch/infra/repository"
	ledgermodel "github.com/atollmatch/atollmatch/infra/repository/ledger"
	settingsmodel "github.com/atollmatch/atollmatch/infra/repository/settings"
	usermodel "github.com/atollmatch/atollmatch/infra/repository/user"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrInjected is the error returned by injected faults.
var ErrInjected = errors.New("injected storage fault")

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestDB opens a private SQLite database in a temporary directory with
// the full schema. The pool holds a single connection, so transactions from
// concurrent goroutines run one after another.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "atollmatch.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, infrarepo.AutoMigrate(db))
	return db
}

// NewTestUoW returns a unit of work over a fresh test database.
func NewTestUoW(t testing.TB) (*infrarepo.UoW, *gorm.DB) {
	t.Helper()
	db := NewTestDB(t)
	return infrarepo.NewUoW(db), db
}

// SeedUser inserts a user holding coins. A non-zero opening balance is
// backed by an OTHER ledger entry so the ledger sum matches.
func SeedUser(t testing.TB, db *gorm.DB, status user.Status, coins int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := tx.Create(&usermodel.User{
			ID:        id,
			Username:  "user_" + id.String()[:8],
			Status:    string(status),
			Coins:     coins,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error; err != nil {
			return err
		}
		if coins == 0 {
			return nil
		}
		table := ledger.RefTableUsers
		return tx.Create(&ledgermodel.Entry{
			UserID:      id,
			Delta:       coins,
			Reason:      string(ledger.ReasonOther),
			RefTable:    &table,
			RefID:       &id,
			Description: "opening balance",
			CreatedAt:   now,
		}).Error
	})
	require.NoError(t, err)
	return id
}

// SetTelegramChat links a chat to a seeded user.
func SetTelegramChat(t testing.TB, db *gorm.DB, userID uuid.UUID, chatID int64) {
	t.Helper()
	require.NoError(t, db.Model(&usermodel.User{}).Where("id = ?", userID).
		Update("telegram_chat_id", chatID).Error)
}

// SeedPricing writes the settings row.
func SeedPricing(t testing.TB, db *gorm.DB, coinPrice string, costPost, costConnect int64) {
	t.Helper()
	require.NoError(t, db.Save(&settingsmodel.Settings{
		ID:           1,
		CoinPriceMvr: decimal.RequireFromString(coinPrice),
		CostPost:     costPost,
		CostConnect:  costConnect,
		UpdatedAt:    time.Now().UTC(),
	}).Error)
}

// Balance reads the stored counter directly.
func Balance(t testing.TB, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var row usermodel.User
	require.NoError(t, db.Where("id = ?", userID).Take(&row).Error)
	return row.Coins
}

// LedgerEntries returns a user's entries oldest first.
func LedgerEntries(t testing.TB, db *gorm.DB, userID uuid.UUID) []ledgermodel.Entry {
	t.Helper()
	var rows []ledgermodel.Entry
	require.NoError(t, db.Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error)
	return rows
}

// LedgerSum returns the sum of a user's deltas.
func LedgerSum(t testing.TB, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var sum int64
	for _, e := range LedgerEntries(t, db, userID) {
		sum += e.Delta
	}
	return sum
}

// CountRows counts the rows of model's table.
func CountRows(t testing.TB, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

// FailInsertsInto makes every INSERT into table fail with ErrInjected
// until the test ends.
func FailInsertsInto(t testing.TB, db *gorm.DB, table string) {
	t.Helper()
	name := "testutils:fail_insert:" + table + ":" + uuid.NewString()
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(ErrInjected)
		}
	}))
	t.Cleanup(func() { _ = db.Callback().Create().Remove(name) })
}

// Context returns a context that is cancelled when the test ends.
func Context(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
