//go:build integration

package testutils

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/atollmatch/atollmatch/infra"
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// NewPostgresDB starts a PostgreSQL container, applies the SQL migrations
// and returns a connection to it.
func NewPostgresDB(t testing.TB) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := tcpostgres.Run(
		ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("atollmatch"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	_, filename, _, _ := runtime.Caller(0)
	cfg := &config.DB{
		Url:            dsn,
		MigrationsPath: filepath.Join(filepath.Dir(filename), "../../internal/migrations"),
		MaxOpenConns:   10,
	}
	db, err := infra.NewDBConnection(cfg, "test")
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db, cfg, DiscardLogger()))
	return db
}
