package repository

import (
	"context"
	"reflect"

	"github.com/atollmatch/atollmatch/pkg/repository/audit"
	"github.com/atollmatch/atollmatch/pkg/repository/balance"
	"github.com/atollmatch/atollmatch/pkg/repository/connection"
	"github.com/atollmatch/atollmatch/pkg/repository/ledger"
	"github.com/atollmatch/atollmatch/pkg/repository/post"
	"github.com/atollmatch/atollmatch/pkg/repository/settings"
	"github.com/atollmatch/atollmatch/pkg/repository/topup"
	"github.com/atollmatch/atollmatch/pkg/repository/user"
)

// UnitOfWork defines the contract for transactional work and type-safe
// repository access.
//
// Repositories obtained from the UnitOfWork passed to Do are bound to that
// transaction; repositories obtained from the outer UnitOfWork run on the
// plain connection. A balance change and its ledger entry must always be
// written through the same transaction.
//
//	err := uow.Do(ctx, func(tx UnitOfWork) error {
//		bal, err := tx.BalanceRepository()
//		...
//	})
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. If fn returns an error
	// or ctx is cancelled, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested interface type,
	// bound to the current session.
	GetRepository(repoType reflect.Type) (any, error)

	LedgerRepository() (ledger.Repository, error)
	BalanceRepository() (balance.Repository, error)
	TopupRepository() (topup.Repository, error)
	SettingsRepository() (settings.Repository, error)
	UserRepository() (user.Repository, error)
	AuditRepository() (audit.Repository, error)
	PostRepository() (post.Repository, error)
	ConnectionRepository() (connection.Repository, error)
}
