package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	auditrepo "github.com/atollmatch/atollmatch/infra/repository/audit"
	balancerepo "github.com/atollmatch/atollmatch/infra/repository/balance"
	connectionrepo "github.com/atollmatch/atollmatch/infra/repository/connection"
	ledgerrepo "github.com/atollmatch/atollmatch/infra/repository/ledger"
	postrepo "github.com/atollmatch/atollmatch/infra/repository/post"
	settingsrepo "github.com/atollmatch/atollmatch/infra/repository/settings"
	topuprepo "github.com/atollmatch/atollmatch/infra/repository/topup"
	userrepo "github.com/atollmatch/atollmatch/infra/repository/user"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/repository"
	"github.com/atollmatch/atollmatch/pkg/repository/audit"
	"github.com/atollmatch/atollmatch/pkg/repository/balance"
	"github.com/atollmatch/atollmatch/pkg/repository/connection"
	"github.com/atollmatch/atollmatch/pkg/repository/ledger"
	"github.com/atollmatch/atollmatch/pkg/repository/post"
	"github.com/atollmatch/atollmatch/pkg/repository/settings"
	"github.com/atollmatch/atollmatch/pkg/repository/topup"
	"github.com/atollmatch/atollmatch/pkg/repository/user"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// Every repository handed out by a UoW created inside Do shares the same
// *gorm.DB transaction.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*ledger.Repository)(nil)).Elem():     func(db *gorm.DB) any { return ledgerrepo.New(db) },
			reflect.TypeOf((*balance.Repository)(nil)).Elem():    func(db *gorm.DB) any { return balancerepo.New(db) },
			reflect.TypeOf((*topup.Repository)(nil)).Elem():      func(db *gorm.DB) any { return topuprepo.New(db) },
			reflect.TypeOf((*settings.Repository)(nil)).Elem():   func(db *gorm.DB) any { return settingsrepo.New(db) },
			reflect.TypeOf((*user.Repository)(nil)).Elem():       func(db *gorm.DB) any { return userrepo.New(db) },
			reflect.TypeOf((*audit.Repository)(nil)).Elem():      func(db *gorm.DB) any { return auditrepo.New(db) },
			reflect.TypeOf((*post.Repository)(nil)).Elem():       func(db *gorm.DB) any { return postrepo.New(db) },
			reflect.TypeOf((*connection.Repository)(nil)).Elem(): func(db *gorm.DB) any { return connectionrepo.New(db) },
		},
	}
}

// Do runs fn in a transaction boundary, providing a UoW with repository
// access. The transaction commits only if fn returns nil. A cancelled or
// expired ctx aborts it and surfaces as a *domain.StorageError.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		// already inside a transaction: join it
		return fn(u)
	}
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) && !errors.Is(err, domain.ErrStorage) {
		return domain.NewStorageError("uow.do", err)
	}
	return err
}

// GetRepository provides generic, type-safe access to repositories using
// the transaction session when one is open.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func getRepo[T any](u *UoW) (T, error) {
	var zero T
	repoAny, err := u.GetRepository(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	repo, ok := repoAny.(T)
	if !ok {
		return zero, fmt.Errorf("repository registered for %T has unexpected type %T", zero, repoAny)
	}
	return repo, nil
}

func (u *UoW) LedgerRepository() (ledger.Repository, error) {
	return getRepo[ledger.Repository](u)
}

func (u *UoW) BalanceRepository() (balance.Repository, error) {
	return getRepo[balance.Repository](u)
}

func (u *UoW) TopupRepository() (topup.Repository, error) {
	return getRepo[topup.Repository](u)
}

func (u *UoW) SettingsRepository() (settings.Repository, error) {
	return getRepo[settings.Repository](u)
}

func (u *UoW) UserRepository() (user.Repository, error) {
	return getRepo[user.Repository](u)
}

func (u *UoW) AuditRepository() (audit.Repository, error) {
	return getRepo[audit.Repository](u)
}

func (u *UoW) PostRepository() (post.Repository, error) {
	return getRepo[post.Repository](u)
}

func (u *UoW) ConnectionRepository() (connection.Repository, error) {
	return getRepo[connection.Repository](u)
}

var _ repository.UnitOfWork = (*UoW)(nil)
