// Package dberr translates GORM and driver errors into domain errors so
// that nothing above the repository layer has to know about the database.
package dberr

import (
	"errors"

	"github.com/atollmatch/atollmatch/pkg/domain"
	"gorm.io/gorm"
)

// MapGormErrorToDomain converts GORM errors to domain errors.
// Traverses the error chain to find GORM errors and maps them to appropriate domain errors.
// Errors without a mapping are returned unchanged.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}

	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return domain.ErrAlreadyExists
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return domain.ErrNotFound
		case errors.Is(currentErr, gorm.ErrForeignKeyViolated):
			return domain.ErrNotFound
		}
		currentErr = errors.Unwrap(currentErr)
	}
	return err
}

// Wrap maps err like MapGormErrorToDomain and wraps anything left unmapped
// into a *domain.StorageError tagged with op.
func Wrap(op string, err error) error {
	mapped := MapGormErrorToDomain(err)
	if mapped == nil {
		return nil
	}
	if errors.Is(mapped, domain.ErrAlreadyExists) || errors.Is(mapped, domain.ErrNotFound) {
		return mapped
	}
	return domain.NewStorageError(op, mapped)
}

// WrapError runs op and maps its error.
//
//	err := dberr.WrapError(func() error {
//		return r.db.WithContext(ctx).Create(row).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
