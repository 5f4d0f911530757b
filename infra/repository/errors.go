package repository

import (
	"errors"

	"github.com/amirasaad/spendsense/pkg/domain"
	"gorm.io/gorm"
)

// gormErrors maps gorm sentinels to the domain errors callers branch on.
// Order matters when a chain carries more than one.
var gormErrors = []struct {
	gorm   error
	domain error
}{
	{gorm.ErrRecordNotFound, domain.ErrNotFound},
	{gorm.ErrDuplicatedKey, domain.ErrAlreadyExists},
	{gorm.ErrForeignKeyViolated, domain.ErrValidation},
	{gorm.ErrInvalidData, domain.ErrValidation},
	{gorm.ErrCheckConstraintViolated, domain.ErrValidation},
}

// MapGormErrorToDomain converts gorm errors anywhere in err's chain to domain
// errors. Unmapped errors are returned unchanged.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}
	for _, m := range gormErrors {
		if errors.Is(err, m.gorm) {
			return m.domain
		}
	}
	return err
}

// WrapError runs a gorm operation and maps its error.
//
//	err := WrapError(func() error {
//	    return s.db.WithContext(ctx).Create(row).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
