package repo

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by lookups that matched no row. The service
// layer maps it to its own classified errors; gorm never leaks past
// this package.
var ErrNotFound = errors.New("record not found")

type GormRepo struct {
	DB *gorm.DB
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
