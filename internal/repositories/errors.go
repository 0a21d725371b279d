package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a row does not exist or is not visible to the caller
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the requested record is missing
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
