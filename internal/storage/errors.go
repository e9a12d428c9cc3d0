package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage matches every *StorageError via errors.Is.
	ErrStorage = errors.New("storage error")

	ErrInvalidCount = errors.New("follower count must not be negative")
	ErrInvalidDate  = errors.New("date must be formatted as YYYY-MM-DD")
)

// StorageError reports a failure of the underlying database for one operation.
type StorageError struct {
	Op        string
	AccountID string
	Err       error
}

func newStorageError(op, accountID string, err error) error {
	return &StorageError{Op: op, AccountID: accountID, Err: err}
}

func (e *StorageError) Error() string {
	if e.AccountID == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %q: %v", e.Op, e.AccountID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
