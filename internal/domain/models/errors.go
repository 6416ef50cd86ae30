package models

import (
	"errors"
	"fmt"
)

// Error kinds returned by the costing and distribution services.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrAlreadyFinalized = errors.New("already finalized")
	ErrConflict         = errors.New("concurrent modification")
)

var (
	ErrMaterialNotFound     = fmt.Errorf("material %w", ErrNotFound)
	ErrPriceNotFound        = fmt.Errorf("no valid price for this material at this time: %w", ErrNotFound)
	ErrDistributionNotFound = fmt.Errorf("distribution %w", ErrNotFound)
	ErrInvalidPrice         = fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	ErrInvalidTransition    = fmt.Errorf("%w: transition not allowed from current status", ErrInvalidInput)
)

// StorageError wraps a failure of the persistence collaborator.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapStorage classifies err as a storage failure unless it already carries a domain kind.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomain(err) || IsStorage(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsNotFound reports whether err denotes a missing material, price or record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStorage reports whether err originated in the persistence layer.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func isDomain(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrAlreadyFinalized) ||
		errors.Is(err, ErrConflict)
}
