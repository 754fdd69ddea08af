// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
)

var (
	// ErrAccess is the sentinel wrapped by AccessError.
	ErrAccess = errors.New("repository root not readable")
	// ErrNotDirectory is returned when the root exists but is not a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrBudgetExceeded marks a discovery that stopped at its file or byte budget.
	ErrBudgetExceeded = errors.New("discovery budget exceeded")
	// ErrNoContent is returned when reading content from a zero FileRecord.
	ErrNoContent = errors.New("file record has no content handle")
)

// AccessError is returned when the repository root cannot be read.
// It is the only fatal discovery error; it wraps ErrAccess for errors.Is().
type AccessError struct {
	Root string
	Err  error
}

// Error implements the error interface.
func (e *AccessError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrAccess, e.Root, e.Err)
}

// Unwrap returns both ErrAccess and the underlying cause.
func (e *AccessError) Unwrap() []error { return []error{ErrAccess, e.Err} }

// BudgetError describes which budget stopped discovery.
type BudgetError struct {
	Limit string
	Value int64
}

// Error implements the error interface.
func (e *BudgetError) Error() string {
	return fmt.Sprintf("%s: %s limit %d reached", ErrBudgetExceeded, e.Limit, e.Value)
}

// Unwrap returns ErrBudgetExceeded for errors.Is() compatibility.
func (e *BudgetError) Unwrap() error { return ErrBudgetExceeded }
