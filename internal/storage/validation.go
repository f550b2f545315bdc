// Package storage provides the data persistence layer for the sublens application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sublens-app/sublens/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidPattern     = errors.New("invalid pattern")
	ErrInvalidWindow      = errors.New("match window must be non-negative")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransaction validates a single transaction before it is written.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	switch txn.Status {
	case model.StatusPending, model.StatusConfirmed:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransaction, txn.Status)
	}
	return nil
}

// validatePattern validates a periodic pattern before it is written.
func validatePattern(pattern *model.PeriodicPattern) error {
	if pattern == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if strings.TrimSpace(pattern.MerchantKey) == "" {
		return fmt.Errorf("%w: missing merchant key", ErrInvalidPattern)
	}
	if pattern.Occurrences < 0 {
		return fmt.Errorf("%w: negative occurrence count", ErrInvalidPattern)
	}
	return nil
}
