// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/sublens-app/sublens/internal/model"
)

// TransactionFilter defines filtering options for ledger queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    model.TransactionStatus
	Merchant  string
	Limit     int
	Offset    int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionsByMerchant(ctx context.Context, merchantKey string) ([]model.Transaction, error)
	// FindPendingMatches returns pending transactions whose amount equals
	// amount and whose date is within windowDays of date.
	FindPendingMatches(ctx context.Context, amount int64, date time.Time, windowDays int) ([]model.Transaction, error)
	// ConfirmTransaction overwrites merchant detail and flips a pending
	// record to confirmed, keeping its original id.
	ConfirmTransaction(ctx context.Context, txn *model.Transaction) error
	ListUnresolvedPending(ctx context.Context) ([]model.Transaction, error)

	// Processed-message bookkeeping for idempotent re-runs
	IsMessageProcessed(ctx context.Context, messageID string) (bool, error)
	MarkMessageProcessed(ctx context.Context, messageID string, reason string) error

	// Periodic pattern operations
	SavePattern(ctx context.Context, pattern *model.PeriodicPattern) error
	GetPattern(ctx context.Context, merchantKey string) (*model.PeriodicPattern, error)
	GetAllPatterns(ctx context.Context) ([]model.PeriodicPattern, error)
	DeletePattern(ctx context.Context, merchantKey string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
