// Package recon matches confirmed extractions against earlier pending
// notices and merges them in place. This is the one pipeline stage with a
// genuine ordering dependency: a confirmed notice can only reconcile
// against pendings created by earlier processing.
package recon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/service"
)

// MatchWindowDays is the date tolerance for pending/confirmed matching.
const MatchWindowDays = 2

// Action reports what ReconcileOrInsert did with a confirmed transaction.
type Action string

const (
	// ActionInserted means no pending matched and a new record was created.
	ActionInserted Action = "inserted"
	// ActionReconciled means an existing pending record was overwritten.
	ActionReconciled Action = "reconciled"
	// ActionHeld means a pending record was stored to await confirmation.
	ActionHeld Action = "held"
	// ActionSkipped means an equivalent pending already occupied the bucket.
	ActionSkipped Action = "skipped"
)

// Store wraps the persistence layer with the reconcile-or-insert
// operation and the one-pending-per-bucket invariant.
type Store struct {
	storage    service.Storage
	logger     *slog.Logger
	windowDays int
}

// New creates a reconciliation store.
func New(storage service.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		storage:    storage,
		logger:     logger,
		windowDays: MatchWindowDays,
	}
}

// HoldPending stores a preliminary transaction. If an unmatched pending
// with the same amount already sits in the date bucket, the new notice is
// treated as a duplicate of it and dropped, keeping at most one unmatched
// pending per (amount, approximate-date) bucket.
func (s *Store) HoldPending(ctx context.Context, txn *model.Transaction) (Action, error) {
	existing, err := s.storage.FindPendingMatches(ctx, txn.Amount, txn.Date, s.windowDays)
	if err != nil {
		return "", fmt.Errorf("failed to scan pending bucket: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Debug("pending bucket already occupied",
			"amount", txn.Amount,
			"date", txn.Date.Format("2006-01-02"),
			"existing_id", existing[0].ID)
		return ActionSkipped, nil
	}

	txn.Status = model.StatusPending
	if err := s.storage.SaveTransaction(ctx, txn); err != nil {
		return "", fmt.Errorf("failed to save pending transaction: %w", err)
	}
	return ActionHeld, nil
}

// ReconcileOrInsert takes a confirmed transaction and either merges it
// into a matching pending record (amount equal, date within the window)
// or inserts it as new. The pending record keeps its original id; only
// merchant detail and status are overwritten.
func (s *Store) ReconcileOrInsert(ctx context.Context, txn *model.Transaction) (Action, *model.Transaction, error) {
	matches, err := s.storage.FindPendingMatches(ctx, txn.Amount, txn.Date, s.windowDays)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find pending matches: %w", err)
	}

	if len(matches) == 0 {
		txn.Status = model.StatusConfirmed
		if err := s.storage.SaveTransaction(ctx, txn); err != nil {
			return "", nil, fmt.Errorf("failed to insert confirmed transaction: %w", err)
		}
		return ActionInserted, txn, nil
	}

	match := closestByDate(matches, txn.Date)
	if len(matches) > 1 {
		// A heuristic choice, not an error: pick the closest and move on.
		s.logger.Warn("multiple pending matches, picking closest by date",
			"amount", txn.Amount,
			"date", txn.Date.Format("2006-01-02"),
			"candidates", len(matches),
			"picked", match.ID)
	}

	merged := match
	merged.Merchant = txn.Merchant
	merged.MerchantRaw = txn.MerchantRaw
	merged.Category = txn.Category
	merged.Platform = txn.Platform
	merged.Status = model.StatusConfirmed
	merged.IsSubscription = txn.IsSubscription
	merged.SubscriptionConfidence = txn.SubscriptionConfidence
	merged.NeedsReview = txn.NeedsReview
	if !txn.Date.IsZero() {
		merged.Date = txn.Date
	}

	if err := s.storage.ConfirmTransaction(ctx, &merged); err != nil {
		return "", nil, fmt.Errorf("failed to confirm transaction %s: %w", merged.ID, err)
	}
	return ActionReconciled, &merged, nil
}

// Unresolved lists pending transactions that never matched a confirmed
// notice. They stay visible rather than being dropped.
func (s *Store) Unresolved(ctx context.Context) ([]model.Transaction, error) {
	return s.storage.ListUnresolvedPending(ctx)
}

func closestByDate(matches []model.Transaction, date time.Time) model.Transaction {
	best := matches[0]
	bestGap := absDuration(best.Date.Sub(date))
	for _, m := range matches[1:] {
		if gap := absDuration(m.Date.Sub(date)); gap < bestGap {
			best = m
			bestGap = gap
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
