package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sublens-app/sublens/internal/common"
	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/normalize"
	"github.com/sublens-app/sublens/internal/service"
)

const transactionColumns = `id, date, merchant, merchant_raw, category, platform,
	currency, amount, status, card_last4, wallet_type, source_message_id,
	subscription_confidence, is_subscription, needs_review`

// SaveTransaction inserts a new ledger entry. A second insert with the same
// date, amount, merchant and source message is rejected as a duplicate.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	// Validate inputs
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	if txn.Currency == "" {
		txn.Currency = "JPY"
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, hash, date, merchant, merchant_raw, merchant_key, category,
			platform, currency, amount, status, card_last4, wallet_type,
			source_message_id, subscription_confidence, is_subscription, needs_review
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID,
		txn.GenerateHash(),
		txn.Date,
		txn.Merchant,
		txn.MerchantRaw,
		normalize.MerchantKey(txn.MerchantKey()),
		txn.Category,
		txn.Platform,
		txn.Currency,
		txn.Amount,
		string(txn.Status),
		txn.CardLast4,
		txn.WalletType,
		txn.SourceMessageID,
		txn.SubscriptionConfidence,
		txn.IsSubscription,
		txn.NeedsReview,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transaction %s: %w", txn.ID, common.ErrDuplicateEntry)
	}
	return nil
}

// GetTransactionByID returns a single transaction by its ID.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactions returns ledger entries matching the filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var conditions []string
	var args []any

	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Merchant != "" {
		conditions = append(conditions, "merchant_key = ?")
		args = append(args, normalize.MerchantKey(filter.Merchant))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetTransactionsByMerchant returns the full charge history for one merchant
// key, oldest first, which is the order recurrence detection expects.
func (s *SQLiteStorage) GetTransactionsByMerchant(ctx context.Context, merchantKey string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchantKey, "merchantKey"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE merchant_key = ? ORDER BY date, id`,
		normalize.MerchantKey(merchantKey))
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// FindPendingMatches returns pending transactions with exactly the given
// amount whose date falls within windowDays of date.
func (s *SQLiteStorage) FindPendingMatches(ctx context.Context, amount int64, date time.Time, windowDays int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if windowDays < 0 {
		return nil, ErrInvalidWindow
	}

	start := date.AddDate(0, 0, -windowDays)
	end := date.AddDate(0, 0, windowDays)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE status = ? AND amount = ? AND date >= ? AND date <= ?
		 ORDER BY date, id`,
		string(model.StatusPending), amount, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending matches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// ConfirmTransaction overwrites merchant detail on an existing pending row
// and flips it to confirmed, keeping the original row ID.
func (s *SQLiteStorage) ConfirmTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET
			date = ?,
			merchant = ?,
			merchant_raw = ?,
			merchant_key = ?,
			category = ?,
			platform = ?,
			status = ?,
			card_last4 = ?,
			wallet_type = ?,
			source_message_id = ?,
			subscription_confidence = ?,
			is_subscription = ?,
			needs_review = ?
		WHERE id = ?
	`,
		txn.Date,
		txn.Merchant,
		txn.MerchantRaw,
		normalize.MerchantKey(txn.MerchantKey()),
		txn.Category,
		txn.Platform,
		string(model.StatusConfirmed),
		txn.CardLast4,
		txn.WalletType,
		txn.SourceMessageID,
		txn.SubscriptionConfidence,
		txn.IsSubscription,
		txn.NeedsReview,
		txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to confirm transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transaction %s: %w", txn.ID, common.ErrNotFound)
	}
	return nil
}

// ListUnresolvedPending returns every pending entry still awaiting a
// confirmed follow-up, oldest first.
func (s *SQLiteStorage) ListUnresolvedPending(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE status = ? ORDER BY date, id`,
		string(model.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var status string
	var merchantRaw, category, platform, cardLast4, walletType, sourceID sql.NullString

	err := row.Scan(
		&txn.ID,
		&txn.Date,
		&txn.Merchant,
		&merchantRaw,
		&category,
		&platform,
		&txn.Currency,
		&txn.Amount,
		&status,
		&cardLast4,
		&walletType,
		&sourceID,
		&txn.SubscriptionConfidence,
		&txn.IsSubscription,
		&txn.NeedsReview,
	)
	if err != nil {
		return nil, err
	}

	txn.Status = model.TransactionStatus(status)
	txn.MerchantRaw = merchantRaw.String
	txn.Category = category.String
	txn.Platform = platform.String
	txn.CardLast4 = cardLast4.String
	txn.WalletType = walletType.String
	txn.SourceMessageID = sourceID.String
	return &txn, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
