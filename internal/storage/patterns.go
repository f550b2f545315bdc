package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sublens-app/sublens/internal/common"
	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/normalize"
)

const patternColumns = `merchant_key, period, occurrences, average_interval_days,
	interval_variance, average_amount, confidence, is_likely_subscription,
	is_likely_unused, last_seen, next_estimated, transaction_ids`

// SavePattern upserts the recurrence record for a merchant. Patterns are
// recomputed wholesale, so the previous row is simply replaced.
func (s *SQLiteStorage) SavePattern(ctx context.Context, pattern *model.PeriodicPattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePattern(pattern); err != nil {
		return err
	}

	idsJSON := ""
	if len(pattern.TransactionIDs) > 0 {
		idsBytes, err := json.Marshal(pattern.TransactionIDs)
		if err != nil {
			return fmt.Errorf("failed to encode transaction IDs: %w", err)
		}
		idsJSON = string(idsBytes)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO periodic_patterns (
			merchant_key, period, occurrences, average_interval_days,
			interval_variance, average_amount, confidence,
			is_likely_subscription, is_likely_unused, last_seen,
			next_estimated, transaction_ids
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(merchant_key) DO UPDATE SET
			period = excluded.period,
			occurrences = excluded.occurrences,
			average_interval_days = excluded.average_interval_days,
			interval_variance = excluded.interval_variance,
			average_amount = excluded.average_amount,
			confidence = excluded.confidence,
			is_likely_subscription = excluded.is_likely_subscription,
			is_likely_unused = excluded.is_likely_unused,
			last_seen = excluded.last_seen,
			next_estimated = excluded.next_estimated,
			transaction_ids = excluded.transaction_ids,
			updated_at = CURRENT_TIMESTAMP
	`,
		normalize.MerchantKey(pattern.MerchantKey),
		string(pattern.Period),
		pattern.Occurrences,
		pattern.AverageIntervalDays,
		pattern.IntervalVariance,
		pattern.AverageAmount,
		pattern.Confidence,
		pattern.IsLikelySubscription,
		pattern.IsLikelyUnused,
		pattern.LastSeen,
		pattern.NextEstimated,
		idsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save pattern: %w", err)
	}
	return nil
}

// GetPattern returns the recurrence record for one merchant.
func (s *SQLiteStorage) GetPattern(ctx context.Context, merchantKey string) (*model.PeriodicPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchantKey, "merchantKey"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+patternColumns+` FROM periodic_patterns WHERE merchant_key = ?`,
		normalize.MerchantKey(merchantKey))

	pattern, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pattern for %s: %w", merchantKey, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}
	return pattern, nil
}

// GetAllPatterns returns every stored recurrence record, highest confidence first.
func (s *SQLiteStorage) GetAllPatterns(ctx context.Context) ([]model.PeriodicPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+patternColumns+` FROM periodic_patterns
		 ORDER BY confidence DESC, merchant_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []model.PeriodicPattern
	for rows.Next() {
		pattern, scanErr := scanPattern(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", scanErr)
		}
		patterns = append(patterns, *pattern)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patterns: %w", err)
	}
	return patterns, nil
}

// DeletePattern removes the recurrence record for a merchant. Deleting a
// missing pattern is not an error; recomputation calls this whenever a
// merchant drops below the occurrence threshold.
func (s *SQLiteStorage) DeletePattern(ctx context.Context, merchantKey string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(merchantKey, "merchantKey"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM periodic_patterns WHERE merchant_key = ?",
		normalize.MerchantKey(merchantKey))
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}
	return nil
}

func scanPattern(row rowScanner) (*model.PeriodicPattern, error) {
	var pattern model.PeriodicPattern
	var period string
	var nextEstimated sql.NullTime
	var idsJSON sql.NullString

	err := row.Scan(
		&pattern.MerchantKey,
		&period,
		&pattern.Occurrences,
		&pattern.AverageIntervalDays,
		&pattern.IntervalVariance,
		&pattern.AverageAmount,
		&pattern.Confidence,
		&pattern.IsLikelySubscription,
		&pattern.IsLikelyUnused,
		&pattern.LastSeen,
		&nextEstimated,
		&idsJSON,
	)
	if err != nil {
		return nil, err
	}

	pattern.Period = model.Period(period)
	if nextEstimated.Valid {
		pattern.NextEstimated = nextEstimated.Time
	}
	if idsJSON.Valid && idsJSON.String != "" {
		if err := json.Unmarshal([]byte(idsJSON.String), &pattern.TransactionIDs); err != nil {
			return nil, fmt.Errorf("failed to decode transaction IDs: %w", err)
		}
	}
	return &pattern, nil
}
