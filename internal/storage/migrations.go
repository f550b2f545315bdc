package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					merchant TEXT NOT NULL,
					merchant_raw TEXT,
					merchant_key TEXT NOT NULL,
					category TEXT,
					platform TEXT,
					currency TEXT NOT NULL DEFAULT 'JPY',
					amount INTEGER NOT NULL,
					status TEXT NOT NULL,
					card_last4 TEXT,
					wallet_type TEXT,
					source_message_id TEXT,
					subscription_confidence REAL DEFAULT 0,
					is_subscription INTEGER DEFAULT 0,
					needs_review INTEGER DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,
				`CREATE INDEX idx_transactions_merchant_key ON transactions(merchant_key)`,
				`CREATE INDEX idx_transactions_status ON transactions(status)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Processed message bookkeeping",
		Up: func(tx *sql.Tx) error {
			query := `CREATE TABLE IF NOT EXISTS processed_messages (
				message_id TEXT PRIMARY KEY,
				reason TEXT NOT NULL,
				processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`
			if _, err := tx.Exec(query); err != nil {
				return fmt.Errorf("failed to create processed_messages table: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Periodic patterns",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS periodic_patterns (
					merchant_key TEXT PRIMARY KEY,
					period TEXT NOT NULL,
					occurrences INTEGER NOT NULL,
					average_interval_days REAL NOT NULL,
					interval_variance REAL NOT NULL,
					average_amount INTEGER NOT NULL,
					confidence REAL NOT NULL,
					is_likely_subscription INTEGER NOT NULL,
					is_likely_unused INTEGER NOT NULL,
					last_seen DATETIME NOT NULL,
					next_estimated DATETIME,
					transaction_ids TEXT,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_periodic_patterns_subscription ON periodic_patterns(is_likely_subscription)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
