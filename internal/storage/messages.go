package storage

import (
	"context"
	"fmt"
)

// IsMessageProcessed reports whether a mail has already been through the
// pipeline in a previous run.
func (s *SQLiteStorage) IsMessageProcessed(ctx context.Context, messageID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(messageID, "messageID"); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM processed_messages WHERE message_id = ?",
		messageID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check processed message: %w", err)
	}
	return count > 0, nil
}

// MarkMessageProcessed records the outcome for a mail so re-runs skip it.
// Marking the same message again just refreshes the reason.
func (s *SQLiteStorage) MarkMessageProcessed(ctx context.Context, messageID string, reason string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(messageID, "messageID"); err != nil {
		return err
	}
	if err := validateString(reason, "reason"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_messages (message_id, reason)
		VALUES (?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			reason = excluded.reason,
			processed_at = CURRENT_TIMESTAMP
	`, messageID, reason)
	if err != nil {
		return fmt.Errorf("failed to mark message processed: %w", err)
	}
	return nil
}
