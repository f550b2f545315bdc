// Package testutil provides shared test helpers: an in-memory database
// and builders for the domain objects tests construct repeatedly.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/service"
	"github.com/sublens-app/sublens/internal/storage"
)

// SetupTestDB creates a migrated in-memory database. Cleanup is automatic.
func SetupTestDB(t *testing.T) service.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// NewTransaction builds a confirmed transaction with sensible defaults.
func NewTransaction(merchant string, amount int64, date time.Time) *model.Transaction {
	return &model.Transaction{
		ID:       uuid.NewString(),
		Date:     date,
		Merchant: merchant,
		Amount:   amount,
		Currency: "JPY",
		Status:   model.StatusConfirmed,
	}
}

// NewMail builds a raw notification mail. The received time doubles as a
// deterministic message ID suffix when id is empty.
func NewMail(id, sender, subject, body string, receivedAt time.Time) model.RawMessage {
	if id == "" {
		id = "msg-" + receivedAt.Format("20060102150405")
	}
	return model.RawMessage{
		ID:         id,
		ReceivedAt: receivedAt,
		Sender:     sender,
		Subject:    subject,
		Body:       body,
	}
}
