package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// TransactionStatus tracks whether a charge has been confirmed by the issuer.
type TransactionStatus string

const (
	// StatusPending marks a preliminary notice awaiting a confirmed follow-up.
	StatusPending TransactionStatus = "pending"
	// StatusConfirmed marks a fully detailed charge.
	StatusConfirmed TransactionStatus = "confirmed"
)

// Transaction is a single ledger entry derived from a notification mail.
// Amounts are integer minor currency units (yen for JPY); floating point is
// never used so that reconciliation can compare amounts exactly.
type Transaction struct {
	Date                   time.Time
	ID                     string
	Merchant               string // canonical merchant name
	MerchantRaw            string // as extracted from the mail
	Category               string
	Platform               string // issuer or payment platform label
	Currency               string
	CardLast4              string
	WalletType             string
	SourceMessageID        string
	Status                 TransactionStatus
	Amount                 int64
	SubscriptionConfidence float64
	IsSubscription         bool
	NeedsReview            bool
}

// GenerateHash creates a stable hash for duplicate detection across re-runs
// of the same batch.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%d:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Merchant,
		t.SourceMessageID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// MerchantKey returns the name used for grouping this transaction with
// others from the same merchant.
func (t *Transaction) MerchantKey() string {
	if t.Merchant != "" {
		return t.Merchant
	}
	return t.MerchantRaw
}
