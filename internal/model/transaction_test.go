package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateHash(t *testing.T) {
	base := Transaction{
		Date:            time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Merchant:        "Netflix",
		Amount:          1320,
		SourceMessageID: "m1",
	}

	t.Run("stable", func(t *testing.T) {
		other := base
		assert.Equal(t, base.GenerateHash(), other.GenerateHash())
	})

	t.Run("time of day ignored", func(t *testing.T) {
		other := base
		other.Date = base.Date.Add(9 * time.Hour)
		assert.Equal(t, base.GenerateHash(), other.GenerateHash())
	})

	tests := []struct {
		name   string
		mutate func(*Transaction)
	}{
		{"different date", func(txn *Transaction) { txn.Date = txn.Date.AddDate(0, 0, 1) }},
		{"different amount", func(txn *Transaction) { txn.Amount = 1490 }},
		{"different merchant", func(txn *Transaction) { txn.Merchant = "Spotify" }},
		{"different source", func(txn *Transaction) { txn.SourceMessageID = "m2" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.mutate(&other)
			assert.NotEqual(t, base.GenerateHash(), other.GenerateHash())
		})
	}
}

func TestMerchantKeyPrefersCanonical(t *testing.T) {
	txn := Transaction{Merchant: "Netflix", MerchantRaw: "NETFLIX.COM"}
	assert.Equal(t, "Netflix", txn.MerchantKey())

	txn.Merchant = ""
	assert.Equal(t, "NETFLIX.COM", txn.MerchantKey())
}
