package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublens-app/sublens/internal/model"
)

func TestLoadBillingOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("billing.cards.rakuten.closing_day", "month_end")
	viper.Set("billing.cards.rakuten.payment_day", "27")
	viper.Set("billing.cards.SMBC.closing_day", "15")
	viper.Set("billing.cards.SMBC.payment_day", "10")
	viper.Set("billing.cards.broken.closing_day", "soon")
	viper.Set("billing.cards.broken.payment_day", "10")

	overrides := LoadBillingOverrides()
	require.Len(t, overrides, 3)

	assert.Equal(t, model.MonthEnd, overrides["rakuten"].ClosingDay)
	assert.Equal(t, 27, overrides["rakuten"].PaymentDay)

	// Issuer keys come back lowercased.
	assert.Equal(t, 15, overrides["smbc"].ClosingDay)
	assert.Equal(t, 10, overrides["smbc"].PaymentDay)

	// Unparseable days pass through as zero for the mapper to reject.
	assert.Equal(t, 0, overrides["broken"].ClosingDay)
}

func TestLoadBillingOverridesEmpty(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	assert.Nil(t, LoadBillingOverrides())
}
