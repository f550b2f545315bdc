package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/sublens-app/sublens/internal/billing"
	"github.com/sublens-app/sublens/internal/model"
)

// LoadBillingOverrides reads per-card billing cycle overrides from Viper.
// The config shape is:
//
//	billing:
//	  cards:
//	    rakuten:
//	      closing_day: month_end
//	      payment_day: 27
//
// closing_day accepts 1-31 or the string "month_end". Malformed entries are
// passed through unchanged; the mapper drops them with a warning.
func LoadBillingOverrides() map[string]billing.Override {
	cards := viper.GetStringMap("billing.cards")
	if len(cards) == 0 {
		return nil
	}

	overrides := make(map[string]billing.Override, len(cards))
	for issuer := range cards {
		key := "billing.cards." + issuer
		overrides[strings.ToLower(issuer)] = billing.Override{
			ClosingDay: parseDay(viper.GetString(key + ".closing_day")),
			PaymentDay: parseDay(viper.GetString(key + ".payment_day")),
		}
	}
	return overrides
}

func parseDay(v string) int {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "month_end") {
		return model.MonthEnd
	}
	day, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return day
}
