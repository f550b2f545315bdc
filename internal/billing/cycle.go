// Package billing assigns transactions to card statement periods and
// predicts payment dates from per-card closing/payment-day settings.
package billing

import (
	"log/slog"
	"strings"
	"time"

	"github.com/sublens-app/sublens/internal/model"
)

// Hard defaults when neither a user override nor an issuer default
// exists: month-end close, payment on the 27th of the following month.
const (
	DefaultClosingDay = model.MonthEnd
	DefaultPaymentDay = 27
)

// issuerDefaults carries the published closing/payment days of the major
// issuers. Keyed by the issuer label the extractor assigns.
var issuerDefaults = map[string]model.BillingCycleSettings{
	"rakuten": {ClosingDay: model.MonthEnd, PaymentDay: 27},
	"smbc":    {ClosingDay: 15, PaymentDay: 10},
	"mufg":    {ClosingDay: 15, PaymentDay: 27},
	"epos":    {ClosingDay: 27, PaymentDay: 27},
	"jcb":     {ClosingDay: 15, PaymentDay: 10},
}

// Override is a user-supplied billing cycle for one card.
type Override struct {
	ClosingDay int
	PaymentDay int
}

// Mapper resolves card settings and computes statement periods.
type Mapper struct {
	logger    *slog.Logger
	overrides map[string]Override
}

// NewMapper creates a mapper over user overrides. Malformed overrides are
// dropped with a warning; resolution then falls through to defaults.
func NewMapper(overrides map[string]Override, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}

	valid := make(map[string]Override, len(overrides))
	for card, o := range overrides {
		if !validDay(o.ClosingDay) || !validDay(o.PaymentDay) || o.PaymentDay == model.MonthEnd {
			logger.Warn("ignoring malformed billing override",
				"card", card,
				"closing_day", o.ClosingDay,
				"payment_day", o.PaymentDay)
			continue
		}
		valid[strings.ToLower(card)] = o
	}

	return &Mapper{overrides: valid, logger: logger}
}

func validDay(day int) bool {
	return (day >= 1 && day <= 31) || day == model.MonthEnd
}

// Resolve returns the billing settings for a card: user override first,
// then the issuer default table, then the hard default.
func (m *Mapper) Resolve(cardName string) model.BillingCycleSettings {
	key := strings.ToLower(cardName)

	if o, ok := m.overrides[key]; ok {
		return model.BillingCycleSettings{
			CardName:   cardName,
			ClosingDay: o.ClosingDay,
			PaymentDay: o.PaymentDay,
			IsCustom:   true,
		}
	}

	if d, ok := issuerDefaults[key]; ok {
		d.CardName = cardName
		return d
	}

	return model.BillingCycleSettings{
		CardName:   cardName,
		ClosingDay: DefaultClosingDay,
		PaymentDay: DefaultPaymentDay,
	}
}

// CurrentPeriod returns the statement period containing the reference
// date, with its predicted payment date.
func (m *Mapper) CurrentPeriod(cardName string, ref time.Time) model.BillingPeriod {
	return periodFor(m.Resolve(cardName), ref)
}

// PeriodFor returns the statement period a transaction date belongs to.
// Needed for after-the-fact re-attribution; identical math to
// CurrentPeriod, named for intent.
func (m *Mapper) PeriodFor(cardName string, txDate time.Time) model.BillingPeriod {
	return periodFor(m.Resolve(cardName), txDate)
}

func periodFor(settings model.BillingCycleSettings, ref time.Time) model.BillingPeriod {
	ref = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	end := closingDate(ref.Year(), ref.Month(), settings.ClosingDay, ref.Location())
	if ref.After(end) {
		next := ref.AddDate(0, 1, -ref.Day()+1) // first of next month
		end = closingDate(next.Year(), next.Month(), settings.ClosingDay, ref.Location())
	}

	prevMonth := end.AddDate(0, -1, -end.Day()+1)
	start := closingDate(prevMonth.Year(), prevMonth.Month(), settings.ClosingDay, ref.Location()).AddDate(0, 0, 1)

	payMonth := end.AddDate(0, 1, -end.Day()+1)
	payment := clampedDate(payMonth.Year(), payMonth.Month(), settings.PaymentDay, ref.Location())

	return model.BillingPeriod{
		CardName:    settings.CardName,
		Start:       start,
		End:         end,
		PaymentDate: payment,
	}
}

// closingDate returns the closing date within a given month, handling the
// month-end sentinel and short months.
func closingDate(year int, month time.Month, closingDay int, loc *time.Location) time.Time {
	if closingDay == model.MonthEnd {
		return time.Date(year, month+1, 1, 0, 0, 0, 0, loc).AddDate(0, 0, -1)
	}
	return clampedDate(year, month, closingDay, loc)
}

// clampedDate builds a date, clamping the day to the month's length so a
// day-31 setting still works in February.
func clampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	lastDay := time.Date(year, month+1, 1, 0, 0, 0, 0, loc).AddDate(0, 0, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
