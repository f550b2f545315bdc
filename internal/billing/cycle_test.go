package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sublens-app/sublens/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	m := NewMapper(map[string]Override{
		"rakuten": {ClosingDay: 15, PaymentDay: 5},
	}, nil)

	tests := []struct {
		card        string
		wantClosing int
		wantPayment int
		wantCustom  bool
	}{
		{"rakuten", 15, 5, true},
		{"smbc", 15, 10, false},
		{"mufg", 15, 27, false},
		{"epos", 27, 27, false},
		{"jcb", 15, 10, false},
		{"SMBC", 15, 10, false},
		{"obscure-card", model.MonthEnd, 27, false},
	}

	for _, tt := range tests {
		t.Run(tt.card, func(t *testing.T) {
			settings := m.Resolve(tt.card)
			assert.Equal(t, tt.wantClosing, settings.ClosingDay)
			assert.Equal(t, tt.wantPayment, settings.PaymentDay)
			assert.Equal(t, tt.wantCustom, settings.IsCustom)
		})
	}
}

func TestNewMapperDropsMalformedOverrides(t *testing.T) {
	m := NewMapper(map[string]Override{
		"cardA": {ClosingDay: 42, PaymentDay: 5},
		"cardB": {ClosingDay: 15, PaymentDay: model.MonthEnd},
		"cardC": {ClosingDay: model.MonthEnd, PaymentDay: 27},
	}, nil)

	assert.False(t, m.Resolve("cardA").IsCustom)
	assert.False(t, m.Resolve("cardB").IsCustom)
	assert.True(t, m.Resolve("cardC").IsCustom)
}

func TestPeriodForMonthEndClose(t *testing.T) {
	m := NewMapper(nil, nil)

	// rakuten closes at month end and pays on the 27th of the next month.
	period := m.PeriodFor("rakuten", date(2024, 3, 10))
	assert.Equal(t, date(2024, 3, 1), period.Start)
	assert.Equal(t, date(2024, 3, 31), period.End)
	assert.Equal(t, date(2024, 4, 27), period.PaymentDate)
}

func TestPeriodForMidMonthClose(t *testing.T) {
	m := NewMapper(nil, nil)

	// smbc closes on the 15th, pays on the 10th of the month after close.
	tests := []struct {
		name        string
		ref         time.Time
		wantStart   time.Time
		wantEnd     time.Time
		wantPayment time.Time
	}{
		{
			name:        "before closing day",
			ref:         date(2024, 3, 10),
			wantStart:   date(2024, 2, 16),
			wantEnd:     date(2024, 3, 15),
			wantPayment: date(2024, 4, 10),
		},
		{
			name:        "after closing day rolls to next period",
			ref:         date(2024, 3, 20),
			wantStart:   date(2024, 3, 16),
			wantEnd:     date(2024, 4, 15),
			wantPayment: date(2024, 5, 10),
		},
		{
			name:        "on closing day",
			ref:         date(2024, 3, 15),
			wantStart:   date(2024, 2, 16),
			wantEnd:     date(2024, 3, 15),
			wantPayment: date(2024, 4, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period := m.PeriodFor("smbc", tt.ref)
			assert.Equal(t, tt.wantStart, period.Start)
			assert.Equal(t, tt.wantEnd, period.End)
			assert.Equal(t, tt.wantPayment, period.PaymentDate)
		})
	}
}

func TestPeriodForShortMonthClamps(t *testing.T) {
	m := NewMapper(map[string]Override{
		"clamped": {ClosingDay: 31, PaymentDay: 31},
	}, nil)

	// A day-31 close in February clamps to the 29th (2024 is a leap year).
	period := m.PeriodFor("clamped", date(2024, 2, 10))
	assert.Equal(t, date(2024, 2, 1), period.Start)
	assert.Equal(t, date(2024, 2, 29), period.End)
	assert.Equal(t, date(2024, 3, 31), period.PaymentDate)
}

func TestPeriodContains(t *testing.T) {
	m := NewMapper(nil, nil)
	period := m.PeriodFor("rakuten", date(2024, 3, 10))

	assert.True(t, period.Contains(date(2024, 3, 1)))
	assert.True(t, period.Contains(date(2024, 3, 31)))
	assert.False(t, period.Contains(date(2024, 4, 1)))
	assert.False(t, period.Contains(date(2024, 2, 29)))
}

func TestCurrentPeriodYearBoundary(t *testing.T) {
	m := NewMapper(nil, nil)

	// mufg closes on the 15th; late December rolls into January.
	period := m.CurrentPeriod("mufg", date(2024, 12, 20))
	assert.Equal(t, date(2024, 12, 16), period.Start)
	assert.Equal(t, date(2025, 1, 15), period.End)
	assert.Equal(t, date(2025, 2, 27), period.PaymentDate)
}
