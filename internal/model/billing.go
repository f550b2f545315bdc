package model

import "time"

// MonthEnd is the sentinel closing day meaning "last day of the month".
const MonthEnd = 99

// BillingCycleSettings describes when a card's statement closes and when
// the resulting bill is paid. ClosingDay may be MonthEnd.
type BillingCycleSettings struct {
	CardName   string
	ClosingDay int
	PaymentDay int
	IsCustom   bool
}

// BillingPeriod is one statement period with its predicted payment date.
type BillingPeriod struct {
	Start       time.Time
	End         time.Time
	PaymentDate time.Time
	CardName    string
}

// Contains reports whether a transaction date falls inside the period.
func (p *BillingPeriod) Contains(date time.Time) bool {
	return !date.Before(p.Start) && !date.After(p.End)
}
