package model

import "time"

// Period labels the cadence of a recurring charge.
type Period string

const (
	// PeriodMonthly covers gaps of roughly 25-35 days.
	PeriodMonthly Period = "monthly"
	// PeriodQuarterly covers gaps of roughly 85-95 days.
	PeriodQuarterly Period = "quarterly"
	// PeriodYearly covers gaps of roughly 350-380 days.
	PeriodYearly Period = "yearly"
	// PeriodUnknown means no template scored above the floor.
	PeriodUnknown Period = "unknown"
)

// Days returns the nominal length of the period in days, or 0 for unknown.
func (p Period) Days() int {
	switch p {
	case PeriodMonthly:
		return 30
	case PeriodQuarterly:
		return 90
	case PeriodYearly:
		return 365
	default:
		return 0
	}
}

// PeriodicPattern is the derived recurrence record for one merchant. It is
// recomputed in full from the merchant's current transaction list whenever
// that list changes; nothing here updates incrementally.
type PeriodicPattern struct {
	LastSeen             time.Time
	NextEstimated        time.Time
	MerchantKey          string
	Period               Period
	TransactionIDs       []string
	AverageIntervalDays  float64
	IntervalVariance     float64
	Confidence           float64
	AverageAmount        int64
	Occurrences          int
	IsLikelySubscription bool
	IsLikelyUnused       bool
}
