package periodic

import (
	"github.com/sublens-app/sublens/internal/model"
)

// AggregateStats summarizes the detected patterns for display.
type AggregateStats struct {
	CountByPeriod     map[model.Period]int
	SubscriptionCount int
	UnusedCount       int
	AverageConfidence float64
	// EstimatedMonthlySpend is the recurring spend normalized to one
	// month, in minor units.
	EstimatedMonthlySpend int64
}

// Aggregate folds a pattern list into summary statistics.
func Aggregate(patterns []model.PeriodicPattern) AggregateStats {
	stats := AggregateStats{
		CountByPeriod: make(map[model.Period]int),
	}

	var confidenceSum float64
	for _, p := range patterns {
		stats.CountByPeriod[p.Period]++
		confidenceSum += p.Confidence

		if !p.IsLikelySubscription {
			continue
		}
		stats.SubscriptionCount++
		if p.IsLikelyUnused {
			stats.UnusedCount++
		}

		switch p.Period {
		case model.PeriodMonthly:
			stats.EstimatedMonthlySpend += p.AverageAmount
		case model.PeriodQuarterly:
			stats.EstimatedMonthlySpend += p.AverageAmount / 3
		case model.PeriodYearly:
			stats.EstimatedMonthlySpend += p.AverageAmount / 12
		}
	}

	if len(patterns) > 0 {
		stats.AverageConfidence = confidenceSum / float64(len(patterns))
	}
	return stats
}

// UnusedServices returns the subscription patterns whose latest charge is
// older than twice their detected period.
func UnusedServices(patterns []model.PeriodicPattern) []model.PeriodicPattern {
	var unused []model.PeriodicPattern
	for _, p := range patterns {
		if p.IsLikelySubscription && p.IsLikelyUnused {
			unused = append(unused, p)
		}
	}
	return unused
}
