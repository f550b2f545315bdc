// Package periodic derives recurring-charge patterns from a merchant's
// transaction history. Detection is a pure, idempotent full recompute over
// one merchant's current transaction list; nothing updates incrementally.
package periodic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/service"
)

// MinOccurrences is the minimum charge count before a pattern is scored.
const MinOccurrences = 3

// scoreFloor is the template score below which the period stays unknown.
const scoreFloor = 0.3

// periodTemplate is one cadence window the day gaps are scored against.
type periodTemplate struct {
	period  model.Period
	minDays float64
	maxDays float64
	ideal   float64
}

var templates = []periodTemplate{
	{model.PeriodMonthly, 25, 35, 30},
	{model.PeriodQuarterly, 85, 95, 90},
	{model.PeriodYearly, 350, 380, 365},
}

// Plausible per-charge band for a subscription, in minor units. Charges
// outside it recur for other reasons (parking meters, rent).
const (
	minPlausibleCharge = 100
	maxPlausibleCharge = 100_000
)

// Detector scores merchant transaction series against the period templates.
type Detector struct {
	now func() time.Time
}

// New creates a detector. A nil now falls back to time.Now.
func New(now func() time.Time) *Detector {
	if now == nil {
		now = time.Now
	}
	return &Detector{now: now}
}

// Detect computes the periodic pattern for one merchant's confirmed
// transactions. It returns nil when fewer than MinOccurrences confirmed
// charges exist.
func (d *Detector) Detect(merchantKey string, txns []model.Transaction) *model.PeriodicPattern {
	confirmed := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Status == model.StatusConfirmed && t.Amount > 0 {
			confirmed = append(confirmed, t)
		}
	}
	if len(confirmed) < MinOccurrences {
		return nil
	}

	sort.Slice(confirmed, func(i, j int) bool {
		return confirmed[i].Date.Before(confirmed[j].Date)
	})

	gaps := dayGaps(confirmed)
	meanGap := mean(gaps)
	gapStddev := stddev(gaps, meanGap)

	period, periodFit := bestPeriod(meanGap, gapStddev)

	amounts := make([]float64, len(confirmed))
	var amountSum int64
	for i, t := range confirmed {
		amounts[i] = float64(t.Amount)
		amountSum += t.Amount
	}
	meanAmount := mean(amounts)
	amountCV := 0.0
	if meanAmount > 0 {
		amountCV = stddev(amounts, meanAmount) / meanAmount
	}

	ids := make([]string, len(confirmed))
	for i, t := range confirmed {
		ids[i] = t.ID
	}

	last := confirmed[len(confirmed)-1].Date
	pattern := &model.PeriodicPattern{
		MerchantKey:         merchantKey,
		Period:              period,
		AverageIntervalDays: meanGap,
		IntervalVariance:    gapStddev,
		AverageAmount:       amountSum / int64(len(confirmed)),
		Occurrences:         len(confirmed),
		TransactionIDs:      ids,
		LastSeen:            last,
	}

	if period != model.PeriodUnknown {
		pattern.NextEstimated = last.AddDate(0, 0, int(math.Round(meanGap)))
	}

	gapConsistent := meanGap > 0 && gapStddev/meanGap < 0.25
	amountConsistent := amountCV < 0.3
	plausible := pattern.AverageAmount >= minPlausibleCharge && pattern.AverageAmount <= maxPlausibleCharge

	pattern.IsLikelySubscription = period != model.PeriodUnknown &&
		gapConsistent &&
		amountConsistent &&
		len(confirmed) >= MinOccurrences &&
		plausible

	pattern.Confidence = blendConfidence(periodFit, amountCV, len(confirmed), gapConsistent && amountConsistent)

	if pattern.IsLikelySubscription && period.Days() > 0 {
		staleAfter := time.Duration(2*period.Days()) * 24 * time.Hour
		pattern.IsLikelyUnused = d.now().Sub(last) > staleAfter
	}

	return pattern
}

// Recompute refreshes the stored pattern for one merchant from its current
// transaction list, deleting the record when the merchant no longer
// qualifies.
func (d *Detector) Recompute(ctx context.Context, storage service.Storage, merchantKey string) (*model.PeriodicPattern, error) {
	txns, err := storage.GetTransactionsByMerchant(ctx, merchantKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for %q: %w", merchantKey, err)
	}

	pattern := d.Detect(merchantKey, txns)
	if pattern == nil {
		if err := storage.DeletePattern(ctx, merchantKey); err != nil {
			return nil, fmt.Errorf("failed to delete stale pattern for %q: %w", merchantKey, err)
		}
		return nil, nil
	}

	if err := storage.SavePattern(ctx, pattern); err != nil {
		return nil, fmt.Errorf("failed to save pattern for %q: %w", merchantKey, err)
	}
	return pattern, nil
}

// bestPeriod scores the mean gap against each template and returns the
// best-fitting period above the floor.
func bestPeriod(meanGap, gapStddev float64) (model.Period, float64) {
	bestPeriodLabel := model.PeriodUnknown
	bestScore := 0.0

	for _, tpl := range templates {
		if meanGap < tpl.minDays || meanGap > tpl.maxDays {
			continue
		}

		closeness := 1 - math.Abs(meanGap-tpl.ideal)/(tpl.maxDays-tpl.minDays)
		varianceScore := 1.0
		if meanGap > 0 {
			varianceScore = 1 - math.Min(1, (gapStddev/meanGap)/0.5)
		}

		score := 0.6*closeness + 0.4*varianceScore
		if score > bestScore {
			bestScore = score
			bestPeriodLabel = tpl.period
		}
	}

	if bestScore < scoreFloor {
		return model.PeriodUnknown, 0
	}
	return bestPeriodLabel, bestScore
}

// blendConfidence combines period fit (40%), amount consistency (30%),
// occurrence-count bonus (20%), and a consistency bonus (10%).
func blendConfidence(periodFit, amountCV float64, occurrences int, consistent bool) float64 {
	amountScore := 1 - math.Min(1, amountCV/0.3)
	occurrenceBonus := math.Min(1, float64(occurrences-2)/4)
	consistencyBonus := 0.0
	if consistent {
		consistencyBonus = 1.0
	}

	confidence := 0.4*periodFit + 0.3*amountScore + 0.2*occurrenceBonus + 0.1*consistencyBonus
	return math.Min(1, confidence)
}

func dayGaps(txns []model.Transaction) []float64 {
	gaps := make([]float64, 0, len(txns)-1)
	for i := 1; i < len(txns); i++ {
		gaps = append(gaps, txns[i].Date.Sub(txns[i-1].Date).Hours()/24)
	}
	sort.Float64s(gaps)
	return gaps
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64, m float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
