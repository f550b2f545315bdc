package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/periodic"
)

func subscriptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subs"},
		Short:   "List detected recurring charges",
		Long: `List merchants whose charge history shows a recurring cadence.

By default only likely subscriptions are shown; --all includes every
merchant with a detected pattern, and --unused narrows the list to
subscriptions that have not charged for over twice their period.`,
		RunE: runSubscriptions,
	}

	cmd.Flags().Bool("all", false, "include non-subscription patterns")
	cmd.Flags().Bool("unused", false, "only likely-unused subscriptions")

	return cmd
}

func runSubscriptions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	showAll, _ := cmd.Flags().GetBool("all")
	unusedOnly, _ := cmd.Flags().GetBool("unused")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	patterns, err := store.GetAllPatterns(ctx)
	if err != nil {
		return fmt.Errorf("failed to get patterns: %w", err)
	}

	shown := patterns
	switch {
	case unusedOnly:
		shown = periodic.UnusedServices(patterns)
	case !showAll:
		var subs []model.PeriodicPattern
		for _, p := range patterns {
			if p.IsLikelySubscription {
				subs = append(subs, p)
			}
		}
		shown = subs
	}

	if len(shown) == 0 {
		slog.Info("No matching patterns found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MERCHANT\tPERIOD\tAVG AMOUNT\tCONFIDENCE\tLAST SEEN\tNEXT EST.\tUNUSED")
	for _, p := range shown {
		unused := ""
		if p.IsLikelyUnused {
			unused = "yes"
		}
		next := ""
		if !p.NextEstimated.IsZero() {
			next = p.NextEstimated.Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t¥%d\t%.2f\t%s\t%s\t%s\n",
			p.MerchantKey,
			p.Period,
			p.AverageAmount,
			p.Confidence,
			p.LastSeen.Format("2006-01-02"),
			next,
			unused)
	}
	_ = w.Flush()

	stats := periodic.Aggregate(patterns)
	fmt.Printf("\nSubscriptions: %d (%d likely unused)\n", stats.SubscriptionCount, stats.UnusedCount)
	fmt.Printf("Estimated monthly recurring spend: ¥%d\n", stats.EstimatedMonthlySpend)
	fmt.Printf("Average pattern confidence: %.2f\n", stats.AverageConfidence)
	for _, period := range []model.Period{model.PeriodMonthly, model.PeriodQuarterly, model.PeriodYearly} {
		if count := stats.CountByPeriod[period]; count > 0 {
			fmt.Printf("  %s: %d\n", period, count)
		}
	}

	return nil
}
