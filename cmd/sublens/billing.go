package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sublens-app/sublens/internal/billing"
	"github.com/sublens-app/sublens/internal/config"
	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/service"
)

func billingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing <card>",
		Short: "Show the billing period and payment date for a card",
		Long: `Show the statement period a date falls into for a card, along with
the predicted withdrawal date, and the confirmed charges inside that period.

Known cards (rakuten, smbc, mufg, epos, jcb) use their published cycles;
other cards fall back to month-end closing with payment on the 27th.
Per-card overrides come from billing.cards in the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: runBilling,
	}

	cmd.Flags().String("date", "", "reference date (YYYY-MM-DD, default today)")

	return cmd
}

func runBilling(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	card := args[0]

	mapper := billing.NewMapper(config.LoadBillingOverrides(), slog.Default())
	settings := mapper.Resolve(card)

	period := mapper.CurrentPeriod(card, time.Now())
	if v, _ := cmd.Flags().GetString("date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		period = mapper.PeriodFor(card, t)
	}

	closing := fmt.Sprintf("%d", settings.ClosingDay)
	if settings.ClosingDay == model.MonthEnd {
		closing = "month end"
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Card\t%s\n", card)
	_, _ = fmt.Fprintf(w, "Closing day\t%s\n", closing)
	_, _ = fmt.Fprintf(w, "Payment day\t%d\n", settings.PaymentDay)
	_, _ = fmt.Fprintf(w, "Period\t%s to %s\n",
		period.Start.Format("2006-01-02"), period.End.Format("2006-01-02"))
	_, _ = fmt.Fprintf(w, "Payment date\t%s\n", period.PaymentDate.Format("2006-01-02"))
	_ = w.Flush()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	transactions, err := store.GetTransactions(ctx, service.TransactionFilter{
		StartDate: &period.Start,
		EndDate:   &period.End,
		Status:    model.StatusConfirmed,
	})
	if err != nil {
		return fmt.Errorf("failed to get transactions: %w", err)
	}

	if len(transactions) == 0 {
		slog.Info("No confirmed charges in this period")
		return nil
	}

	var total int64
	for _, txn := range transactions {
		total += txn.Amount
	}

	fmt.Printf("\nCharges in period: %d, total ¥%d\n\n", len(transactions), total)
	printTransactions(transactions)
	return nil
}
