package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/recon"
	"github.com/sublens-app/sublens/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txns", "ledger"},
		Short:   "List ledger entries",
		RunE:    runTransactions,
	}

	cmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().String("status", "", "filter by status (pending, confirmed)")
	cmd.Flags().String("merchant", "", "filter by merchant")
	cmd.Flags().Int("limit", 50, "maximum entries to show (0 for all)")

	return cmd
}

func runTransactions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	filter := service.TransactionFilter{}

	if v, _ := cmd.Flags().GetString("from"); v != "" {
		t, parseErr := time.Parse("2006-01-02", v)
		if parseErr != nil {
			return fmt.Errorf("invalid --from date: %w", parseErr)
		}
		filter.StartDate = &t
	}
	if v, _ := cmd.Flags().GetString("to"); v != "" {
		t, parseErr := time.Parse("2006-01-02", v)
		if parseErr != nil {
			return fmt.Errorf("invalid --to date: %w", parseErr)
		}
		filter.EndDate = &t
	}
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		filter.Status = model.TransactionStatus(v)
	}
	filter.Merchant, _ = cmd.Flags().GetString("merchant")
	filter.Limit, _ = cmd.Flags().GetInt("limit")

	transactions, err := store.GetTransactions(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to get transactions: %w", err)
	}

	if len(transactions) == 0 {
		slog.Info("No transactions found")
		return nil
	}

	printTransactions(transactions)
	return nil
}

func pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List preliminary notices still awaiting confirmation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			transactions, err := recon.New(store, slog.Default()).Unresolved(ctx)
			if err != nil {
				return fmt.Errorf("failed to list pending transactions: %w", err)
			}

			if len(transactions) == 0 {
				slog.Info("No unresolved pending transactions")
				return nil
			}

			printTransactions(transactions)
			return nil
		},
	}
}

func printTransactions(transactions []model.Transaction) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tMERCHANT\tCATEGORY\tAMOUNT\tSTATUS\tCARD\tREVIEW")
	for _, txn := range transactions {
		review := ""
		if txn.NeedsReview {
			review = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t¥%d\t%s\t%s\t%s\n",
			txn.Date.Format("2006-01-02"),
			txn.MerchantKey(),
			txn.Category,
			txn.Amount,
			txn.Status,
			txn.CardLast4,
			review)
	}
	_ = w.Flush()
}
