package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sublens-app/sublens/internal/mailfilter"
	"github.com/sublens-app/sublens/internal/model"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <mailbox.jsonl>",
		Short: "Run notification mails through the pipeline",
		Long: `Ingest a mailbox export in JSON-lines format, one mail per line,
and run each mail through the full pipeline: intake filtering, amount
extraction, merchant classification, pending reconciliation, and
recurrence detection.

Mails are processed oldest first so that preliminary notices are already
in the ledger when their confirmed follow-ups arrive.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().Bool("funnel", false, "print the per-stage funnel breakdown")

	return cmd
}

// mailRecord is the on-disk shape of one exported mail.
type mailRecord struct {
	ID         string            `json:"id"`
	ReceivedAt time.Time         `json:"received_at"`
	Sender     string            `json:"sender"`
	Subject    string            `json:"subject"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	showFunnel, _ := cmd.Flags().GetBool("funnel")

	messages, err := readMailbox(args[0])
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		slog.Info("No mails found in mailbox file")
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close storage", "error", closeErr)
		}
	}()

	bar := progressbar.NewOptions(len(messages),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Processing mails...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	pipeline, cleanup, err := buildPipeline(store, slog.Default(), func() { _ = bar.Add(1) })
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := pipeline.ProcessBatch(ctx, messages)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Mails processed\t%d\n", result.Processed)
	_, _ = fmt.Fprintf(w, "Accepted\t%d\n", result.Funnel.Accepted)
	_, _ = fmt.Fprintf(w, "Inserted\t%d\n", result.Inserted)
	_, _ = fmt.Fprintf(w, "Reconciled\t%d\n", result.Reconciled)
	_, _ = fmt.Fprintf(w, "Held pending\t%d\n", result.Held)
	_, _ = fmt.Fprintf(w, "Duplicates\t%d\n", result.Duplicates)
	_, _ = fmt.Fprintf(w, "Patterns recomputed\t%d\n", result.Recomputed)
	_, _ = fmt.Fprintf(w, "Duration\t%s\n", result.Duration.Round(time.Millisecond))
	_ = w.Flush()

	if showFunnel {
		printFunnel(result.Funnel)
	}

	for _, msg := range result.Errors {
		slog.Warn("Message skipped", "detail", msg)
	}

	return nil
}

func printFunnel(funnel *mailfilter.FunnelStats) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\nSTAGE\tCOUNT")
	_, _ = fmt.Fprintf(w, "in\t%d\n", funnel.In)
	_, _ = fmt.Fprintf(w, "subject filter\t%d\n", funnel.SubjectFiltered)
	_, _ = fmt.Fprintf(w, "amount+context\t%d\n", funnel.AmountContextPass)
	_, _ = fmt.Fprintf(w, "accepted\t%d\n", funnel.Accepted)
	_, _ = fmt.Fprintf(w, "issuer lane\t%d\n", funnel.IssuerLane)
	_, _ = fmt.Fprintf(w, "merchant lane\t%d\n", funnel.MerchantLane)

	if len(funnel.Reasons) > 0 {
		_, _ = fmt.Fprintln(w, "\nREJECT REASON\tCOUNT")
		for _, row := range funnel.Histogram() {
			_, _ = fmt.Fprintf(w, "%s\t%d\n", row.Reason, row.Count)
		}
	}
	_ = w.Flush()
}

// readMailbox loads a JSON-lines mailbox export, oldest mail first.
func readMailbox(path string) ([]model.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mailbox file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var messages []model.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var record mailRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("mailbox line %d: %w", line, err)
		}

		messages = append(messages, model.RawMessage{
			ID:         record.ID,
			ReceivedAt: record.ReceivedAt,
			Sender:     record.Sender,
			Subject:    record.Subject,
			Body:       record.Body,
			Headers:    record.Headers,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mailbox file: %w", err)
	}

	slices.SortStableFunc(messages, func(a, b model.RawMessage) int {
		return a.ReceivedAt.Compare(b.ReceivedAt)
	})

	return messages, nil
}
