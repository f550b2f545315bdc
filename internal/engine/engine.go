// Package engine orchestrates the extraction-and-classification pipeline
// over a batch of raw notification messages.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sublens-app/sublens/internal/extract"
	"github.com/sublens-app/sublens/internal/guard"
	"github.com/sublens-app/sublens/internal/mailfilter"
	"github.com/sublens-app/sublens/internal/merchant"
	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/normalize"
	"github.com/sublens-app/sublens/internal/periodic"
	"github.com/sublens-app/sublens/internal/recon"
	"github.com/sublens-app/sublens/internal/service"
)

// Pipeline wires the pipeline stages together. Messages are processed in
// receipt order because reconciliation matches confirmed notices against
// pendings created by earlier messages.
type Pipeline struct {
	storage    service.Storage
	recon      *recon.Store
	extractor  *extract.Extractor
	mailFilter *mailfilter.Classifier
	announce   *guard.AnnouncementGuard
	merchants  *merchant.Classifier
	detector   *periodic.Detector
	logger     *slog.Logger
	progress   func()
}

// Config assembles a pipeline. Storage is required; nil stage fields fall
// back to defaults.
type Config struct {
	Storage    service.Storage
	Extractor  *extract.Extractor
	MailFilter *mailfilter.Classifier
	Announce   *guard.AnnouncementGuard
	Merchants  *merchant.Classifier
	Detector   *periodic.Detector
	Logger     *slog.Logger
	// Progress, when set, is called once after each message.
	Progress func()
}

// New creates a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extract.New(extract.Config{})
	}
	if cfg.MailFilter == nil {
		cfg.MailFilter = mailfilter.New(mailfilter.Config{})
	}
	if cfg.Announce == nil {
		cfg.Announce = guard.NewAnnouncementGuard(guard.AnnouncementConfig{})
	}
	if cfg.Merchants == nil {
		cfg.Merchants = merchant.New(nil, cfg.Logger)
	}
	if cfg.Detector == nil {
		cfg.Detector = periodic.New(nil)
	}

	return &Pipeline{
		storage:    cfg.Storage,
		recon:      recon.New(cfg.Storage, cfg.Logger),
		extractor:  cfg.Extractor,
		mailFilter: cfg.MailFilter,
		announce:   cfg.Announce,
		merchants:  cfg.Merchants,
		detector:   cfg.Detector,
		logger:     cfg.Logger,
		progress:   cfg.Progress,
	}, nil
}

// BatchResult reports what one batch run did, with enough stage counts to
// diagnose a silent drop to zero.
type BatchResult struct {
	Funnel     *mailfilter.FunnelStats
	Errors     []string
	Processed  int
	Inserted   int
	Reconciled int
	Held       int
	Skipped    int
	Duplicates int
	Recomputed int
	Duration   time.Duration
}

// ProcessBatch runs the full pipeline over an ordered, oldest-first batch.
// Per-message problems are recorded and skipped; only context cancellation
// aborts the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, messages []model.RawMessage) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{Funnel: mailfilter.NewFunnelStats()}
	touched := make(map[string]struct{})

	for i := range messages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msg := messages[i]
		result.Processed++

		if err := p.processMessage(ctx, &msg, result, touched); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", msg.ID, err))
			p.logger.Error("message processing failed",
				"message_id", msg.ID,
				"error", err)
		}

		if p.progress != nil {
			p.progress()
		}
	}

	for key := range touched {
		if _, err := p.detector.Recompute(ctx, p.storage, key); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("pattern %s: %v", key, err))
			continue
		}
		result.Recomputed++
	}

	result.Duration = time.Since(start)

	p.logger.Info("batch complete",
		"processed", result.Processed,
		"accepted", result.Funnel.Accepted,
		"inserted", result.Inserted,
		"reconciled", result.Reconciled,
		"held", result.Held,
		"duplicates", result.Duplicates,
		"patterns_recomputed", result.Recomputed,
		"duration", result.Duration)

	return result, nil
}

func (p *Pipeline) processMessage(ctx context.Context, raw *model.RawMessage, result *BatchResult, touched map[string]struct{}) error {
	if raw.Sender == "" || raw.Body == "" {
		result.Funnel.CountReason(model.ReasonMalformed)
		result.Skipped++
		return fmt.Errorf("missing required fields")
	}

	if raw.ID != "" {
		processed, err := p.storage.IsMessageProcessed(ctx, raw.ID)
		if err != nil {
			return fmt.Errorf("failed to check message state: %w", err)
		}
		if processed {
			result.Duplicates++
			result.Funnel.CountReason(model.ReasonDuplicate)
			return nil
		}
	}

	msg := model.RawMessage{
		ID:         raw.ID,
		Sender:     raw.Sender,
		Subject:    normalize.Text(raw.Subject),
		Body:       normalize.Text(raw.Body),
		ReceivedAt: raw.ReceivedAt,
		Headers:    raw.Headers,
	}

	classification := p.mailFilter.Classify(&msg)
	result.Funnel.Record(classification)
	if !classification.Accepted() {
		result.Skipped++
		return p.markProcessed(ctx, msg.ID, string(classification.Reasons[0]))
	}

	if verdict := p.announce.Check(msg.Sender, msg.Subject, msg.Body); verdict.Reject {
		result.Funnel.CountReason(model.ReasonAnnouncement)
		result.Skipped++
		p.logger.Debug("announcement dropped",
			"message_id", msg.ID,
			"sender", verdict.MatchedSender,
			"keyword", verdict.MatchedNotice)
		return p.markProcessed(ctx, msg.ID, string(model.ReasonAnnouncement))
	}

	if guard.LooksLikeStatement(msg.Subject, msg.Body) {
		result.Funnel.CountReason(model.ReasonStatement)
		result.Skipped++
		return p.markProcessed(ctx, msg.ID, string(model.ReasonStatement))
	}

	candidate, err := p.extractor.Extract(&msg)
	if err != nil {
		result.Funnel.CountReason(model.ReasonExtractionFailed)
		result.Skipped++
		p.logger.Debug("extraction failed", "message_id", msg.ID, "error", err)
		return p.markProcessed(ctx, msg.ID, string(model.ReasonExtractionFailed))
	}

	date := msg.ReceivedAt
	if candidate.Date != nil {
		date = *candidate.Date
	}

	if !candidate.HasMerchant() && guard.LooksLikeSpeculative(msg.Subject, msg.Body) {
		txn := p.newTransaction(candidate, &msg, date)
		action, holdErr := p.recon.HoldPending(ctx, txn)
		if holdErr != nil {
			return holdErr
		}
		if action == recon.ActionHeld {
			result.Held++
		}
		return p.markProcessed(ctx, msg.ID, "speculative_held")
	}

	identity, err := p.merchants.Classify(ctx, merchant.Input{
		Snippet: candidate.Merchant,
		Subject: msg.Subject,
		Issuer:  candidate.Issuer,
		Amount:  candidate.Amount,
	})
	if err != nil {
		return fmt.Errorf("merchant classification: %w", err)
	}

	txn := p.newTransaction(candidate, &msg, date)
	txn.Merchant = identity.Name
	txn.Category = identity.Category
	if identity.Platform != "" {
		txn.Platform = identity.Platform
	}
	txn.IsSubscription = identity.IsSubscription
	txn.SubscriptionConfidence = identity.Confidence
	txn.NeedsReview = identity.NeedsReview

	action, saved, err := p.recon.ReconcileOrInsert(ctx, txn)
	if err != nil {
		return err
	}
	switch action {
	case recon.ActionInserted:
		result.Inserted++
	case recon.ActionReconciled:
		result.Reconciled++
	}

	touched[normalize.MerchantKey(saved.MerchantKey())] = struct{}{}
	return p.markProcessed(ctx, msg.ID, "transaction")
}

func (p *Pipeline) newTransaction(candidate *model.ExtractionCandidate, msg *model.RawMessage, date time.Time) *model.Transaction {
	return &model.Transaction{
		ID:              uuid.NewString(),
		Amount:          candidate.Amount,
		Currency:        candidate.Currency,
		MerchantRaw:     candidate.Merchant,
		Platform:        candidate.Issuer,
		Date:            date,
		CardLast4:       candidate.CardLast4,
		WalletType:      candidate.WalletType,
		SourceMessageID: msg.ID,
		Status:          model.StatusConfirmed,
	}
}

func (p *Pipeline) markProcessed(ctx context.Context, messageID, reason string) error {
	if messageID == "" {
		return nil
	}
	if err := p.storage.MarkMessageProcessed(ctx, messageID, reason); err != nil {
		return fmt.Errorf("failed to mark message processed: %w", err)
	}
	return nil
}
