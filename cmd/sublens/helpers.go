package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/sublens-app/sublens/internal/common"
	"github.com/sublens-app/sublens/internal/config"
	"github.com/sublens-app/sublens/internal/engine"
	"github.com/sublens-app/sublens/internal/extract"
	"github.com/sublens-app/sublens/internal/guard"
	"github.com/sublens-app/sublens/internal/llm"
	"github.com/sublens-app/sublens/internal/mailfilter"
	"github.com/sublens-app/sublens/internal/merchant"
	"github.com/sublens-app/sublens/internal/service"
	"github.com/sublens-app/sublens/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/sublens/sublens.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// buildMerchantClassifier assembles the merchant chain, attaching the
// external backend only when a provider is configured.
func buildMerchantClassifier(logger *slog.Logger) (*merchant.Classifier, func(), error) {
	cfg := config.LoadLLMConfig()
	if cfg.Provider == "" || cfg.Provider == "none" {
		return merchant.New(nil, logger), func() {}, nil
	}

	classifier, err := llm.NewClassifier(cfg, logger)
	if err != nil {
		return nil, nil, common.NewUserError(
			"failed to create external classifier (set llm.api_key or disable llm.provider)", err)
	}

	return merchant.New(&externalAdapter{classifier}, logger), classifier.Close, nil
}

// externalAdapter bridges the llm package's answer type to the merchant
// chain's local mirror of it.
type externalAdapter struct {
	classifier *llm.Classifier
}

func (a *externalAdapter) IdentifyMerchant(ctx context.Context, snippet string) (merchant.Answer, error) {
	answer, err := a.classifier.IdentifyMerchant(ctx, snippet)
	if err != nil {
		return merchant.Answer{}, err
	}
	return merchant.Answer{
		Merchant:       answer.Merchant,
		Category:       answer.Category,
		Platform:       answer.Platform,
		Evidence:       answer.Evidence,
		Confidence:     answer.Confidence,
		IsSubscription: answer.IsSubscription,
	}, nil
}

// buildPipeline assembles the full ingestion pipeline. Tuning constants
// come from config so the untraced defaults stay adjustable without a
// rebuild.
func buildPipeline(store service.Storage, logger *slog.Logger, progress func()) (*engine.Pipeline, func(), error) {
	merchants, cleanup, err := buildMerchantClassifier(logger)
	if err != nil {
		return nil, nil, err
	}

	pipeline, err := engine.New(engine.Config{
		Storage: store,
		Extractor: extract.New(extract.Config{
			MinAmount: viper.GetInt64("extract.min_amount"),
			MaxAmount: viper.GetInt64("extract.max_amount"),
		}),
		MailFilter: mailfilter.New(mailfilter.Config{
			ContextRadius: viper.GetInt("mailfilter.context_radius"),
		}),
		Announce: guard.NewAnnouncementGuard(guard.AnnouncementConfig{
			WindowRunes: viper.GetInt("guard.announcement_window"),
		}),
		Merchants: merchants,
		Logger:    logger,
		Progress:  progress,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return pipeline, cleanup, nil
}
