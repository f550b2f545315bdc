package merchant

import (
	"context"
	"log/slog"

	"github.com/sublens-app/sublens/internal/model"
)

// reviewThreshold is the external-answer confidence below which a result
// is flagged for review.
const reviewThreshold = 0.6

// externalStage consults the external classification backend. It never
// fails the chain: a garbled snippet skips the call entirely, and a
// call error falls through to the issuer-level fallback, which marks the
// transaction for review.
type externalStage struct {
	external External
	logger   *slog.Logger
}

func newExternalStage(external External, logger *slog.Logger) *externalStage {
	return &externalStage{external: external, logger: logger}
}

func (s *externalStage) Name() string { return "external" }

func (s *externalStage) Classify(ctx context.Context, input Input) (*model.MerchantResult, error) {
	if IsGarbled(input.Snippet) {
		s.logger.Debug("skipping external call for garbled snippet", "snippet", input.Snippet)
		return nil, nil
	}

	answer, err := s.external.IdentifyMerchant(ctx, input.Snippet)
	if err != nil {
		s.logger.Warn("external classification degraded",
			"snippet", input.Snippet,
			"error", err)
		return nil, nil
	}

	category := answer.Category
	if category == "" {
		category = model.CategoryUnknown
	}

	return &model.MerchantResult{
		Name:           answer.Merchant,
		Category:       category,
		Platform:       answer.Platform,
		IsSubscription: answer.IsSubscription,
		Confidence:     answer.Confidence,
		Evidence:       answer.Evidence,
		Method:         model.MethodExternal,
		NeedsReview:    answer.Confidence < reviewThreshold,
	}, nil
}

// issuerFallbackStage is the terminal stage: a coarse issuer-level
// category for anything the earlier stages could not place.
type issuerFallbackStage struct{}

func newIssuerFallbackStage() *issuerFallbackStage {
	return &issuerFallbackStage{}
}

func (s *issuerFallbackStage) Name() string { return "issuer_fallback" }

func (s *issuerFallbackStage) Classify(_ context.Context, input Input) (*model.MerchantResult, error) {
	name := input.Snippet
	if name == "" || IsGarbled(name) {
		name = issuerDisplayName(input.Issuer)
	}

	return &model.MerchantResult{
		Name:        name,
		Category:    model.CategoryUnknown,
		Platform:    issuerDisplayName(input.Issuer),
		Confidence:  0.2,
		Method:      model.MethodIssuerFallback,
		NeedsReview: true,
	}, nil
}

func issuerDisplayName(issuer string) string {
	switch issuer {
	case "smbc":
		return "三井住友カード"
	case "mufg":
		return "MUFGカード"
	case "rakuten":
		return "楽天カード"
	case "epos":
		return "エポスカード"
	case "jcb":
		return "JCBカード"
	default:
		return "カード利用"
	}
}
