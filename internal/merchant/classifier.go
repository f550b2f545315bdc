// Package merchant classifies an extracted merchant string into a
// normalized identity: canonical name, category, platform, and
// subscription flag. Classification is a layered fallback chain; the
// first confident stage wins.
package merchant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sublens-app/sublens/internal/model"
)

// Input carries everything a stage may consult.
type Input struct {
	Snippet string // extracted merchant string
	Subject string // mail subject, secondary evidence
	Issuer  string
	Amount  int64
}

// Stage is one layer of the chain. A nil result with a nil error means
// "no confident answer, try the next stage".
type Stage interface {
	Name() string
	Classify(ctx context.Context, input Input) (*model.MerchantResult, error)
}

// Classifier runs the stage chain in order.
type Classifier struct {
	logger *slog.Logger
	stages []Stage
}

// External is the narrow view of the external classification backend the
// chain needs.
type External interface {
	IdentifyMerchant(ctx context.Context, snippet string) (Answer, error)
}

// Answer mirrors the constrained response shape of the external backend.
type Answer struct {
	Merchant       string
	Category       string
	Platform       string
	Evidence       string
	Confidence     float64
	IsSubscription bool
}

// New assembles the default chain: known-merchant dictionary,
// subscription-service dictionary, rule table, then the external backend.
// Pass a nil external to run fully offline; the chain then ends at the
// issuer-level fallback.
func New(external External, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	stages := []Stage{
		newDictionaryStage(),
		newSubscriptionDictStage(),
		newRuleStage(),
	}
	if external != nil {
		stages = append(stages, newExternalStage(external, logger))
	}
	stages = append(stages, newIssuerFallbackStage())

	return &Classifier{stages: stages, logger: logger}
}

// Classify runs the chain. It always returns a result: the final fallback
// stage answers for every input.
func (c *Classifier) Classify(ctx context.Context, input Input) (*model.MerchantResult, error) {
	for _, stage := range c.stages {
		result, err := stage.Classify(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
		if result == nil {
			continue
		}

		c.logger.Debug("merchant classified",
			"stage", stage.Name(),
			"merchant", result.Name,
			"category", result.Category,
			"confidence", result.Confidence)
		return result, nil
	}

	// The issuer fallback answers for every input, so the chain only
	// exhausts if it was built without one.
	return &model.MerchantResult{
		Name:        input.Snippet,
		Category:    model.CategoryUnknown,
		Method:      model.MethodIssuerFallback,
		NeedsReview: true,
	}, nil
}
