// Package llm wraps the external text-classification backend used as the
// last stage of the merchant classifier chain. The backend is consumed as
// a single request/response capability: a prompt plus fixed instructions
// in, a JSON-shaped answer out.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sublens-app/sublens/internal/common"
)

// Client defines the interface for external classification providers.
type Client interface {
	Classify(ctx context.Context, prompt, instructions string) (string, error)
}

// Config holds configuration for the external classifier.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// NewClient creates a provider client from config.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported classifier provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
}

// Answer is the constrained shape the backend must return.
type Answer struct {
	Merchant       string  `json:"merchant"`
	Category       string  `json:"category"`
	Platform       string  `json:"platform"`
	Evidence       string  `json:"evidence"`
	Confidence     float64 `json:"confidence"`
	IsSubscription bool    `json:"is_subscription"`
}
