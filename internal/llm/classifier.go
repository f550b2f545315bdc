package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sublens-app/sublens/internal/common"
	"github.com/sublens-app/sublens/internal/service"
)

// Instructions is the fixed instruction template sent with every request.
// The backend must answer with exactly one JSON object in this shape.
const Instructions = `You identify Japanese credit-card merchants from notification-mail snippets.
Respond with a single JSON object and nothing else:
{"merchant": "<canonical merchant name>", "category": "<category>", "platform": "<issuer or payment platform, empty if unknown>", "is_subscription": <true|false>, "confidence": <0.0-1.0>, "evidence": "<short quote from the snippet>"}
Categories must be one of: サブスク, コンビニ, 飲食, ショッピング, 交通, 公共料金, エンタメ, 未分類.
If you cannot identify the merchant, use "未分類" and a low confidence.`

// Classifier wraps a provider client with the caching, rate limiting, and
// retry behavior every call site needs. The call is time-bounded: on
// timeout or error the caller degrades to a needs-review result instead of
// blocking the batch.
type Classifier struct {
	client      Client
	cache       *answerCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
	timeout     time.Duration
}

// NewClassifier creates an external classifier from config.
func NewClassifier(cfg Config, logger *slog.Logger) (*Classifier, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier client: %w", err)
	}
	return NewClassifierWithClient(client, cfg, logger), nil
}

// NewClassifierWithClient wraps an existing client; used by tests to
// substitute a stub backend.
func NewClassifierWithClient(client Client, cfg Config, logger *slog.Logger) *Classifier {
	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = 500 * time.Millisecond
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Classifier{
		client:      client,
		cache:       newAnswerCache(cfg.CacheTTL),
		logger:      logger,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
		timeout:     timeout,
	}
}

// IdentifyMerchant asks the backend to identify a merchant from an
// extracted snippet.
func (c *Classifier) IdentifyMerchant(ctx context.Context, snippet string) (Answer, error) {
	if answer, found := c.cache.get(snippet); found {
		c.logger.Debug("classifier cache hit", "snippet", snippet)
		return answer, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rateLimiter.wait(ctx); err != nil {
		return Answer{}, err
	}

	prompt := fmt.Sprintf("Merchant snippet from a card-usage notification:\n%s", snippet)

	var answer Answer
	err := common.WithRetry(ctx, func() error {
		text, callErr := c.client.Classify(ctx, prompt, Instructions)
		if callErr != nil {
			return callErr
		}
		parsed, parseErr := ParseAnswer(text)
		if parseErr != nil {
			return parseErr
		}
		answer = parsed
		return nil
	}, c.retryOpts)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %v", common.ErrClassificationFailed, err)
	}

	c.cache.set(snippet, answer)

	c.logger.Info("merchant identified externally",
		"merchant", answer.Merchant,
		"category", answer.Category,
		"confidence", answer.Confidence)

	return answer, nil
}

// Close releases the cache and rate limiter goroutines.
func (c *Classifier) Close() {
	c.cache.Close()
	c.rateLimiter.Close()
}
