package config

import (
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/sublens-app/sublens/internal/llm"
)

// LoadLLMConfig loads external classifier configuration from Viper and
// environment variables. Precedence:
// 1. Viper configuration (from config file or SUBLENS_ env vars)
// 2. Direct environment variables (ANTHROPIC_API_KEY / OPENAI_API_KEY)
// 3. Default values
//
// An empty provider means the external stage is disabled and the pipeline
// falls through to the issuer fallback.
func LoadLLMConfig() llm.Config {
	cfg := llm.Config{
		Provider:   viper.GetString("llm.provider"),
		Model:      viper.GetString("llm.model"),
		APIKey:     viper.GetString("llm.api_key"),
		MaxRetries: 3,
		RetryDelay: time.Second,
		CacheTTL:   15 * time.Minute,
		RateLimit:  10,
		Timeout:    30 * time.Second,
	}

	if v := viper.GetInt("llm.max_retries"); v > 0 {
		cfg.MaxRetries = v
	}
	if v := viper.GetInt("llm.rate_limit"); v > 0 {
		cfg.RateLimit = v
	}
	if v := viper.GetDuration("llm.timeout"); v > 0 {
		cfg.Timeout = v
	}
	if v := viper.GetDuration("llm.cache_ttl"); v > 0 {
		cfg.CacheTTL = v
	}
	if v := viper.GetFloat64("llm.temperature"); v > 0 {
		cfg.Temperature = v
	}
	if v := viper.GetInt("llm.max_tokens"); v > 0 {
		cfg.MaxTokens = v
	}

	// Fall back to the provider's conventional environment variable
	if cfg.APIKey == "" {
		switch cfg.Provider {
		case "anthropic":
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	return cfg
}
