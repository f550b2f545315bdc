package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublens-app/sublens/internal/common"
)

// stubClient answers from a script, one entry per call.
type stubClient struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubClient) Classify(_ context.Context, _, _ string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func testConfig() Config {
	return Config{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		CacheTTL:   time.Minute,
		RateLimit:  1000,
		Timeout:    time.Second,
	}
}

func TestIdentifyMerchant(t *testing.T) {
	stub := &stubClient{responses: []string{
		`{"merchant": "Netflix", "category": "サブスク", "is_subscription": true, "confidence": 0.95}`,
	}}
	c := NewClassifierWithClient(stub, testConfig(), nil)
	defer c.Close()

	answer, err := c.IdentifyMerchant(context.Background(), "NETFLIX.COM")
	require.NoError(t, err)
	assert.Equal(t, "Netflix", answer.Merchant)
	assert.True(t, answer.IsSubscription)
	assert.Equal(t, 1, stub.calls)
}

func TestIdentifyMerchantCaches(t *testing.T) {
	stub := &stubClient{responses: []string{
		`{"merchant": "Spotify", "category": "サブスク", "confidence": 0.9}`,
	}}
	c := NewClassifierWithClient(stub, testConfig(), nil)
	defer c.Close()

	first, err := c.IdentifyMerchant(context.Background(), "spotify")
	require.NoError(t, err)

	second, err := c.IdentifyMerchant(context.Background(), "spotify")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, stub.calls, "second call must come from cache")
	assert.Equal(t, 1, c.cache.size())
}

func TestIdentifyMerchantRetriesMalformedAnswer(t *testing.T) {
	stub := &stubClient{responses: []string{
		"sorry, I cannot help with that",
		`{"merchant": "Hulu", "category": "サブスク", "confidence": 0.85}`,
	}}
	c := NewClassifierWithClient(stub, testConfig(), nil)
	defer c.Close()

	answer, err := c.IdentifyMerchant(context.Background(), "HULU")
	require.NoError(t, err)
	assert.Equal(t, "Hulu", answer.Merchant)
	assert.Equal(t, 2, stub.calls)
}

func TestIdentifyMerchantExhaustsRetries(t *testing.T) {
	stub := &stubClient{errs: []error{
		errors.New("backend down"),
		errors.New("backend down"),
	}}
	c := NewClassifierWithClient(stub, testConfig(), nil)
	defer c.Close()

	_, err := c.IdentifyMerchant(context.Background(), "unknown merchant")
	assert.ErrorIs(t, err, common.ErrClassificationFailed)
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}
