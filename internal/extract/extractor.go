package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sublens-app/sublens/internal/common"
	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/normalize"
)

// Config tunes extraction. Zero values fall back to defaults.
type Config struct {
	// MinAmount and MaxAmount bound accepted amounts in minor currency
	// units. Defaults: 50 and 1,000,000.
	MinAmount int64
	MaxAmount int64
	// Now supplies the processing time used for the future-date check.
	Now func() time.Time
}

// Extractor applies the issuer template table to messages.
type Extractor struct {
	now       func() time.Time
	templates []Template
	generic   Template
	minAmount int64
	maxAmount int64
}

// New builds an extractor over the built-in template table.
func New(cfg Config) *Extractor {
	e := &Extractor{
		templates: Templates(),
		generic:   GenericTemplate(),
		minAmount: cfg.MinAmount,
		maxAmount: cfg.MaxAmount,
		now:       cfg.Now,
	}
	if e.minAmount <= 0 {
		e.minAmount = 50
	}
	if e.maxAmount <= 0 {
		e.maxAmount = 1_000_000
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Extract pulls amount, merchant, and date out of a message. It returns
// common.ErrNoAmount or common.ErrAmountOutOfRange when no usable amount
// exists; both mark a per-message skip, never a batch failure.
func (e *Extractor) Extract(msg *model.RawMessage) (*model.ExtractionCandidate, error) {
	tpl := e.generic
	source := model.SourceGenericFallback
	issuerConfidence := model.IssuerConfidenceLow
	confidence := 0.4

	if ident, ok := e.identifyIssuer(msg); ok {
		tpl = ident.template
		source = model.SourceIssuerTemplate
		issuerConfidence = ident.confidence
		confidence = ident.score

		slog.Debug("issuer template selected",
			"message_id", msg.ID,
			"issuer", tpl.Issuer,
			"score", ident.score,
			"tier", ident.confidence)
	}

	amount, err := e.extractAmount(tpl, msg.Body)
	if err != nil {
		return nil, err
	}

	candidate := &model.ExtractionCandidate{
		Amount:           amount,
		Currency:         "JPY",
		Issuer:           tpl.Issuer,
		Source:           source,
		IssuerConfidence: issuerConfidence,
		Confidence:       confidence,
		Merchant:         extractMerchant(tpl, msg.Body),
		CardLast4:        extractCardLast4(msg.Body),
		WalletType:       extractWalletType(msg.Body),
	}

	if date, ok := e.extractDate(tpl, msg.Body); ok {
		candidate.Date = &date
	}

	return candidate, nil
}

func (e *Extractor) extractAmount(tpl Template, body string) (int64, error) {
	for _, pattern := range tpl.AmountPatterns {
		m := pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		if amount < e.minAmount || amount > e.maxAmount {
			return 0, fmt.Errorf("%w: %d", common.ErrAmountOutOfRange, amount)
		}
		return amount, nil
	}
	return 0, common.ErrNoAmount
}

func extractMerchant(tpl Template, body string) string {
	for _, pattern := range tpl.MerchantPatterns {
		m := pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		line := m[1]
		if idx := strings.IndexByte(line, '\n'); idx >= 0 {
			line = line[:idx]
		}
		if merchant := normalize.CleanMerchant(line); merchant != "" {
			return merchant
		}
	}
	return ""
}

func (e *Extractor) extractDate(tpl Template, body string) (time.Time, bool) {
	for _, pattern := range tpl.DatePatterns {
		m := pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		date, err := parseJapaneseDate(m[1])
		if err != nil {
			continue
		}
		// Usage dates in the future are extraction noise, not real charges.
		if date.After(e.now()) {
			continue
		}
		return date, true
	}
	return time.Time{}, false
}

// parseJapaneseDate accepts 2006年1月2日, 2006/1/2, and 2006-1-2 forms.
func parseJapaneseDate(s string) (time.Time, error) {
	normalized := strings.NewReplacer("年", "-", "月", "-", "日", "", "/", "-", ".", "-").Replace(strings.TrimSpace(s))
	parts := strings.Split(normalized, "-")
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("unrecognized date: %q", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date: %q", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date: %q", s)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date: %q", s)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date out of range: %q", s)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

var cardLast4Patterns = []*regexp.Regexp{
	regexp.MustCompile(`下4桁\s*([0-9]{4})`),
	regexp.MustCompile(`末尾\s*([0-9]{4})`),
	regexp.MustCompile(`[*＊]{4}\s*([0-9]{4})`),
	regexp.MustCompile(`カード番号[^0-9]*([0-9]{4})`),
}

func extractCardLast4(body string) string {
	for _, pattern := range cardLast4Patterns {
		if m := pattern.FindStringSubmatch(body); m != nil {
			return m[1]
		}
	}
	return ""
}

func extractWalletType(body string) string {
	switch {
	case strings.Contains(body, "Apple Pay") || strings.Contains(body, "アップルペイ"):
		return "apple_pay"
	case strings.Contains(body, "Google Pay") || strings.Contains(body, "グーグルペイ"):
		return "google_pay"
	case strings.Contains(body, "QUICPay"):
		return "quicpay"
	case strings.Contains(body, "iD決済"):
		return "id"
	default:
		return ""
	}
}
