package model

import "time"

// IssuerConfidence grades how certain the extractor is about which issuer
// template produced a candidate. Surfaced for audit, never used for control
// flow beyond the minimum-score cutoff.
type IssuerConfidence string

const (
	// IssuerConfidenceHigh means a sender-domain match backed the choice.
	IssuerConfidenceHigh IssuerConfidence = "high"
	// IssuerConfidenceMedium means subject or body markers backed the choice.
	IssuerConfidenceMedium IssuerConfidence = "medium"
	// IssuerConfidenceLow means the generic fallback template was used.
	IssuerConfidenceLow IssuerConfidence = "low"
)

// ExtractionSource records which template family produced a candidate.
type ExtractionSource string

const (
	// SourceIssuerTemplate means a fixed per-issuer template matched.
	SourceIssuerTemplate ExtractionSource = "issuer_template"
	// SourceGenericFallback means the multi-candidate generic patterns matched.
	SourceGenericFallback ExtractionSource = "generic_fallback"
)

// ExtractionCandidate holds the fields pulled out of one message body.
// At most one candidate exists per RawMessage. Amount is integer minor
// currency units.
type ExtractionCandidate struct {
	Date             *time.Time // nil when no usable date line was found
	Merchant         string     // raw, may be empty for speculative notices
	Currency         string
	Issuer           string
	CardLast4        string
	WalletType       string
	Source           ExtractionSource
	IssuerConfidence IssuerConfidence
	Amount           int64
	Confidence       float64
}

// HasMerchant reports whether a merchant line was extracted. Speculative
// notices lack one.
func (c *ExtractionCandidate) HasMerchant() bool {
	return c.Merchant != ""
}
