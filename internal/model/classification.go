package model

// Lane is the coarse source-type classification used by the bulk mail
// classifier: did this mail come from the card issuer or from the merchant?
type Lane string

const (
	// LaneIssuer marks mail from the card-issuing entity.
	LaneIssuer Lane = "issuer"
	// LaneMerchant marks mail from or on behalf of the selling merchant.
	LaneMerchant Lane = "merchant"
)

// Outcome is the admit/reject decision of the bulk mail classifier.
type Outcome string

const (
	// OutcomeAccepted admits the mail into field extraction.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeRejected drops the mail, with reasons retained for diagnostics.
	OutcomeRejected Outcome = "rejected"
)

// RejectReason tags why the bulk classifier or a guard dropped a message.
type RejectReason string

const (
	// ReasonNoAmount means no valid amount token was found.
	ReasonNoAmount RejectReason = "no_amount"
	// ReasonNoContext means no usage keyword appeared near the amount.
	ReasonNoContext RejectReason = "no_context_keyword"
	// ReasonPromotional means a promotional keyword appeared in subject or body.
	ReasonPromotional RejectReason = "promotional_keyword"
	// ReasonUnsubscribePromo means an unsubscribe header combined with a
	// promotional subject.
	ReasonUnsubscribePromo RejectReason = "unsubscribe_promo"
	// ReasonSubjectMismatch means the issuer lane's stricter subject
	// requirement failed.
	ReasonSubjectMismatch RejectReason = "subject_mismatch"
	// ReasonAnnouncement means the announcement guard matched all three
	// of its conditions.
	ReasonAnnouncement RejectReason = "announcement"
	// ReasonStatement means the mail is a consolidated billing statement.
	ReasonStatement RejectReason = "statement_summary"
	// ReasonExtractionFailed means no issuer template yielded an amount.
	ReasonExtractionFailed RejectReason = "extraction_failed"
	// ReasonDuplicate means the source message was already processed.
	ReasonDuplicate RejectReason = "duplicate_message"
	// ReasonMalformed means required message fields were missing.
	ReasonMalformed RejectReason = "malformed_message"
)

// MailClassification is the outcome of the two-lane bulk classifier for a
// single message. Reasons keep their evaluation order so rejected mail can
// be diagnosed from the record alone.
type MailClassification struct {
	Lane       Lane
	Outcome    Outcome
	Reasons    []RejectReason
	Confidence float64
}

// Accepted reports whether the message was admitted.
func (c *MailClassification) Accepted() bool {
	return c.Outcome == OutcomeAccepted
}
