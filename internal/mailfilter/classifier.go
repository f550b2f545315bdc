// Package mailfilter is the coarse two-lane funnel for bulk inbox intake.
// It decides admit/reject per message and records enough per-stage counts
// that an unexpected drop to zero matches is diagnosable without the mail.
package mailfilter

import (
	"regexp"
	"strings"

	"github.com/sublens-app/sublens/internal/model"
)

var amountToken = regexp.MustCompile(`[0-9][0-9,]*\s*円`)

// Config tunes the classifier. Zero values fall back to defaults.
type Config struct {
	IssuerDomains         []string
	IssuerSubjectKeywords []string
	ContextKeywords       []string
	PromoKeywords         []string
	// ContextRadius is the rune distance around an amount token inside
	// which a context keyword must appear. Default 120.
	ContextRadius int
}

// Classifier assigns each message a lane and an admit/reject outcome.
type Classifier struct {
	issuerDomains         []string
	issuerSubjectKeywords []string
	contextKeywords       []string
	promoKeywords         []string
	contextRadius         int
}

// New builds a classifier, filling defaults for unset config fields.
func New(cfg Config) *Classifier {
	c := &Classifier{
		issuerDomains:         cfg.IssuerDomains,
		issuerSubjectKeywords: cfg.IssuerSubjectKeywords,
		contextKeywords:       cfg.ContextKeywords,
		promoKeywords:         cfg.PromoKeywords,
		contextRadius:         cfg.ContextRadius,
	}
	if len(c.issuerDomains) == 0 {
		c.issuerDomains = defaultIssuerDomains
	}
	if len(c.issuerSubjectKeywords) == 0 {
		c.issuerSubjectKeywords = defaultIssuerSubjectKeywords
	}
	if len(c.contextKeywords) == 0 {
		c.contextKeywords = defaultContextKeywords
	}
	if len(c.promoKeywords) == 0 {
		c.promoKeywords = defaultPromoKeywords
	}
	if c.contextRadius <= 0 {
		c.contextRadius = 120
	}
	return c
}

var defaultIssuerDomains = []string{
	"vpass.ne.jp",
	"smbc-card.com",
	"rakuten-card.co.jp",
	"mufg-card.com",
	"nicos.co.jp",
	"eposcard.co.jp",
	"01epos.jp",
	"jcb.co.jp",
	"saisoncard.co.jp",
	"aeon.co.jp",
}

var defaultIssuerSubjectKeywords = []string{
	"ご利用",
	"カード",
	"速報",
	"お知らせ",
}

var defaultContextKeywords = []string{
	"ご利用",
	"お支払い",
	"決済",
	"購入",
	"請求",
	"引き落とし",
}

var defaultPromoKeywords = []string{
	"キャンペーン",
	"ポイント進呈",
	"セール",
	"クーポン",
	"抽選",
	"プレゼント",
	"今なら",
}

// Classify runs the two-lane funnel for one message. Every rejection
// records its reason tags in evaluation order.
func (c *Classifier) Classify(msg *model.RawMessage) model.MailClassification {
	lane, baseConfidence := c.pickLane(msg.Sender)

	result := model.MailClassification{
		Lane:       lane,
		Outcome:    model.OutcomeRejected,
		Confidence: baseConfidence,
	}

	// Issuer lane carries a stricter subject requirement.
	if lane == model.LaneIssuer && !c.subjectMatches(msg.Subject) {
		result.Reasons = append(result.Reasons, model.ReasonSubjectMismatch)
	}

	if !c.amountWithContext(msg.Body) {
		if !amountToken.MatchString(msg.Body) {
			result.Reasons = append(result.Reasons, model.ReasonNoAmount)
		} else {
			result.Reasons = append(result.Reasons, model.ReasonNoContext)
		}
	}

	if c.hasPromoKeyword(msg.Subject + "\n" + msg.Body) {
		result.Reasons = append(result.Reasons, model.ReasonPromotional)
	}

	if msg.Header("List-Unsubscribe") != "" && c.hasPromoKeyword(msg.Subject) {
		result.Reasons = append(result.Reasons, model.ReasonUnsubscribePromo)
	}

	if len(result.Reasons) == 0 {
		result.Outcome = model.OutcomeAccepted
	} else {
		result.Outcome = model.OutcomeRejected
		result.Confidence = 0
	}
	return result
}

func (c *Classifier) pickLane(sender string) (model.Lane, float64) {
	lowered := strings.ToLower(sender)
	for _, domain := range c.issuerDomains {
		if strings.Contains(lowered, domain) {
			return model.LaneIssuer, 0.9
		}
	}
	return model.LaneMerchant, 0.6
}

func (c *Classifier) subjectMatches(subject string) bool {
	for _, kw := range c.issuerSubjectKeywords {
		if strings.Contains(subject, kw) {
			return true
		}
	}
	return false
}

// amountWithContext reports whether a context keyword appears within the
// configured rune radius of at least one amount token.
func (c *Classifier) amountWithContext(body string) bool {
	matches := amountToken.FindAllStringIndex(body, -1)
	if len(matches) == 0 {
		return false
	}

	runes := []rune(body)
	for _, m := range matches {
		start := len([]rune(body[:m[0]]))
		end := len([]rune(body[:m[1]]))

		lo := start - c.contextRadius
		if lo < 0 {
			lo = 0
		}
		hi := end + c.contextRadius
		if hi > len(runes) {
			hi = len(runes)
		}

		window := string(runes[lo:hi])
		for _, kw := range c.contextKeywords {
			if strings.Contains(window, kw) {
				return true
			}
		}
	}
	return false
}

func (c *Classifier) hasPromoKeyword(text string) bool {
	for _, kw := range c.promoKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
