package extract

import (
	"strings"

	"github.com/sublens-app/sublens/internal/model"
)

// MinIssuerScore is the identification cutoff below which the generic
// fallback template is used instead of an issuer template.
const MinIssuerScore = 0.3

// identification is the result of scoring one template against a message.
type identification struct {
	template   Template
	score      float64
	confidence model.IssuerConfidence
}

// identifyIssuer scores every template against the message and returns the
// best one above the cutoff. Ties resolve to the earlier table entry, which
// is why the comparison is strictly greater-than.
func (e *Extractor) identifyIssuer(msg *model.RawMessage) (identification, bool) {
	sender := strings.ToLower(msg.Sender)
	body := strings.ToLower(msg.Body)

	best := identification{}
	for _, tpl := range e.templates {
		score, senderHit := scoreTemplate(tpl, sender, msg.Subject, body)
		if score > best.score {
			best = identification{
				template:   tpl,
				score:      score,
				confidence: tier(senderHit, score),
			}
		}
	}

	if best.score < MinIssuerScore {
		return identification{}, false
	}
	return best, true
}

func scoreTemplate(tpl Template, sender, subject, loweredBody string) (score float64, senderHit bool) {
	for _, domain := range tpl.SenderDomains {
		if strings.Contains(sender, domain) {
			score += tpl.SenderWeight
			senderHit = true
			break
		}
	}
	for _, pattern := range tpl.SubjectPatterns {
		if pattern.MatchString(subject) {
			score += tpl.SubjectWeight
			break
		}
	}
	for _, marker := range tpl.BodyMarkers {
		if strings.Contains(loweredBody, strings.ToLower(marker)) {
			score += tpl.BodyWeight
			break
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score, senderHit
}

func tier(senderHit bool, score float64) model.IssuerConfidence {
	switch {
	case senderHit:
		return model.IssuerConfidenceHigh
	case score >= 0.3:
		return model.IssuerConfidenceMedium
	default:
		return model.IssuerConfidenceLow
	}
}
