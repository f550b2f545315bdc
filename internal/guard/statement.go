package guard

import "strings"

// Statement summaries consolidate a whole billing period into one mail.
// They never map to a single charge, so the pipeline discards them before
// extraction runs.
var statementKeywords = []string{
	"ご請求金額が確定",
	"ご請求額のご案内",
	"ご利用代金明細",
	"請求確定のお知らせ",
	"お支払い金額のお知らせ",
	"ご請求明細",
}

// LooksLikeStatement reports whether a message is a consolidated billing
// statement rather than a single-charge notice.
func LooksLikeStatement(subject, body string) bool {
	text := subject + "\n" + body
	for _, kw := range statementKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Preliminary notices confirm a charge before the merchant detail reaches
// the issuer. Rakuten's 速報 mails are the canonical case.
var speculativeKeywords = []string{
	"速報",
	"確定前",
	"暫定",
	"カード利用お知らせ",
}

// LooksLikeSpeculative reports whether a message is a preliminary notice.
// Callers must only consult this when extraction found no merchant; a
// notice that carries a merchant name is not speculative no matter how it
// is phrased.
func LooksLikeSpeculative(subject, body string) bool {
	text := subject + "\n" + body
	for _, kw := range speculativeKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
