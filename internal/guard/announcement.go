// Package guard filters non-transactional mail out of the pipeline before
// field extraction runs.
package guard

import (
	"regexp"
	"strings"
)

// amountToken matches yen amount tokens in normalized text.
var amountToken = regexp.MustCompile(`[0-9][0-9,]*\s*円`)

// AnnouncementGuard rejects contract and setup-procedure mail that only
// mentions example amounts. Rejection requires all three conditions to
// hold; a single failing condition keeps the message, because dropping a
// real charge costs more than keeping a borderline announcement.
type AnnouncementGuard struct {
	senders         []string
	noticeKeywords  []string
	exampleKeywords []string
	windowRunes     int
}

// AnnouncementConfig tunes the guard. Zero values fall back to defaults.
type AnnouncementConfig struct {
	Senders         []string
	NoticeKeywords  []string
	ExampleKeywords []string
	WindowRunes     int
}

// NewAnnouncementGuard builds a guard from config, applying the built-in
// keyword tables where the config leaves a field empty.
func NewAnnouncementGuard(cfg AnnouncementConfig) *AnnouncementGuard {
	g := &AnnouncementGuard{
		senders:         cfg.Senders,
		noticeKeywords:  cfg.NoticeKeywords,
		exampleKeywords: cfg.ExampleKeywords,
		windowRunes:     cfg.WindowRunes,
	}
	if len(g.senders) == 0 {
		g.senders = defaultAnnouncementSenders
	}
	if len(g.noticeKeywords) == 0 {
		g.noticeKeywords = defaultNoticeKeywords
	}
	if len(g.exampleKeywords) == 0 {
		g.exampleKeywords = defaultExampleKeywords
	}
	if g.windowRunes <= 0 {
		g.windowRunes = 30
	}
	return g
}

var defaultAnnouncementSenders = []string{
	"info@mail.rakuten-card.co.jp",
	"announce@smbc-card.com",
	"news@epos.jp",
	"info@nicos.co.jp",
	"mail@qa.jcb.co.jp",
}

var defaultNoticeKeywords = []string{
	"規約改定",
	"重要なお知らせ",
	"ご契約内容",
	"お手続き方法",
	"設定方法",
	"サービス変更",
	"会員規約",
}

var defaultExampleKeywords = []string{
	"例として",
	"お支払い例",
	"シミュレーション",
	"の場合",
	"たとえば",
	"例えば",
}

// Verdict explains an announcement-guard decision. Reject is true only
// when every condition matched.
type Verdict struct {
	MatchedSender  string
	MatchedNotice  string
	Reject         bool
	SenderMatch    bool
	NoticeMatch    bool
	AllAmountsSafe bool
}

// Check evaluates the three conditions against a normalized message.
func (g *AnnouncementGuard) Check(sender, subject, body string) Verdict {
	v := Verdict{}

	lowered := strings.ToLower(sender)
	for _, s := range g.senders {
		if strings.Contains(lowered, s) {
			v.SenderMatch = true
			v.MatchedSender = s
			break
		}
	}

	text := subject + "\n" + body
	for _, kw := range g.noticeKeywords {
		if strings.Contains(text, kw) {
			v.NoticeMatch = true
			v.MatchedNotice = kw
			break
		}
	}

	v.AllAmountsSafe = g.allAmountsLookLikeExamples(body)
	v.Reject = v.SenderMatch && v.NoticeMatch && v.AllAmountsSafe
	return v
}

// allAmountsLookLikeExamples reports whether an example keyword appears
// within the configured rune window of every amount token. A body with no
// amount tokens fails the condition: there is nothing to prove the amounts
// are illustrative.
func (g *AnnouncementGuard) allAmountsLookLikeExamples(body string) bool {
	matches := amountToken.FindAllStringIndex(body, -1)
	if len(matches) == 0 {
		return false
	}

	runes := []rune(body)
	for _, m := range matches {
		start := runeOffset(body, m[0])
		end := runeOffset(body, m[1])

		lo := start - g.windowRunes
		if lo < 0 {
			lo = 0
		}
		hi := end + g.windowRunes
		if hi > len(runes) {
			hi = len(runes)
		}

		window := string(runes[lo:hi])
		found := false
		for _, kw := range g.exampleKeywords {
			if strings.Contains(window, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func runeOffset(s string, byteOffset int) int {
	return len([]rune(s[:byteOffset]))
}
