package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnnouncementGuardRejectsAllThreeConditions(t *testing.T) {
	g := NewAnnouncementGuard(AnnouncementConfig{})

	v := g.Check(
		"info@mail.rakuten-card.co.jp",
		"【重要なお知らせ】リボ払いお手続き方法のご案内",
		"お支払い例として、ご利用額50,000円の場合の毎月のお支払いは5,000円となります。",
	)

	assert.True(t, v.SenderMatch)
	assert.True(t, v.NoticeMatch)
	assert.True(t, v.AllAmountsSafe)
	assert.True(t, v.Reject)
	assert.Equal(t, "info@mail.rakuten-card.co.jp", v.MatchedSender)
}

func TestAnnouncementGuardKeepsRealCharges(t *testing.T) {
	tests := []struct {
		name    string
		sender  string
		subject string
		body    string
		failed  func(Verdict) bool
	}{
		{
			name:    "unknown sender",
			sender:  "usage@vpass.ne.jp",
			subject: "重要なお知らせ",
			body:    "例として1,000円の場合",
			failed:  func(v Verdict) bool { return !v.SenderMatch },
		},
		{
			name:    "no notice keyword",
			sender:  "info@mail.rakuten-card.co.jp",
			subject: "カードご利用のお知らせ",
			body:    "例として1,000円の場合",
			failed:  func(v Verdict) bool { return !v.NoticeMatch },
		},
		{
			name:    "amount without example context",
			sender:  "info@mail.rakuten-card.co.jp",
			subject: "重要なお知らせ",
			body:    "規約改定のご案内。\n\nなお、本日のご利用金額は 1,320円 です。",
			failed:  func(v Verdict) bool { return !v.AllAmountsSafe },
		},
		{
			name:    "one real amount among examples",
			sender:  "info@mail.rakuten-card.co.jp",
			subject: "重要なお知らせ",
			body:    "お支払い例として5,000円の場合をご案内します。\n\nこのたびの規約改定に伴いお手続きをお願いいたします。詳細は会員ページをご確認ください。\n\n今回のご請求は 1,320円 です。",
			failed:  func(v Verdict) bool { return !v.AllAmountsSafe },
		},
		{
			name:    "no amounts at all",
			sender:  "info@mail.rakuten-card.co.jp",
			subject: "重要なお知らせ",
			body:    "会員規約が改定されます。詳細はウェブサイトをご覧ください。",
			failed:  func(v Verdict) bool { return !v.AllAmountsSafe },
		},
	}

	g := NewAnnouncementGuard(AnnouncementConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := g.Check(tt.sender, tt.subject, tt.body)
			assert.False(t, v.Reject)
			assert.True(t, tt.failed(v), "expected the guard condition to fail")
		})
	}
}

func TestAnnouncementGuardWindow(t *testing.T) {
	g := NewAnnouncementGuard(AnnouncementConfig{WindowRunes: 10})

	// Example keyword sits further than 10 runes from the amount.
	v := g.Check(
		"info@mail.rakuten-card.co.jp",
		"重要なお知らせ",
		"例としてご案内するケースでは、お支払いの総額があわせて 5,000円 となります。",
	)
	assert.False(t, v.AllAmountsSafe)
	assert.False(t, v.Reject)
}

func TestLooksLikeStatement(t *testing.T) {
	assert.True(t, LooksLikeStatement("ご請求金額が確定しました", ""))
	assert.True(t, LooksLikeStatement("カードご利用のお知らせ", "今月のご利用代金明細をご案内します。"))
	assert.False(t, LooksLikeStatement("カードご利用のお知らせ", "NETFLIX 1,320円"))
}

func TestLooksLikeSpeculative(t *testing.T) {
	assert.True(t, LooksLikeSpeculative("カード利用お知らせメール(速報版)", ""))
	assert.True(t, LooksLikeSpeculative("", "本メールは確定前のご利用情報です。"))
	assert.False(t, LooksLikeSpeculative("ご利用のお知らせ", "ご利用先 NETFLIX"))
}
