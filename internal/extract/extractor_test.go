package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublens-app/sublens/internal/common"
	"github.com/sublens-app/sublens/internal/model"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestExtractIssuerNotice(t *testing.T) {
	e := New(Config{Now: fixedNow})

	msg := &model.RawMessage{
		ID:      "m1",
		Sender:  "usage@vpass.ne.jp",
		Subject: "【三井住友カード】ご利用のお知らせ",
		Body: "ご利用日時: 2024年3月5日\n" +
			"ご利用先: NETFLIX.COM\n" +
			"ご利用金額: 1,320円\n" +
			"カード番号下4桁 1234\n",
	}

	candidate, err := e.Extract(msg)
	require.NoError(t, err)

	assert.Equal(t, int64(1320), candidate.Amount)
	assert.Equal(t, "JPY", candidate.Currency)
	assert.Equal(t, "NETFLIX.COM", candidate.Merchant)
	assert.Equal(t, "smbc", candidate.Issuer)
	assert.Equal(t, model.SourceIssuerTemplate, candidate.Source)
	assert.Equal(t, model.IssuerConfidenceHigh, candidate.IssuerConfidence)
	assert.Equal(t, "1234", candidate.CardLast4)
	require.NotNil(t, candidate.Date)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *candidate.Date)
}

func TestExtractRakutenSpeculative(t *testing.T) {
	e := New(Config{Now: fixedNow})

	msg := &model.RawMessage{
		ID:      "m2",
		Sender:  "info@mail.rakuten-card.co.jp",
		Subject: "カード利用お知らせメール(速報版)",
		Body: "楽天カードをご利用いただきありがとうございます。\n" +
			"利用日: 2024/03/05\n" +
			"利用金額: 2,480円\n",
	}

	candidate, err := e.Extract(msg)
	require.NoError(t, err)

	assert.Equal(t, int64(2480), candidate.Amount)
	assert.Equal(t, "rakuten", candidate.Issuer)
	assert.Empty(t, candidate.Merchant)
	assert.False(t, candidate.HasMerchant())
}

func TestExtractGenericFallback(t *testing.T) {
	e := New(Config{Now: fixedNow})

	msg := &model.RawMessage{
		ID:      "m3",
		Sender:  "notice@some-unknown-card.example.com",
		Subject: "お支払いのご案内",
		Body:    "ご利用内容: クラウドストレージ月額\nご利用金額: 500円\n",
	}

	candidate, err := e.Extract(msg)
	require.NoError(t, err)

	assert.Equal(t, int64(500), candidate.Amount)
	assert.Equal(t, "unknown", candidate.Issuer)
	assert.Equal(t, model.SourceGenericFallback, candidate.Source)
	assert.Equal(t, model.IssuerConfidenceLow, candidate.IssuerConfidence)
	assert.Equal(t, "クラウドストレージ月額", candidate.Merchant)
}

func TestExtractAmountBounds(t *testing.T) {
	e := New(Config{Now: fixedNow})

	tests := []struct {
		name string
		body string
		want error
	}{
		{"below minimum", "ご利用金額: 10円", common.ErrAmountOutOfRange},
		{"above maximum", "ご利用金額: 2,000,000円", common.ErrAmountOutOfRange},
		{"no amount", "重要なお知らせです。", common.ErrNoAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(&model.RawMessage{
				Sender:  "usage@vpass.ne.jp",
				Subject: "ご利用のお知らせ",
				Body:    tt.body,
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtractSkipsFutureDates(t *testing.T) {
	e := New(Config{Now: fixedNow})

	candidate, err := e.Extract(&model.RawMessage{
		Sender:  "usage@vpass.ne.jp",
		Subject: "ご利用のお知らせ",
		Body:    "ご利用日: 2030年1月1日\nご利用金額: 980円\n",
	})
	require.NoError(t, err)
	assert.Nil(t, candidate.Date)
}

func TestExtractWalletType(t *testing.T) {
	e := New(Config{Now: fixedNow})

	candidate, err := e.Extract(&model.RawMessage{
		Sender:  "usage@vpass.ne.jp",
		Subject: "ご利用のお知らせ",
		Body:    "Apple Pay でのご利用\nご利用金額: 320円\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "apple_pay", candidate.WalletType)
}

func TestIdentifyIssuerTieBreaks(t *testing.T) {
	e := New(Config{Now: fixedNow})

	// Subject matches both smbc and epos subject patterns with no sender
	// or body evidence; the earlier table entry must win.
	ident, ok := e.identifyIssuer(&model.RawMessage{
		Sender:  "noreply@example.com",
		Subject: "ご利用のお知らせ",
		Body:    "ご利用金額: 980円",
	})
	require.True(t, ok)
	assert.Equal(t, "smbc", ident.template.Issuer)
	assert.Equal(t, model.IssuerConfidenceMedium, ident.confidence)
}

func TestParseJapaneseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "2024年3月5日", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{input: "2024/03/05", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{input: "2024-12-31", want: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
		{input: "2024年13月1日", wantErr: true},
		{input: "March 5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseJapaneseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
