// Package extract pulls amount, merchant, and date fields out of issuer
// notification mail using a fixed per-issuer template table with a generic
// multi-candidate fallback.
package extract

import "regexp"

// Template describes how one issuer formats its usage notices. Pattern
// lists are ordered; the first match wins.
type Template struct {
	Issuer           string
	Platform         string
	SenderDomains    []string
	SubjectPatterns  []*regexp.Regexp
	BodyMarkers      []string
	AmountPatterns   []*regexp.Regexp
	MerchantPatterns []*regexp.Regexp
	DatePatterns     []*regexp.Regexp
	// Scoring weights for issuer identification.
	SenderWeight  float64
	SubjectWeight float64
	BodyWeight    float64
}

var (
	usageDateYMD   = regexp.MustCompile(`ご利用日時?[：:]?\s*([0-9]{4}年[0-9]{1,2}月[0-9]{1,2}日)`)
	usageDateSlash = regexp.MustCompile(`ご利用日時?[：:]?\s*([0-9]{4}[/-][0-9]{1,2}[/-][0-9]{1,2})`)

	usageAmount   = regexp.MustCompile(`ご利用金額[：:]?\s*([0-9][0-9,]*)\s*円`)
	genericAmount = regexp.MustCompile(`([0-9][0-9,]*)\s*円`)

	merchantUsage   = regexp.MustCompile(`ご利用先[：:]?\s*(.+)`)
	merchantStore   = regexp.MustCompile(`ご利用店舗?[：:]?\s*(.+)`)
	merchantContent = regexp.MustCompile(`ご利用内容[：:]?\s*(.+)`)
)

// Templates returns the issuer template table. Order matters: when two
// templates score equally, the earlier entry wins, matching the behavior
// the per-issuer patterns were tuned against.
func Templates() []Template {
	return []Template{
		{
			Issuer:        "smbc",
			Platform:      "三井住友カード",
			SenderDomains: []string{"vpass.ne.jp", "smbc-card.com"},
			SubjectPatterns: []*regexp.Regexp{
				regexp.MustCompile(`ご利用.*カード`),
				regexp.MustCompile(`ご利用のお知らせ`),
			},
			BodyMarkers: []string{"vpass", "三井住友"},
			AmountPatterns: []*regexp.Regexp{
				usageAmount,
				regexp.MustCompile(`金額[：:]?\s*([0-9][0-9,]*)\s*円`),
				genericAmount,
			},
			MerchantPatterns: []*regexp.Regexp{merchantUsage},
			DatePatterns:     []*regexp.Regexp{usageDateYMD, usageDateSlash},
			SenderWeight:     0.5,
			SubjectWeight:    0.3,
			BodyWeight:       0.2,
		},
		{
			Issuer:        "mufg",
			Platform:      "MUFGカード",
			SenderDomains: []string{"mufg-card.com", "nicos.co.jp", "dc-card.com"},
			SubjectPatterns: []*regexp.Regexp{
				regexp.MustCompile(`ご利用`),
				regexp.MustCompile(`ご請求`),
			},
			BodyMarkers: []string{"mufg", "ニコス"},
			AmountPatterns: []*regexp.Regexp{
				usageAmount,
				genericAmount,
			},
			MerchantPatterns: []*regexp.Regexp{merchantUsage, merchantStore, merchantContent},
			DatePatterns:     []*regexp.Regexp{usageDateYMD, usageDateSlash},
			SenderWeight:     0.6,
			SubjectWeight:    0.3,
			BodyWeight:       0.1,
		},
		{
			Issuer:        "rakuten",
			Platform:      "楽天カード",
			SenderDomains: []string{"rakuten-card.co.jp", "mail.rakuten-card.co.jp"},
			SubjectPatterns: []*regexp.Regexp{
				regexp.MustCompile(`速報`),
				regexp.MustCompile(`カード利用お知らせ`),
			},
			BodyMarkers: []string{"楽天カード", "楽天e-navi"},
			AmountPatterns: []*regexp.Regexp{
				regexp.MustCompile(`利用金額[：:]?\s*([0-9][0-9,]*)\s*円`),
				genericAmount,
			},
			MerchantPatterns: []*regexp.Regexp{merchantUsage, merchantStore},
			DatePatterns: []*regexp.Regexp{
				regexp.MustCompile(`利用日[：:]?\s*([0-9]{4}[/-][0-9]{1,2}[/-][0-9]{1,2})`),
				usageDateYMD,
			},
			SenderWeight:  0.6,
			SubjectWeight: 0.3,
			BodyWeight:    0.1,
		},
		{
			Issuer:        "epos",
			Platform:      "エポスカード",
			SenderDomains: []string{"eposcard.co.jp", "01epos.jp"},
			SubjectPatterns: []*regexp.Regexp{
				regexp.MustCompile(`エポス`),
				regexp.MustCompile(`ご利用`),
			},
			BodyMarkers: []string{"エポス"},
			AmountPatterns: []*regexp.Regexp{
				usageAmount,
				genericAmount,
			},
			MerchantPatterns: []*regexp.Regexp{merchantUsage, merchantStore},
			DatePatterns:     []*regexp.Regexp{usageDateYMD, usageDateSlash},
			SenderWeight:     0.6,
			SubjectWeight:    0.3,
			BodyWeight:       0.1,
		},
		{
			Issuer:        "jcb",
			Platform:      "JCBカード",
			SenderDomains: []string{"jcb.co.jp", "qa.jcb.co.jp"},
			SubjectPatterns: []*regexp.Regexp{
				regexp.MustCompile(`JCB`),
				regexp.MustCompile(`カードご利用`),
			},
			BodyMarkers: []string{"MyJCB"},
			AmountPatterns: []*regexp.Regexp{
				usageAmount,
				genericAmount,
			},
			MerchantPatterns: []*regexp.Regexp{merchantUsage, merchantContent},
			DatePatterns:     []*regexp.Regexp{usageDateYMD, usageDateSlash},
			SenderWeight:     0.6,
			SubjectWeight:    0.3,
			BodyWeight:       0.1,
		},
	}
}

// GenericTemplate is the fallback used when no issuer template clears the
// minimum identification score. It tries the widest pattern set and tags
// its output as low confidence.
func GenericTemplate() Template {
	return Template{
		Issuer: "unknown",
		AmountPatterns: []*regexp.Regexp{
			usageAmount,
			regexp.MustCompile(`金額[：:]?\s*([0-9][0-9,]*)\s*円`),
			genericAmount,
		},
		MerchantPatterns: []*regexp.Regexp{merchantUsage, merchantStore, merchantContent},
		DatePatterns: []*regexp.Regexp{
			usageDateYMD,
			usageDateSlash,
			regexp.MustCompile(`利用日[：:]?\s*([0-9]{4}[/-][0-9]{1,2}[/-][0-9]{1,2})`),
		},
	}
}
