package merchant

import (
	"context"
	"regexp"
	"strings"

	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/normalize"
)

// categoryRule maps a merchant-name pattern to a category. Rules answer
// with moderate confidence; they identify the kind of merchant, not the
// exact one.
type categoryRule struct {
	pattern  *regexp.Regexp
	category string
}

var categoryRules = []categoryRule{
	{regexp.MustCompile(`セブン|ローソン|ファミマ|ミニストップ|デイリーヤマザキ|コンビニ`), model.CategoryConvenience},
	{regexp.MustCompile(`カフェ|珈琲|コーヒー|レストラン|食堂|居酒屋|寿司|ラーメン|焼肉|ダイニング|フード`), model.CategoryDining},
	{regexp.MustCompile(`タクシー|鉄道|メトロ|バス|高速道路|etc|航空|airlines|交通`), model.CategoryTransport},
	{regexp.MustCompile(`電力|電気|ガス|水道|ntt|docomo|softbank|au |モバイル|通信`), model.CategoryUtility},
	{regexp.MustCompile(`映画|シネマ|チケット|カラオケ|ゲーム|劇場|music|game`), model.CategoryEntertainment},
	{regexp.MustCompile(`ストア|ショップ|マート|百貨店|ドラッグ|書店|モール|store|shop`), model.CategoryShopping},
}

// recurringNameFragments is the closed allow-list that decides whether a
// rule-matched merchant is flagged as a subscription. A generic heuristic
// here produces false positives on one-off purchases from the same vendor
// family, so only these fragments count.
var recurringNameFragments = []string{
	"月額",
	"会費",
	"定期",
	"サブスク",
	"premium",
	"プレミアム",
	"unlimited",
	"メンバーシップ",
}

// ruleStage applies the expanded category rule table.
type ruleStage struct {
	rules []categoryRule
}

func newRuleStage() *ruleStage {
	return &ruleStage{rules: categoryRules}
}

func (s *ruleStage) Name() string { return "rule" }

func (s *ruleStage) Classify(_ context.Context, input Input) (*model.MerchantResult, error) {
	key := normalize.MerchantKey(input.Snippet)
	if key == "" {
		return nil, nil
	}

	for _, rule := range s.rules {
		if !rule.pattern.MatchString(key) {
			continue
		}

		return &model.MerchantResult{
			Name:           normalize.CleanMerchant(input.Snippet),
			Category:       rule.category,
			IsSubscription: hasRecurringFragment(key),
			Confidence:     0.8,
			Method:         model.MethodRule,
		}, nil
	}
	return nil, nil
}

func hasRecurringFragment(key string) bool {
	for _, fragment := range recurringNameFragments {
		if strings.Contains(key, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}
