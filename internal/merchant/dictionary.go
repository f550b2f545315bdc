package merchant

import (
	"context"
	"strings"

	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/normalize"
)

// dictEntry is one known merchant. Match is the normalized fragment looked
// for in the snippet; exact hits and substring hits score the same.
type dictEntry struct {
	match          string
	canonical      string
	category       string
	platform       string
	isSubscription bool
}

// knownMerchants is loaded once at startup and never mutated, so stages
// read it without locking.
var knownMerchants = []dictEntry{
	{"netflix", "Netflix", model.CategorySubscription, "Netflix", true},
	{"spotify", "Spotify", model.CategorySubscription, "Spotify", true},
	{"youtube premium", "YouTube Premium", model.CategorySubscription, "Google", true},
	{"amazon prime", "Amazon Prime", model.CategorySubscription, "Amazon", true},
	{"amazon", "Amazon", model.CategoryShopping, "Amazon", false},
	{"アマゾン", "Amazon", model.CategoryShopping, "Amazon", false},
	{"apple.com/bill", "Apple", model.CategorySubscription, "Apple", true},
	{"itunes", "Apple", model.CategorySubscription, "Apple", true},
	{"icloud", "iCloud+", model.CategorySubscription, "Apple", true},
	{"google one", "Google One", model.CategorySubscription, "Google", true},
	{"hulu", "Hulu", model.CategorySubscription, "Hulu", true},
	{"u-next", "U-NEXT", model.CategorySubscription, "U-NEXT", true},
	{"dazn", "DAZN", model.CategorySubscription, "DAZN", true},
	{"adobe", "Adobe", model.CategorySubscription, "Adobe", true},
	{"openai", "OpenAI", model.CategorySubscription, "OpenAI", true},
	{"kindle unlimited", "Kindle Unlimited", model.CategorySubscription, "Amazon", true},
	{"楽天市場", "楽天市場", model.CategoryShopping, "楽天", false},
	{"メルカリ", "メルカリ", model.CategoryShopping, "メルカリ", false},
	{"セブン-イレブン", "セブン-イレブン", model.CategoryConvenience, "", false},
	{"セブンイレブン", "セブン-イレブン", model.CategoryConvenience, "", false},
	{"ローソン", "ローソン", model.CategoryConvenience, "", false},
	{"ファミリーマート", "ファミリーマート", model.CategoryConvenience, "", false},
	{"ファミマ", "ファミリーマート", model.CategoryConvenience, "", false},
	{"スターバックス", "スターバックス", model.CategoryDining, "", false},
	{"starbucks", "スターバックス", model.CategoryDining, "", false},
	{"マクドナルド", "マクドナルド", model.CategoryDining, "", false},
	{"uber eats", "Uber Eats", model.CategoryDining, "Uber", false},
	{"出前館", "出前館", model.CategoryDining, "", false},
	{"jr東日本", "JR東日本", model.CategoryTransport, "", false},
	{"モバイルsuica", "モバイルSuica", model.CategoryTransport, "JR東日本", false},
	{"東京電力", "東京電力", model.CategoryUtility, "", false},
	{"東京ガス", "東京ガス", model.CategoryUtility, "", false},
	{"steam", "Steam", model.CategoryEntertainment, "Valve", false},
	{"nintendo", "Nintendo", model.CategoryEntertainment, "Nintendo", false},
}

// dictionaryStage matches the known-merchant dictionary by exact or
// substring match. Hits are near-certain.
type dictionaryStage struct {
	entries []dictEntry
}

func newDictionaryStage() *dictionaryStage {
	return &dictionaryStage{entries: knownMerchants}
}

func (s *dictionaryStage) Name() string { return "dictionary" }

func (s *dictionaryStage) Classify(_ context.Context, input Input) (*model.MerchantResult, error) {
	key := normalize.MerchantKey(input.Snippet)
	if key == "" {
		return nil, nil
	}

	for _, entry := range s.entries {
		needle := strings.ToLower(entry.match)
		if key == needle || strings.Contains(key, needle) {
			return &model.MerchantResult{
				Name:           entry.canonical,
				Category:       entry.category,
				Platform:       entry.platform,
				IsSubscription: entry.isSubscription,
				Confidence:     0.95,
				Method:         model.MethodDictionary,
			}, nil
		}
	}
	return nil, nil
}
