package merchant

import (
	"context"
	"strings"

	"github.com/sublens-app/sublens/internal/model"
	"github.com/sublens-app/sublens/internal/normalize"
)

// subscriptionService is one entry of the subscription-service dictionary.
// Amounts, when present, are the service's known plan prices in minor
// units; a listed amount raises confidence, an unlisted one lowers it but
// does not veto the match, since plans change price more often than name.
type subscriptionService struct {
	match    string
	name     string
	platform string
	amounts  []int64
}

var subscriptionServices = []subscriptionService{
	{"netflix", "Netflix", "Netflix", []int64{790, 890, 1320, 1490, 1980, 2290}},
	{"spotify", "Spotify", "Spotify", []int64{980, 1280, 1580}},
	{"youtube", "YouTube Premium", "Google", []int64{1180, 1280}},
	{"prime", "Amazon Prime", "Amazon", []int64{500, 600, 4900, 5900}},
	{"hulu", "Hulu", "Hulu", []int64{1026, 1190}},
	{"u-next", "U-NEXT", "U-NEXT", []int64{2189}},
	{"dazn", "DAZN", "DAZN", []int64{3700, 4200}},
	{"dアニメ", "dアニメストア", "docomo", []int64{440, 550}},
	{"ニコニコ", "ニコニコプレミアム", "niconico", []int64{790}},
	{"abema", "ABEMAプレミアム", "ABEMA", []int64{960, 1080}},
	{"apple music", "Apple Music", "Apple", []int64{1080, 1680}},
	{"icloud", "iCloud+", "Apple", []int64{130, 400, 1300}},
	{"chatgpt", "ChatGPT Plus", "OpenAI", []int64{3000}},
	{"adobe", "Adobe Creative Cloud", "Adobe", nil},
	{"kindle", "Kindle Unlimited", "Amazon", []int64{980}},
	{"audible", "Audible", "Amazon", []int64{1500}},
	{"nintendo switch online", "Nintendo Switch Online", "Nintendo", []int64{306, 2400}},
	{"ps plus", "PlayStation Plus", "Sony", []int64{850, 1300}},
}

// subscriptionDictStage looks the snippet up in the subscription-service
// dictionary, and secondarily the subject, since some issuers put the
// service name only there.
type subscriptionDictStage struct {
	services []subscriptionService
}

func newSubscriptionDictStage() *subscriptionDictStage {
	return &subscriptionDictStage{services: subscriptionServices}
}

func (s *subscriptionDictStage) Name() string { return "subscription_dict" }

func (s *subscriptionDictStage) Classify(_ context.Context, input Input) (*model.MerchantResult, error) {
	if result := s.lookup(normalize.MerchantKey(input.Snippet), input.Amount); result != nil {
		return result, nil
	}
	if result := s.lookup(normalize.MerchantKey(input.Subject), input.Amount); result != nil {
		result.Confidence -= 0.1
		return result, nil
	}
	return nil, nil
}

func (s *subscriptionDictStage) lookup(key string, amount int64) *model.MerchantResult {
	if key == "" {
		return nil
	}

	for _, svc := range s.services {
		if !strings.Contains(key, strings.ToLower(svc.match)) {
			continue
		}

		confidence := 0.85
		if len(svc.amounts) > 0 {
			confidence = 0.75
			for _, known := range svc.amounts {
				if amount == known {
					confidence = 0.9
					break
				}
			}
		}

		return &model.MerchantResult{
			Name:           svc.name,
			Category:       model.CategorySubscription,
			Platform:       svc.platform,
			IsSubscription: true,
			Confidence:     confidence,
			Method:         model.MethodSubscriptionDict,
		}
	}
	return nil
}
