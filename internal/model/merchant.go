package model

// ClassificationMethod records which stage of the merchant classifier chain
// produced a result.
type ClassificationMethod string

const (
	// MethodDictionary means the known-merchant dictionary matched.
	MethodDictionary ClassificationMethod = "dictionary"
	// MethodSubscriptionDict means the subscription-service dictionary matched.
	MethodSubscriptionDict ClassificationMethod = "subscription_dict"
	// MethodRule means the rule-pattern table matched.
	MethodRule ClassificationMethod = "rule"
	// MethodExternal means the external classification call answered.
	MethodExternal ClassificationMethod = "external"
	// MethodIssuerFallback means only a coarse issuer-level category was
	// available (garbled text or no external classifier configured).
	MethodIssuerFallback ClassificationMethod = "issuer_fallback"
)

// Merchant categories. Kept as an open string set; these are the values the
// built-in dictionaries and rules produce.
const (
	CategorySubscription  = "サブスク"
	CategoryConvenience   = "コンビニ"
	CategoryDining        = "飲食"
	CategoryShopping      = "ショッピング"
	CategoryTransport     = "交通"
	CategoryUtility       = "公共料金"
	CategoryEntertainment = "エンタメ"
	CategoryUnknown       = "未分類"
)

// MerchantResult is the normalized identity the merchant classifier assigns
// to an extracted merchant string.
type MerchantResult struct {
	Name           string // canonical merchant name
	Category       string
	Platform       string
	Method         ClassificationMethod
	Evidence       string // external-call evidence, empty for local stages
	Confidence     float64
	IsSubscription bool
	NeedsReview    bool
}
