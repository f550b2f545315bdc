package merchant

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Encoding damage in forwarded issuer mail shows up as replacement runes
// or long runs of symbol soup with no native script left. Sending such a
// snippet to the external backend wastes the call; IsGarbled short-circuits
// it so the chain falls through to the issuer-level fallback.

// IsGarbled reports whether a merchant snippet is too corrupted to
// classify externally.
func IsGarbled(s string) bool {
	if s == "" {
		return false
	}

	corrupted := strings.Count(s, string(utf8.RuneError))
	// UTF-8 bytes decoded as Shift-JIS collapse into a small set of
	// telltale runes; count them as corruption too.
	for _, seq := range []string{"縺", "繧", "繝", "諤", "蜿"} {
		corrupted += strings.Count(s, seq)
	}

	var letters, native int
	for _, r := range s {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han):
			native++
			letters++
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			letters++
		case r == '�':
			// already counted via RuneError
		case unicode.Is(unicode.So, r):
			corrupted++
		}
	}

	total := utf8.RuneCountInString(s)
	if total == 0 {
		return false
	}

	// A few replacement runes are enough to call the string corrupted.
	if corrupted >= 3 || float64(corrupted)/float64(total) > 0.2 {
		return true
	}

	// No native script and almost nothing letter-like: symbol soup.
	if native == 0 && float64(letters)/float64(total) < 0.3 {
		return true
	}

	return false
}
