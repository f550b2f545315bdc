// Package normalize canonicalizes notification-mail text before any other
// stage looks at it. Issuer mails mix full-width and half-width digits and
// punctuation freely, so every downstream pattern assumes the folded form
// produced here.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[ \t\x{3000}]+`)
	blankLinePattern  = regexp.MustCompile(`\n{3,}`)
)

// Text canonicalizes a message body or subject: NFKC normalization,
// full-width to half-width folding for ASCII-compatible runes, markup
// stripping, and whitespace collapse. Line structure is preserved because
// the extractors match labeled lines.
func Text(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = norm.NFKC.String(s)
	s = width.Fold.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = whitespacePattern.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLinePattern.ReplaceAllString(s, "\n\n"))
}

var (
	merchantNoise = regexp.MustCompile(`[\*\#\|\(\)（）「」『』]`)
	trailingURL   = regexp.MustCompile(`https?://\S+$`)
	multiSpace    = regexp.MustCompile(`\s+`)
)

// MerchantKey reduces a raw merchant string to the key used for grouping
// transactions from the same merchant: folded, lowercased, punctuation and
// trailing URLs removed.
func MerchantKey(raw string) string {
	name := width.Fold.String(norm.NFKC.String(raw))
	name = trailingURL.ReplaceAllString(strings.TrimSpace(name), "")
	name = merchantNoise.ReplaceAllString(name, " ")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.ToLower(strings.TrimSpace(name))
}

// CleanMerchant trims the display form of an extracted merchant line:
// trailing URLs, parentheticals, and surrounding whitespace go, case and
// script are kept as extracted.
func CleanMerchant(raw string) string {
	name := strings.TrimSpace(raw)
	name = trailingURL.ReplaceAllString(name, "")
	if idx := strings.IndexAny(name, "(（"); idx > 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}
