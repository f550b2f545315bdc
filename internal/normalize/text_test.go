package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "full-width digits folded",
			input: "ご利用金額　１，３２０円",
			want:  "ご利用金額 1,320円",
		},
		{
			name:  "half-width katakana widened",
			input: "ﾒﾙｶﾘ",
			want:  "メルカリ",
		},
		{
			name:  "markup stripped",
			input: "<p>ご利用金額 1,320円</p>",
			want:  "ご利用金額 1,320円",
		},
		{
			name:  "crlf and blank runs collapsed",
			input: "ご利用日 2024/03/05\r\n\r\n\r\n\r\nご利用金額 980円",
			want:  "ご利用日 2024/03/05\n\nご利用金額 980円",
		},
		{
			name:  "line structure preserved",
			input: "ご利用先  NETFLIX\nご利用金額  1,320円",
			want:  "ご利用先 NETFLIX\nご利用金額 1,320円",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.input))
		})
	}
}

func TestMerchantKey(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"case and width", "ＮＥＴＦＬＩＸ", "netflix"},
		{"punctuation noise", "AMAZON*MARKETPLACE", "amazon marketplace"},
		{"trailing url", "Spotify https://spotify.com/jp", "spotify"},
		{"surrounding space", "  Netflix  ", "netflix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, MerchantKey(tt.b), MerchantKey(tt.a))
		})
	}
}

func TestCleanMerchant(t *testing.T) {
	assert.Equal(t, "NETFLIX.COM", CleanMerchant("NETFLIX.COM (ネットフリックス)"))
	assert.Equal(t, "Spotify", CleanMerchant("Spotify https://spotify.com"))
	assert.Equal(t, "メルカリ", CleanMerchant(" メルカリ "))
}
