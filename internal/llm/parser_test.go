package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Answer
		wantErr bool
	}{
		{
			name:  "plain json",
			input: `{"merchant": "Netflix", "category": "サブスク", "is_subscription": true, "confidence": 0.95}`,
			want:  Answer{Merchant: "Netflix", Category: "サブスク", IsSubscription: true, Confidence: 0.95},
		},
		{
			name:  "markdown fenced",
			input: "```json\n{\"merchant\": \"Spotify\", \"category\": \"サブスク\", \"confidence\": 0.9}\n```",
			want:  Answer{Merchant: "Spotify", Category: "サブスク", Confidence: 0.9},
		},
		{
			name:  "surrounding prose",
			input: `Here is my answer: {"merchant": "ローソン", "category": "コンビニ", "confidence": 0.8} Hope that helps!`,
			want:  Answer{Merchant: "ローソン", Category: "コンビニ", Confidence: 0.8},
		},
		{
			name:  "confidence clamped high",
			input: `{"merchant": "Hulu", "confidence": 1.4}`,
			want:  Answer{Merchant: "Hulu", Confidence: 1},
		},
		{
			name:  "confidence clamped low",
			input: `{"merchant": "Hulu", "confidence": -0.2}`,
			want:  Answer{Merchant: "Hulu", Confidence: 0},
		},
		{
			name:    "missing merchant",
			input:   `{"category": "未分類", "confidence": 0.1}`,
			wantErr: true,
		},
		{
			name:    "not json",
			input:   "I don't know this merchant.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswer(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
