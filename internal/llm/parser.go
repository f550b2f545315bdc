package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseAnswer parses the backend's raw text into an Answer, tolerating
// markdown code fences and surrounding prose.
func ParseAnswer(content string) (Answer, error) {
	content = cleanMarkdownWrapper(content)

	// Some backends wrap the object in explanation text; cut to the
	// outermost braces before parsing.
	if start := strings.IndexByte(content, '{'); start >= 0 {
		if end := strings.LastIndexByte(content, '}'); end > start {
			content = content[start : end+1]
		}
	}

	var answer Answer
	if err := json.Unmarshal([]byte(content), &answer); err != nil {
		return Answer{}, fmt.Errorf("failed to parse JSON answer: %w", err)
	}

	if answer.Merchant == "" {
		return Answer{}, fmt.Errorf("no merchant in answer")
	}

	if answer.Confidence < 0 {
		answer.Confidence = 0
	}
	if answer.Confidence > 1 {
		answer.Confidence = 1
	}

	return answer, nil
}

// cleanMarkdownWrapper strips ```json fences the backends sometimes add
// despite the instructions.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
