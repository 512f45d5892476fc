package handoff

import (
	"fmt"
	"strings"
)

// EstimateTokens approximates the token count of text for budgeting.
//
// This is not a tokenizer; ~4 chars/token is close enough for deciding what
// fits in a prompt section, and it is deterministic across platforms.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// TruncateToTokens cuts text to maxTokens*4 characters and appends a
// truncation marker; the marker itself is not counted against maxTokens.
func TruncateToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	maxChars := maxTokens * 4
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + "\n...[truncated]"
}

// TruncateLines keeps the first maxLines lines of text, marking how many
// lines were dropped.
func TruncateLines(text string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}
	dropped := len(lines) - maxLines
	return strings.Join(lines[:maxLines], "\n") + fmt.Sprintf("\n...[%d more lines truncated]", dropped)
}
