package common

import (
	"regexp"
	"strings"
)

var (
	jsonFencePattern  = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	plainFencePattern = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// ExtractJSONBlock returns the body of the first ```json fence, else the first
// plain fence, else the trimmed text. Models often wrap JSON answers in markdown.
func ExtractJSONBlock(text string) string {
	if m := jsonFencePattern.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	if m := plainFencePattern.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
