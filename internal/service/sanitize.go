package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// cleanText strips markup from user-entered text while keeping characters such as
// apostrophes readable in stored spreadsheets.
func cleanText(policy *bluemonday.Policy, value string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(value)))
}

func cleanTexts(policy *bluemonday.Policy, values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, cleanText(policy, value))
	}
	return out
}
