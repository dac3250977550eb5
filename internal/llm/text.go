package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	clampLowPercent  = 85
	clampHighPercent = 115
	ellipsis         = "…"
)

// CoerceText turns a decoded cover_letter value into plain text. Objects use
// title and content, arrays are joined by blank lines.
func CoerceText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case map[string]any:
		title := strings.TrimSpace(stringField(val, "title"))
		body := strings.TrimSpace(stringField(val, "content"))
		if title != "" && body != "" {
			return title + "\n\n" + body
		}
		if body != "" {
			return body
		}
		return title
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, strings.TrimSpace(fmt.Sprint(item)))
		}
		return strings.TrimSpace(strings.Join(parts, "\n\n"))
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// ClampLength truncates text longer than 115% of target (in characters) and
// marks the cut with an ellipsis. Shorter text is returned unchanged.
func ClampLength(text string, target int) string {
	if target <= 0 {
		return text
	}
	high := target * clampHighPercent / 100
	if utf8.RuneCountInString(text) <= high {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:high]), " \t\r\n") + ellipsis
}

// MinLength is the lower bound of the accepted length window for target.
func MinLength(target int) int {
	return target * clampLowPercent / 100
}
