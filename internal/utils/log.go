package utils

import "strings"

// TruncateForLog folds whitespace so a prompt fits on one log line and cuts it
// to limit runes, marking the cut with an ellipsis.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
