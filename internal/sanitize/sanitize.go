// Package sanitize cleans raw model responses before they are written to disk.
package sanitize

import (
	"regexp"
	"strings"
)

// thinkingPattern matches the shortest <think>...</think> span, across newlines.
var thinkingPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinking removes every <think>...</think> span from text and trims the
// surrounding whitespace. An opening tag without a closing tag is left as is.
func StripThinking(text string) string {
	return strings.TrimSpace(thinkingPattern.ReplaceAllString(text, ""))
}
