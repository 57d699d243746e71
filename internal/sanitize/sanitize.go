// Package sanitize normalizes free-text output from the generation service
// before it is displayed or spoken. The service is treated as unreliable in
// formatting: questions arrive wrapped in markdown emphasis, numbered labels,
// quotes or trailing parenthetical asides depending on the model's mood.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	boldRe          = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe        = regexp.MustCompile(`\*([^*]+)\*`)
	underlineBoldRe = regexp.MustCompile(`__([^_]+)__`)
	underlineRe     = regexp.MustCompile(`_([^_]+)_`)
	questionLabelRe = regexp.MustCompile(`^Q\d+:\s*`)
	numberLabelRe   = regexp.MustCompile(`^\d+\.\s*`)
	parentheticalRe = regexp.MustCompile(`\([^)]*\)$`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// QuestionText applies the full set of cleanup rules, in order:
// markdown emphasis markers are unwrapped, a leading "Q<n>:" or "<n>." label
// is dropped, surrounding double quotes are dropped, a trailing parenthetical
// aside is removed and whitespace is collapsed to single spaces.
func QuestionText(s string) string {
	if s == "" {
		return ""
	}

	cleaned := boldRe.ReplaceAllString(s, "$1")
	cleaned = italicRe.ReplaceAllString(cleaned, "$1")
	cleaned = underlineBoldRe.ReplaceAllString(cleaned, "$1")
	cleaned = underlineRe.ReplaceAllString(cleaned, "$1")

	cleaned = strings.TrimSpace(cleaned)
	cleaned = questionLabelRe.ReplaceAllString(cleaned, "")
	cleaned = numberLabelRe.ReplaceAllString(cleaned, "")

	cleaned = strings.TrimPrefix(cleaned, `"`)
	cleaned = strings.TrimSuffix(cleaned, `"`)

	cleaned = strings.TrimSpace(parentheticalRe.ReplaceAllString(strings.TrimSpace(cleaned), ""))

	return whitespaceRe.ReplaceAllString(cleaned, " ")
}
