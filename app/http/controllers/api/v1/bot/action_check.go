package bot

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Cheap pre-validation for "check action" input, so junk never reaches
// the assistant.
const (
	actionMinLen = 4
	actionMaxLen = 160
)

var (
	actionRejectPhrases = []string{"привет", "как дела", "кто ты", "что ты умеешь"}
	linkPattern         = regexp.MustCompile(`(?i)https?://\S+|www\.\S+`)
	letterPattern       = regexp.MustCompile(`\p{L}`)
)

// validateAction reports whether the text looks like a concrete action to
// check. Length in runes, links and greeting smalltalk are rejected.
func validateAction(text string) bool {
	s := strings.TrimSpace(text)

	length := utf8.RuneCountInString(s)
	if length < actionMinLen || length > actionMaxLen {
		return false
	}
	// Digits and punctuation alone are not an action.
	if !letterPattern.MatchString(s) {
		return false
	}
	if linkPattern.MatchString(s) {
		return false
	}

	lower := strings.ToLower(s)
	for _, phrase := range actionRejectPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}
