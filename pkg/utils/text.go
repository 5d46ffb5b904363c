package utils

import "strings"

// NormalizeAnswer prepares free-form chat text for answer comparison:
// surrounding whitespace is dropped and case is folded.
func NormalizeAnswer(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// AnswersEqual compares a player's raw text against the reference answer.
func AnswersEqual(given, correct string) bool {
	return NormalizeAnswer(given) == NormalizeAnswer(correct)
}
