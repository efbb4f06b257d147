package ir

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NameKey returns the comparison key for a variable name.
//
// Two names collide within a category iff their keys are equal. The key is
// the NFC-normalized, case-folded form of the trimmed name, so "Score",
// "SCORE" and " score " all collide.
func NameKey(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// CleanName trims surrounding whitespace and NFC-normalizes a user supplied name.
func CleanName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
