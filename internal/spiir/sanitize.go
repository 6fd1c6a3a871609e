package spiir

import (
	"regexp"
	"strings"
)

// danishReplacer maps the Danish letters to their ASCII digraphs before the
// invalid-rune replacement runs, so "Bøger" becomes "Boeger" rather than
// "B-ger".
var danishReplacer = strings.NewReplacer(
	"æ", "ae",
	"ø", "oe",
	"å", "aa",
	"Æ", "Ae",
	"Ø", "Oe",
	"Å", "Aa",
)

var (
	tagInvalid = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	hyphenRuns = regexp.MustCompile(`-+`)
)

// SanitizeTag converts a raw tag into a valid beancount tag: Danish letters
// become digraphs, every other character outside [a-zA-Z0-9_-] becomes "-",
// hyphen runs collapse, and leading and trailing hyphens are trimmed.
// Returns "" when nothing survives. Only æ/ø/å get transliterated; any other
// accented letter is just another disallowed rune.
func SanitizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = danishReplacer.Replace(tag)
	tag = tagInvalid.ReplaceAllString(tag, "-")
	tag = hyphenRuns.ReplaceAllString(tag, "-")
	return strings.Trim(tag, "-")
}

// SanitizeSegment converts a raw account name into a valid beancount account
// segment: the same character rules as tags, except underscores also become
// hyphens and the first letter is upper-cased to satisfy the account grammar.
func SanitizeSegment(name string) string {
	s := strings.ReplaceAll(SanitizeTag(name), "_", "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.TrimLeft(s, "0123456789-")
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
