package text

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	blankLinesRe = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)
	spaceRunRe   = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
)

// CleanExtracted tidies text pulled out of documents before it is placed in a
// prompt: CRLF becomes LF, runs of spaces collapse to one, runs of blank lines
// collapse to a single blank line, and NUL bytes left by PDF decoders are removed.
func CleanExtracted(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most maxRunes runes, preferring to stop at the last
// whitespace inside the limit. maxRunes <= 0 disables truncation.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	cut := 0
	for i := range s {
		if cut == maxRunes {
			s = s[:i]
			break
		}
		cut++
	}

	// Only back off to a word boundary if it does not throw away most of the text.
	if idx := strings.LastIndexAny(s, " \n\t"); idx > len(s)/2 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
