package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxFileNameBytes keeps generated names under common filesystem limits
// with room for a track prefix and extension.
const maxFileNameBytes = 200

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// CleanText converts s to NFC, drops control characters, and collapses
// runs of whitespace to a single space.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
		case unicode.IsControl(r), r == utf8.RuneError:
		default:
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeFileName returns s as a safe single path segment. Slashes,
// backslashes, colons, and asterisks become dashes; other unsafe characters
// are removed. Leading dots are stripped so titles never produce hidden
// files. The result may be empty.
func SanitizeFileName(s string) string {
	s = CleanText(s)
	if s == "" {
		return ""
	}
	s = strings.TrimSpace(fileNameReplacer.Replace(s))
	s = strings.TrimLeft(s, ". ")
	return truncate(s, maxFileNameBytes)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.TrimSpace(s[:n])
}
