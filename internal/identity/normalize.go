package identity

import (
	"html"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// mojibake repairs UTF-8 text that was decoded as Latin-1 somewhere upstream.
var mojibake = strings.NewReplacer(
	"Ã©", "é", "Ã¨", "è", "Ã¡", "á", "Ã³", "ó", "Ã±", "ñ", "Ã¼", "ü", "Ã­", "í",
	"â€™", "'", "â€˜", "'", "â€“", "-", "Â ", " ",
)

// Normalize lowercases, repairs encoding artifacts, strips diacritics and
// punctuation, and collapses whitespace.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := html.UnescapeString(raw)
	s = mojibake.Replace(s)
	s = stripDiacritics(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '.':
			// "st." and "john's" collapse without a gap
		default:
			b.WriteRune(' ')
		}
	}
	return collapseWhitespace(b.String())
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// expandAbbreviations rewrites "X st" as "X state", "st X" as "saint X" and
// drops a leading "university of".
func expandAbbreviations(s string) string {
	s = strings.TrimPrefix(s, "university of ")
	words := strings.Fields(s)
	if len(words) < 2 {
		return s
	}
	if words[0] == "st" {
		words[0] = "saint"
	}
	if words[len(words)-1] == "st" {
		words[len(words)-1] = "state"
	}
	return strings.Join(words, " ")
}
