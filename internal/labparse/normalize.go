package labparse

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxTextBytes bounds the text handed to the matcher.
const DefaultMaxTextBytes = 512 << 10

var reLineBreak = regexp.MustCompile(`\r\n|\r|\n`)

// digitFolder maps Extended Arabic-Indic (Persian) and Arabic-Indic digits to ASCII
// and the Arabic decimal/thousands separators to '.' and ','.
var digitFolder = runes.Map(func(r rune) rune {
	switch {
	case r >= '۰' && r <= '۹':
		return '0' + (r - '۰')
	case r >= '٠' && r <= '٩':
		return '0' + (r - '٠')
	case r == '٫':
		return '.'
	case r == '٬':
		return ','
	}
	return r
})

// Normalize produces the flat and line views of text.
// Input beyond DefaultMaxTextBytes is dropped.
func Normalize(text string) NormalizedText {
	return NormalizeLimit(text, DefaultMaxTextBytes)
}

// NormalizeLimit is Normalize with an explicit byte bound (<= 0 means DefaultMaxTextBytes).
func NormalizeLimit(text string, maxBytes int) NormalizedText {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxTextBytes
	}
	text = truncateBytes(text, maxBytes)
	if strings.TrimSpace(text) == "" {
		return NormalizedText{Flat: "", Lines: []string{}}
	}

	text = truncateBytes(fold(text), maxBytes)

	lines := make([]string, 0, 16)
	for _, l := range reLineBreak.Split(text, -1) {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	return NormalizedText{
		Flat:  strings.Join(strings.Fields(text), " "),
		Lines: lines,
	}
}

// fold applies NFKC and digit folding. On transform failure the input is returned as is.
func fold(s string) string {
	out, _, err := transform.String(transform.Chain(norm.NFKC, digitFolder), s)
	if err != nil {
		return s
	}
	return out
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
