package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	// letter O read inside a number, e.g. "1O.5" or "2O0"
	reOInNumber = regexp.MustCompile(`(\d[.,]?)[Oo]([.,]?\d|\.)`)
)

// cleanText collapses noisy whitespace in raw engine output and strips ruler lines.
// Line breaks are kept; runs of blank lines collapse to one.
func cleanText(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")

	s = reOInNumber.ReplaceAllString(s, "${1}0${2}")
	return strings.TrimSpace(s)
}
