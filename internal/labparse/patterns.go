package labparse

import (
	"regexp"
	"strings"
)

// valuePattern accepts a decimal number or a run of asterisks (masked value).
const valuePattern = `(\d+(?:\.\d+)?|\*+)`

const (
	flagPattern  = `(?:\s+([HLhl])\b)?`
	datePattern  = `(?:\s*\(([^)]{1,40})\))?`
	separatorPat = `(?:\s*[:=]\s*|\s+)`
)

var (
	// <name> <value> [H|L] (<paren>) at line start.
	reExact = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9\-]{0,14})` + separatorPat + valuePattern + `(?:\s+([HLhl]))?\s*\(([^)]*)\)`)

	// name[:\s]value with a name of at most five characters.
	reFlexible = regexp.MustCompile(`\b([A-Za-z][A-Za-z0-9]{0,4})(?:\s*:\s*|\s+)` + valuePattern)

	// name value [flag] [(date)] with a name of two to ten characters.
	reGeneric = regexp.MustCompile(`\b([A-Za-z][A-Za-z0-9]{1,9})\s+` + valuePattern + flagPattern + datePattern)
)

// compileKnownPattern builds the alternation over every catalog surface form.
// forms must already be ordered longest first.
func compileKnownPattern(forms []string) *regexp.Regexp {
	if len(forms) == 0 {
		return nil
	}
	alts := make([]string, len(forms))
	for i, f := range forms {
		alts[i] = surfacePattern(f)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(alts, "|") + `)\b` + separatorPat + valuePattern + flagPattern + datePattern)
}

// surfacePattern quotes a surface form, letting its internal spaces match any whitespace run.
func surfacePattern(form string) string {
	parts := strings.Fields(form)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, `\s+`)
}

// ignoredNames are tokens the loose passes commonly mistake for test names.
var ignoredNames = map[string]struct{}{}

func init() {
	for _, n := range []string{
		"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "SEPT", "OCT", "NOV", "DEC",
		"JANUARY", "FEBRUARY", "MARCH", "APRIL", "JUNE", "JULY", "AUGUST", "SEPTEMBER", "OCTOBER",
		"NOVEMBER", "DECEMBER",
		"H", "L", "PAGE", "DATE", "AGE", "SEX", "YEAR", "YEARS", "TEL", "FAX", "NO", "ID", "CODE",
		"BED", "ROOM", "TIME", "AM", "PM", "REF", "RANGE", "NORMAL", "UNIT", "UNITS", "TO", "OF",
		"MG", "DL", "ML", "MMOL", "G", "U", "IU", "PG", "NG", "FL", "X", "MIN", "SEC", "HR",
	} {
		ignoredNames[n] = struct{}{}
	}
}

func isIgnoredName(name string) bool {
	_, ok := ignoredNames[strings.ToUpper(name)]
	return ok
}
