package labparse

import (
	"regexp"
	"sort"
	"strings"
)

// A normal-range phrase must start within rangeWindow bytes of the test name.
// rangeSlack leaves room for the bounds themselves. unitSlack bounds the text after
// a value that can still hold its flag, a parenthesised note and the unit.
const (
	rangeWindow = 80
	rangeSlack  = 32
	unitSlack   = 256
)

var units = []string{
	"mg/dL", "g/dL", "mmol/L", "µmol/L", "mEq/L", "U/L", "IU/L", "mIU/L", "µIU/mL", "ng/mL",
	"pg/mL", "ng/dL", "µg/dL", "mg/L", "g/L", "mL/min/1.73m2", "mL/min", "mm/hr", "fL", "pg",
	"10^3/µL", "10^6/µL", "x10^3/µL", "x10^6/µL", "/µL", "%",
}

var (
	unitCanon   = map[string]string{}
	unitPattern string
	reUnitTail  *regexp.Regexp

	reWord = regexp.MustCompile(`[0-9A-Za-z_]+`)

	reRange = regexp.MustCompile(`(?i)(?:normal\s+range|reference\s+range|ref\.?\s*range|range)\s*[:=]?\s*(\d+(?:\.\d+)?\s*-\s*\d+(?:\.\d+)?)`)
)

func init() {
	var variants []string
	for _, u := range units {
		for _, micro := range []string{"µ", "μ", "u"} {
			v := strings.ReplaceAll(u, "µ", micro)
			key := strings.ToLower(v)
			if _, ok := unitCanon[key]; ok {
				continue
			}
			unitCanon[key] = u
			variants = append(variants, v)
		}
	}
	sort.SliceStable(variants, func(i, j int) bool { return len(variants[i]) > len(variants[j]) })
	for i, v := range variants {
		variants[i] = regexp.QuoteMeta(v)
	}
	unitPattern = `(` + strings.Join(variants, "|") + `)`
	reUnitTail = regexp.MustCompile(`^` + separatorPat + valuePattern +
		`(?:\s+[HL]\b)?\s*(?:\([^)]{0,40}\)\s*)?` + unitPattern + `(?:[^\pL\pN/^]|$)`)
}

// Enrich attaches unit and normal range to each result where the flat text states them.
// It returns new values; results is left untouched. Absence is never an error.
// Name occurrences are indexed in one pass over flat, so the work grows with the
// text and not with results times text.
func Enrich(results []LabTestResult, flat string, catalog *Catalog) []LabTestResult {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	out := make([]LabTestResult, len(results))
	copy(out, results)

	names := make([][]string, len(results))
	for i, r := range results {
		if r.TestName == FallbackTestName || r.Result == "" {
			continue
		}
		names[i] = catalog.Variations(r.TestName)
	}
	occ := indexNames(flat, names)

	var knownStarts []int
	indexed := false
	for i, r := range results {
		if len(occ[i]) == 0 {
			continue
		}
		if u, ok := findUnit(flat, occ[i], r.Result); ok {
			out[i].Unit = &u
		}
		if !indexed {
			knownStarts = catalog.knownStarts(flat)
			indexed = true
		}
		if nr, ok := findNormalRange(flat, occ[i], knownStarts); ok {
			out[i].NormalRange = &nr
		}
	}
	return out
}

// span is one occurrence of a name in the flat text.
type span struct{ start, end int }

// nameForm is a surface form split into words and the separators between them.
// Whitespace in a separator matches any whitespace run.
type nameForm struct {
	words  []string
	gaps   []string
	owners []int
}

// indexNames returns, per entry of names, every occurrence of any of its forms in flat.
// Occurrences are in text order, longer forms first at the same position.
func indexNames(flat string, names [][]string) [][]span {
	occ := make([][]span, len(names))
	byFirst := make(map[string][]*nameForm)
	seen := make(map[string]*nameForm)
	for i, forms := range names {
		for _, f := range forms {
			nf, ok := splitForm(f)
			if !ok {
				continue
			}
			key := strings.Join(nf.words, "\x00") + "\x01" + strings.Join(nf.gaps, "\x00")
			if prev, dup := seen[key]; dup {
				if prev.owners[len(prev.owners)-1] != i {
					prev.owners = append(prev.owners, i)
				}
				continue
			}
			nf.owners = []int{i}
			seen[key] = nf
			byFirst[nf.words[0]] = append(byFirst[nf.words[0]], nf)
		}
	}
	if len(byFirst) == 0 {
		return occ
	}
	for _, forms := range byFirst {
		sort.SliceStable(forms, func(a, b int) bool { return len(forms[a].words) > len(forms[b].words) })
	}

	words := reWord.FindAllStringIndex(flat, -1)
	for wi, w := range words {
		for _, nf := range byFirst[strings.ToUpper(flat[w[0]:w[1]])] {
			end, ok := matchForm(flat, words[wi:], nf)
			if !ok {
				continue
			}
			for _, o := range nf.owners {
				occ[o] = append(occ[o], span{start: w[0], end: end})
			}
		}
	}
	return occ
}

// splitForm breaks form into words. Forms that start or end on punctuation are skipped.
func splitForm(form string) (*nameForm, bool) {
	locs := reWord.FindAllStringIndex(form, -1)
	if len(locs) == 0 || locs[0][0] != 0 || locs[len(locs)-1][1] != len(form) {
		return nil, false
	}
	nf := &nameForm{}
	for k, l := range locs {
		if k > 0 {
			nf.gaps = append(nf.gaps, collapseSpace(form[locs[k-1][1]:l[0]]))
		}
		nf.words = append(nf.words, strings.ToUpper(form[l[0]:l[1]]))
	}
	return nf, true
}

// matchForm reports whether nf starts at words[0] and returns the end offset of its last word.
func matchForm(flat string, words [][]int, nf *nameForm) (int, bool) {
	if len(words) < len(nf.words) {
		return 0, false
	}
	for k := 1; k < len(nf.words); k++ {
		if collapseSpace(flat[words[k-1][1]:words[k][0]]) != nf.gaps[k-1] {
			return 0, false
		}
		if !strings.EqualFold(flat[words[k][0]:words[k][1]], nf.words[k]) {
			return 0, false
		}
	}
	return words[len(nf.words)-1][1], true
}

// collapseSpace folds every run of regexp whitespace into one space.
func collapseSpace(s string) string {
	if s == " " {
		return s
	}
	var b strings.Builder
	space := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\f', '\r':
			if !space {
				b.WriteByte(' ')
			}
			space = true
		default:
			b.WriteByte(s[i])
			space = false
		}
	}
	return b.String()
}

// findUnit looks for a unit token right after "<name> <value> [flag] [(paren)]".
func findUnit(flat string, occ []span, value string) (string, bool) {
	for _, o := range occ {
		end := o.end + len(value) + unitSlack
		if end > len(flat) {
			end = len(flat)
		}
		g := reUnitTail.FindStringSubmatch(flat[o.end:end])
		if g == nil || g[1] != value {
			continue
		}
		if canon, ok := unitCanon[strings.ToLower(g[2])]; ok {
			return canon, true
		}
		return g[2], true
	}
	return "", false
}

// findNormalRange scans a short window after every occurrence of the test name.
// The window stops at the next recognized "<test> <value>" so a neighbour's range is not borrowed.
func findNormalRange(flat string, occ []span, knownStarts []int) (string, bool) {
	for _, o := range occ {
		end := o.end + rangeWindow + rangeSlack
		if end > len(flat) {
			end = len(flat)
		}
		if k := sort.SearchInts(knownStarts, o.end); k < len(knownStarts) && knownStarts[k] < end {
			end = knownStarts[k]
		}
		region := flat[o.end:end]
		g := reRange.FindStringSubmatchIndex(region)
		if g == nil || g[0] > rangeWindow {
			continue
		}
		return compactRange(region[g[2]:g[3]]), true
	}
	return "", false
}

func compactRange(s string) string {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(parts[0]) + "-" + strings.TrimSpace(parts[1])
}
