package labparse

import (
	"regexp"
	"strings"
)

// claimSet holds upper-cased test names already assigned to a candidate.
// Passes never mutate it; with returns an extended copy.
type claimSet map[string]struct{}

func (c claimSet) has(name string) bool {
	_, ok := c[strings.ToUpper(name)]
	return ok
}

func (c claimSet) with(cands []Candidate) claimSet {
	next := make(claimSet, len(c)+len(cands))
	for k := range c {
		next[k] = struct{}{}
	}
	for _, cand := range cands {
		next[strings.ToUpper(cand.TestName)] = struct{}{}
	}
	return next
}

// pass is one stage of the cascade.
type pass struct {
	source Source
	run    func(nt NormalizedText, claimed claimSet) []Candidate
}

// Matcher runs the ordered pattern cascade over normalized text.
type Matcher struct {
	catalog *Catalog
	passes  []pass
}

// NewMatcher builds a matcher over catalog (nil selects DefaultCatalog).
func NewMatcher(catalog *Catalog) *Matcher {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	m := &Matcher{catalog: catalog}
	m.passes = []pass{
		{source: SourceExact, run: m.exactPass},
		{source: SourceStandard, run: m.knownPass},
		{source: SourceFlexible, run: m.flexiblePass},
		{source: SourceGeneric, run: m.genericPass},
	}
	return m
}

// Match returns every candidate in pass order. Each pass only sees names claimed by
// earlier passes, so duplicates within a single pass are left for Rank to merge.
func (m *Matcher) Match(nt NormalizedText) []Candidate {
	var out []Candidate
	claimed := claimSet{}
	for _, p := range m.passes {
		found := p.run(nt, claimed)
		out = append(out, found...)
		claimed = claimed.with(found)
	}
	return out
}

func (m *Matcher) exactPass(nt NormalizedText, claimed claimSet) []Candidate {
	var out []Candidate
	for _, line := range nt.Lines {
		g := reExact.FindStringSubmatch(line)
		if g == nil {
			continue
		}
		name := m.catalog.CanonicalOrSelf(g[1])
		if isIgnoredName(g[1]) || claimed.has(name) {
			continue
		}
		out = append(out, Candidate{
			TestName:   name,
			RawResult:  g[2],
			Flag:       strings.ToUpper(g[3]),
			DateInfo:   strings.TrimSpace(g[4]),
			Source:     SourceExact,
			Confidence: ConfidenceVeryHigh,
		})
	}
	return out
}

func (m *Matcher) knownPass(nt NormalizedText, claimed claimSet) []Candidate {
	if m.catalog.known == nil {
		return nil
	}
	return scan(m.catalog.known, nt.Flat, func(g []string) (Candidate, bool) {
		key, ok := m.catalog.Canonical(strings.Join(strings.Fields(g[1]), " "))
		if !ok || claimed.has(key) {
			return Candidate{}, false
		}
		return Candidate{
			TestName:   key,
			RawResult:  g[2],
			Flag:       strings.ToUpper(g[3]),
			DateInfo:   strings.TrimSpace(g[4]),
			Source:     SourceStandard,
			Confidence: ConfidenceHigh,
		}, true
	})
}

func (m *Matcher) flexiblePass(nt NormalizedText, claimed claimSet) []Candidate {
	return scan(reFlexible, nt.Flat, func(g []string) (Candidate, bool) {
		name := m.catalog.CanonicalOrSelf(g[1])
		if isIgnoredName(g[1]) || claimed.has(name) {
			return Candidate{}, false
		}
		return Candidate{
			TestName:   name,
			RawResult:  g[2],
			Source:     SourceFlexible,
			Confidence: ConfidenceMedium,
		}, true
	})
}

func (m *Matcher) genericPass(nt NormalizedText, claimed claimSet) []Candidate {
	return scan(reGeneric, nt.Flat, func(g []string) (Candidate, bool) {
		name := m.catalog.CanonicalOrSelf(g[1])
		if isIgnoredName(g[1]) || claimed.has(name) {
			return Candidate{}, false
		}
		return Candidate{
			TestName:   name,
			RawResult:  g[2],
			Flag:       strings.ToUpper(g[3]),
			DateInfo:   strings.TrimSpace(g[4]),
			Source:     SourceGeneric,
			Confidence: ConfidenceMedium,
		}, true
	})
}

// scan applies re across text and keeps the candidates accepted by build.
func scan(re *regexp.Regexp, text string, build func(groups []string) (Candidate, bool)) []Candidate {
	var out []Candidate
	for _, g := range re.FindAllStringSubmatch(text, -1) {
		if c, ok := build(g); ok {
			out = append(out, c)
		}
	}
	return out
}
