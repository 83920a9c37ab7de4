package labparse

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Rank orders candidates by confidence (highest first), then by shorter test name,
// and keeps the first candidate per case-insensitive name. The input is not modified.
func Rank(cands []Candidate) []Candidate {
	sorted := append([]Candidate(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		return utf8.RuneCountInString(sorted[i].TestName) < utf8.RuneCountInString(sorted[j].TestName)
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]Candidate, 0, len(sorted))
	for _, c := range sorted {
		key := strings.ToUpper(c.TestName)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
