package labparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankKeepsFirstOccurrence(t *testing.T) {
	got := Rank(match("xyz 123 xyz 456"))

	require.Len(t, got, 1)
	assert.Equal(t, "xyz", got[0].TestName)
	assert.Equal(t, "123", got[0].RawResult)
}

func TestRankOrdersByConfidenceThenLength(t *testing.T) {
	in := []Candidate{
		{TestName: "Lipase", RawResult: "1", Confidence: ConfidenceMedium},
		{TestName: "NA", RawResult: "2", Confidence: ConfidenceMedium},
		{TestName: "Na", RawResult: "3", Confidence: ConfidenceHigh},
		{TestName: "eGFR", RawResult: "4", Confidence: ConfidenceVeryHigh},
		{TestName: "Ab", RawResult: "5", Confidence: ConfidenceMedium},
	}

	got := Rank(in)

	require.Len(t, got, 4)
	assert.Equal(t, "eGFR", got[0].TestName)
	assert.Equal(t, "3", got[1].RawResult)
	assert.Equal(t, "Ab", got[2].TestName)
	assert.Equal(t, "Lipase", got[3].TestName)
	assert.Equal(t, "Lipase", in[0].TestName, "input must not be reordered")
}

func TestRankNeverReturnsDuplicateNames(t *testing.T) {
	texts := []string{
		"Na 140 na 141 NA 139 Sodium 138",
		"xyz 1 XYZ 2 xYz 3 abc 4 ABC 5",
		"CRE 1.61 H (Apr 1)\nCreatinine 1.7\nCr 1.5",
	}
	for _, text := range texts {
		seen := map[string]bool{}
		for _, c := range Rank(match(text)) {
			key := strings.ToUpper(c.TestName)
			assert.False(t, seen[key], "duplicate %s in %q", key, text)
			seen[key] = true
		}
	}
}
