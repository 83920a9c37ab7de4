package ocr

import (
	"regexp"
	"strings"
)

var (
	reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-=]{3,}\s*$`)

	reTestValue = regexp.MustCompile(`\b[a-z][a-z0-9]{1,9}\s*[:=]?\s*\d+(\.\d+)?\b`)
	reUnit      = regexp.MustCompile(`mg/dl|g/dl|mmol/l|meq/l|\bu/l\b|iu/l|ng/ml|pg/ml|10\^\d/`)
	reRangeWord = regexp.MustCompile(`\b(normal|reference|ref\.?)\s*range\b|محدوده|مرجع`)
	reLabWord   = regexp.MustCompile(`\b(test|result|laboratory|lab)\b|آزمایش|نتیجه`)
)

func hasTestValuePattern(s string) bool { return reTestValue.MatchString(s) }
func hasUnitPattern(s string) bool      { return reUnit.MatchString(s) }
func hasRangePattern(s string) bool     { return reRangeWord.MatchString(s) }
func hasLabWord(s string) bool          { return reLabWord.MatchString(s) }

// naive heuristic confidence based on decoded text characteristics
func heuristicConfidence(txt string) float32 {
	// boost if we see common lab report artifacts
	// (name-value pairs, units, range wording, report headings)
	txtL := strings.ToLower(txt)
	if strings.TrimSpace(txtL) == "" {
		return 0
	}
	score := float32(0.2) // base
	if hasTestValuePattern(txtL) {
		score += 0.25
	}
	if hasUnitPattern(txtL) {
		score += 0.2
	}
	if hasRangePattern(txtL) {
		score += 0.15
	}
	if hasLabWord(txtL) {
		score += 0.1
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
