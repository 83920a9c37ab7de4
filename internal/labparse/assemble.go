package labparse

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	// FallbackTestName marks the placeholder emitted when text exists but no test was recognized.
	FallbackTestName = "Laboratory Data"

	provenanceNote    = "Extracted from uploaded file"
	fallbackNoteRunes = 500
	isoDate           = "2006-01-02"
)

var flagNotes = map[string]string{
	"H": " - High (H)",
	"L": " - Low (L)",
}

// monthDayLayouts carry no year; the run's year is applied.
var monthDayLayouts = []string{"Jan 2", "January 2", "2 Jan", "2 January", "Jan. 2"}

// Assemble maps ranked candidates to results. With no candidates it returns a single
// placeholder when flat is non-empty and an empty list otherwise.
func Assemble(retained []Candidate, flat string, now time.Time) []LabTestResult {
	if len(retained) == 0 {
		if strings.TrimSpace(flat) == "" {
			return []LabTestResult{}
		}
		return []LabTestResult{Fallback(flat, now)}
	}

	out := make([]LabTestResult, 0, len(retained))
	for _, c := range retained {
		testDate, ok := ParseDate(c.DateInfo, now)
		if !ok {
			testDate = now.Format(isoDate)
		}
		out = append(out, LabTestResult{
			TestName:   c.TestName,
			TestDate:   testDate,
			Result:     c.RawResult,
			Notes:      provenanceNote + flagNotes[c.Flag],
			Confidence: c.Confidence,
		})
	}
	return out
}

// Fallback builds the manual-entry placeholder carrying the head of the source text.
func Fallback(flat string, now time.Time) LabTestResult {
	return LabTestResult{
		TestName:   FallbackTestName,
		TestDate:   now.Format(isoDate),
		Result:     "",
		Notes:      headRunes(strings.TrimSpace(flat), fallbackNoteRunes),
		Confidence: ConfidenceNone,
	}
}

// ParseDate turns parenthesised date info into YYYY-MM-DD. Years outside 1900-2100
// (e.g. Jalali years read as Gregorian) are rejected.
func ParseDate(info string, now time.Time) (string, bool) {
	info = strings.TrimSpace(info)
	if info == "" {
		return "", false
	}

	for _, layout := range monthDayLayouts {
		if t, err := time.ParseInLocation(layout, info, now.Location()); err == nil {
			d := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
			if d.Month() != t.Month() {
				// Feb 29 outside a leap year
				return "", false
			}
			return d.Format(isoDate), true
		}
	}

	t, err := dateparse.ParseIn(info, now.Location())
	if err != nil || t.Year() < 1900 || t.Year() > 2100 {
		return "", false
	}
	return t.Format(isoDate), true
}

func headRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
