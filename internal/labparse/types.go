package labparse

import (
	"encoding/json"
	"fmt"
)

// Confidence is the ordinal strength of a match. Higher values win ties.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
	ConfidenceVeryHigh
)

var confidenceNames = map[Confidence]string{
	ConfidenceNone:     "none",
	ConfidenceMedium:   "medium",
	ConfidenceHigh:     "high",
	ConfidenceVeryHigh: "very_high",
}

func (c Confidence) String() string {
	if s, ok := confidenceNames[c]; ok {
		return s
	}
	return fmt.Sprintf("confidence(%d)", int(c))
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Confidence) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseConfidence(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseConfidence is the inverse of Confidence.String.
func ParseConfidence(s string) (Confidence, error) {
	for c, name := range confidenceNames {
		if name == s {
			return c, nil
		}
	}
	return ConfidenceNone, fmt.Errorf("unknown confidence %q", s)
}

// Source names the matcher pass that produced a candidate.
type Source string

const (
	SourceExact    Source = "exact"
	SourceStandard Source = "standard"
	SourceFlexible Source = "flexible"
	SourceGeneric  Source = "generic"
)

// Candidate is an unranked match. Several candidates may describe the same test.
type Candidate struct {
	TestName   string     `json:"testName"`
	RawResult  string     `json:"rawResult"`
	Flag       string     `json:"flag,omitempty"`
	DateInfo   string     `json:"dateInfo,omitempty"`
	Source     Source     `json:"source"`
	Confidence Confidence `json:"confidence"`
}

// LabTestResult is the public record returned to callers and persisted downstream.
type LabTestResult struct {
	TestName    string     `json:"testName"`
	TestDate    string     `json:"testDate"`
	Result      string     `json:"result"`
	Unit        *string    `json:"unit"`
	NormalRange *string    `json:"normalRange"`
	Notes       string     `json:"notes"`
	Confidence  Confidence `json:"confidence"`
}

// NormalizedText holds the two views the matcher runs over.
type NormalizedText struct {
	Flat  string
	Lines []string
}
