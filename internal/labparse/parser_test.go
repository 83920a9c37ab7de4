package labparse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
)

func newTestParser() *Parser {
	return NewParser(WithClock(func() time.Time { return runDate }))
}

func TestParseReportSample(t *testing.T) {
	text := `Kimia Lab - Patient: ---
eGFR 37.7 (Apr 1)
CRE 1.61 H (Apr 1)
Na 140 mmol/L K 4.2 mmol/L Cl 100
HbA1c: 6.1 % normal range 4.0-5.6`

	rep, err := newTestParser().ParseReport(context.Background(), text)
	require.NoError(t, err)

	byName := map[string]LabTestResult{}
	for _, r := range rep.Results {
		_, dup := byName[strings.ToUpper(r.TestName)]
		require.False(t, dup, "duplicate %s", r.TestName)
		byName[strings.ToUpper(r.TestName)] = r
	}

	egfr := byName["EGFR"]
	assert.Equal(t, "37.7", egfr.Result)
	assert.Equal(t, "2024-04-01", egfr.TestDate)
	assert.Equal(t, ConfidenceVeryHigh, egfr.Confidence)

	cre := byName["CRE"]
	assert.Equal(t, "Extracted from uploaded file - High (H)", cre.Notes)

	for _, name := range []string{"NA", "K", "CL"} {
		assert.Equal(t, ConfidenceHigh, byName[name].Confidence, name)
	}
	require.NotNil(t, byName["K"].Unit)
	assert.Equal(t, "mmol/L", *byName["K"].Unit)

	hba1c := byName["HBA1C"]
	assert.Equal(t, "6.1", hba1c.Result)
	require.NotNil(t, hba1c.Unit)
	assert.Equal(t, "%", *hba1c.Unit)
	require.NotNil(t, hba1c.NormalRange)
	assert.Equal(t, "4.0-5.6", *hba1c.NormalRange)

	require.GreaterOrEqual(t, len(rep.Results), 2)
	assert.Equal(t, "CRE", rep.Results[0].TestName)
	assert.Equal(t, "eGFR", rep.Results[1].TestName)
	assert.Len(t, rep.Results, 6)
}

func TestParseEmptyText(t *testing.T) {
	got, err := newTestParser().Parse(context.Background(), "   \n ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseNoMatchesYieldsPlaceholder(t *testing.T) {
	got, err := newTestParser().Parse(context.Background(), "گزارش آزمایشگاه بدون نتیجه")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, FallbackTestName, got[0].TestName)
	assert.Equal(t, "گزارش آزمایشگاه بدون نتیجه", got[0].Notes)
}

func TestParsePersianDigits(t *testing.T) {
	got, err := newTestParser().Parse(context.Background(), "Na ۱۴۰ K ۴٫۲")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "4.2", got[0].Result)
	assert.Equal(t, "K", got[0].TestName)
	assert.Equal(t, "140", got[1].Result)
}

func TestLabTestResultJSON(t *testing.T) {
	got, err := newTestParser().Parse(context.Background(), "CRE 1.61 H (Apr 1)")
	require.NoError(t, err)

	b, err := json.Marshal(got)
	require.NoError(t, err)

	assert.JSONEq(t, `[{
		"testName": "CRE",
		"testDate": "2024-04-01",
		"result": "1.61",
		"unit": null,
		"normalRange": null,
		"notes": "Extracted from uploaded file - High (H)",
		"confidence": "very_high"
	}]`, string(b))

	var back []LabTestResult
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, ConfidenceVeryHigh, back[0].Confidence)
}

func TestParseManyDistinctNamesScalesWithText(t *testing.T) {
	const n = 10000
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "ab%d %d mg/dL ", i, i)
	}

	start := time.Now()
	got, err := newTestParser().Parse(context.Background(), b.String())
	took := time.Since(start)

	require.NoError(t, err)
	require.Len(t, got, n)
	assert.Less(t, took, 10*time.Second, "parse of %d names took %s", n, took)
	for _, r := range got {
		require.NotNil(t, r.Unit, r.TestName)
		assert.Equal(t, "mg/dL", *r.Unit)
	}
}

func TestParseStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestParser().ParseReport(ctx, "CRE 1.61 H (Apr 1)")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, constants.StageParsing, common.StageOf(err))
}
