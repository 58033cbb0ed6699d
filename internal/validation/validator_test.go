package validation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocr-screening/internal/catalog"
	"github.com/ocr-screening/internal/labresult"
	"github.com/ocr-screening/internal/match"
)

type fixture struct {
	index      *catalog.Index
	normalizer *labresult.Normalizer
	guardrail  *Guardrail
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	c := catalog.Default()
	index := catalog.NewIndex(c, nil)
	m := match.New(index, match.DefaultConfig())
	return fixture{
		index:      index,
		normalizer: labresult.NewNormalizer(m, c),
		guardrail:  NewGuardrail(index, DefaultConfig()),
	}
}

func (f fixture) normalize(t *testing.T, candidates ...labresult.RawCandidate) []labresult.Record {
	t.Helper()
	return f.normalizer.NormalizeBatch(candidates).Records
}

// record builds a record straight from the catalog, bypassing the normalizer.
func (f fixture) record(t *testing.T, key string, value float64) labresult.Record {
	t.Helper()
	e, ok := f.index.Catalog().Lookup(key)
	require.True(t, ok, key)
	return labresult.Record{
		Key:        e.Key,
		Name:       e.DisplayName,
		Value:      value,
		Unit:       e.Unit,
		Status:     e.Reference.Classify(value),
		Reference:  e.Reference,
		Confidence: 1,
	}
}

func TestValidateScenarios(t *testing.T) {
	f := newFixture(t)

	t.Run("exact hemoglobin", func(t *testing.T) {
		text := "Hemoglobin 10.2 g/dL (Low)"
		records := f.normalize(t, labresult.RawCandidate{Name: "Hemoglobin", Value: 10.2, Unit: "g/dL", StatusToken: "Low"})

		v := f.guardrail.Validate(records, text)
		assert.Equal(t, StatusOK, v.Status)
		assert.Equal(t, 1.0, v.Confidence)
		require.Len(t, v.Records, 1)
		assert.Equal(t, "Hemoglobin", v.Records[0].Name)
		assert.Equal(t, 10.2, v.Records[0].Value)
		assert.Equal(t, "g/dL", v.Records[0].Unit)
		assert.Equal(t, catalog.StatusLow, v.Records[0].Status)
		assert.Empty(t, v.Rejected)
	})

	t.Run("typo in name and text", func(t *testing.T) {
		text := "Heoglobin 10.2 g/dL (Low)"
		records := f.normalize(t, labresult.RawCandidate{Name: "Heoglobin", Value: 10.2, Unit: "g/dL", StatusToken: "Low"})
		require.Len(t, records, 1)
		assert.Contains(t, []match.Tier{match.TierHigh, match.TierMedium}, records[0].Match.Name.Tier)

		v := f.guardrail.Validate(records, text)
		assert.Contains(t, []Status{StatusOK, StatusOKWithWarnings}, v.Status)
		require.Len(t, v.Records, 1)
		assert.Equal(t, "Hemoglobin", v.Records[0].Name)
		assert.Equal(t, catalog.StatusLow, v.Records[0].Status)
	})

	t.Run("fabricated cholesterol", func(t *testing.T) {
		text := "Hemoglobin 10.2 g/dL (Low)"
		records := f.normalize(t,
			labresult.RawCandidate{Name: "Hemoglobin", Value: 10.2, Unit: "g/dL", StatusToken: "Low"},
			labresult.RawCandidate{Name: "Cholesterol", Value: 220, Unit: "mg/dL", StatusToken: "High"},
		)
		require.Len(t, records, 2)

		v := f.guardrail.Validate(records, text)
		assert.Equal(t, StatusUnprocessed, v.Status)
		assert.Empty(t, v.Records)
		assert.Contains(t, v.Reason, "Total Cholesterol")
		require.NotEmpty(t, v.Rejected)
		assert.Equal(t, "total_cholesterol", v.Rejected[len(v.Rejected)-1].Record.Key)
	})

	t.Run("implausible glucose", func(t *testing.T) {
		text := "Glucose 5000 mg/dL"
		records := f.normalize(t, labresult.RawCandidate{Name: "Glucose", Value: 5000, Unit: "mg/dL"})

		v := f.guardrail.Validate(records, text)
		assert.Equal(t, StatusOKWithWarnings, v.Status)
		assert.InDelta(t, 0.6, v.Confidence, 1e-9)
		require.Len(t, v.Records, 1)
		assert.Equal(t, catalog.StatusHigh, v.Records[0].Status)
		require.Len(t, v.Records[0].Warnings, 1)
		assert.Contains(t, v.Records[0].Warnings[0], "physical bounds")
	})

	t.Run("no candidates", func(t *testing.T) {
		v := f.guardrail.Validate(nil, "Patient: John Doe")
		assert.Equal(t, StatusOK, v.Status)
		assert.NotNil(t, v.Records)
		assert.Empty(t, v.Records)
		assert.Equal(t, 1.0, v.Confidence)
		assert.Equal(t, "no tests found", v.Reason)
	})
}

func TestValidateWholeBatchRejection(t *testing.T) {
	f := newFixture(t)
	text := "Hemoglobin 10.2 g/dL\nGlucose 92 mg/dL\nSodium 140 mmol/L"

	hb := f.record(t, "hemoglobin", 10.2)
	glucose := f.record(t, "glucose", 92)
	sodium := f.record(t, "sodium", 140)
	fabricated := f.record(t, "tsh", 2.1)

	batches := map[string][]labresult.Record{
		"fabricated first":  {fabricated, hb, glucose, sodium},
		"fabricated middle": {hb, glucose, fabricated, sodium},
		"fabricated last":   {hb, glucose, sodium, fabricated},
		"only fabricated":   {fabricated},
	}

	for name, records := range batches {
		t.Run(name, func(t *testing.T) {
			v := f.guardrail.Validate(records, text)
			assert.Equal(t, StatusUnprocessed, v.Status)
			assert.Empty(t, v.Records)
			assert.Contains(t, v.Reason, "TSH")
		})
	}

	v := f.guardrail.Validate([]labresult.Record{hb, glucose, sodium}, text)
	assert.Equal(t, StatusOK, v.Status)
	assert.Len(t, v.Records, 3)
}

func TestValidateTraceability(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		text      string
		key       string
		traceable bool
	}{
		{"display name", "HEMOGLOBIN: 10.2", "hemoglobin", true},
		{"short alias verbatim", "Hb 10.2 g/dL", "hemoglobin", true},
		{"short alias misspelt", "Hg 10.2 g/dL", "hemoglobin", false},
		{"multi-word name with typo", "Total Cholestrol 180 mg/dL", "total_cholesterol", true},
		{"alias with punctuation", "S. Creatinine 0.9", "creatinine", true},
		{"key with underscore", "uric acid 5.1", "uric_acid", true},
		{"unrelated text", "Platelet Count 250", "hemoglobin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := f.record(t, tt.key, 1)
			r.Status = r.Reference.Classify(r.Value)

			v := f.guardrail.Validate([]labresult.Record{r}, tt.text)
			if tt.traceable {
				assert.NotEqual(t, StatusUnprocessed, v.Status, v.Reason)
				assert.Len(t, v.Records, 1)
			} else {
				assert.Equal(t, StatusUnprocessed, v.Status)
				assert.Empty(t, v.Records)
			}
		})
	}
}

func TestValidateRecordRejections(t *testing.T) {
	f := newFixture(t)
	text := "Hemoglobin 10.2 g/dL Unicorn Dust 5"

	malformed := f.record(t, "hemoglobin", 10.2)
	malformed.Unit = ""
	malformed.Status = ""

	unknown := labresult.Record{
		Key:    "unicorn_dust",
		Name:   "Unicorn Dust",
		Value:  5,
		Unit:   "mg/dL",
		Status: catalog.StatusNormal,
	}

	v := f.guardrail.Validate([]labresult.Record{malformed, unknown}, text)
	require.Len(t, v.Rejected, 2)
	assert.Contains(t, v.Rejected[0].Reason, "missing unit, status")
	assert.Contains(t, v.Rejected[1].Reason, "not in catalog")
	assert.Empty(t, v.Records)
	assert.Equal(t, StatusOK, v.Status)
	assert.Equal(t, "no valid tests", v.Reason)

	good := f.record(t, "hemoglobin", 10.2)
	v = f.guardrail.Validate([]labresult.Record{malformed, good}, text)
	assert.Equal(t, StatusOK, v.Status)
	require.Len(t, v.Records, 1)
	require.Len(t, v.Rejected, 1)
}

func TestValidatePenalties(t *testing.T) {
	f := newFixture(t)
	text := "Hemoglobin 10.2\nGlucose 5000\nSodium 400\nPotassium 40"

	wrongUnit := f.record(t, "hemoglobin", 10.2)
	wrongUnit.Unit = "mg/dL"

	wrongStatus := f.record(t, "hemoglobin", 10.2)
	wrongStatus.Status = catalog.StatusHigh

	everything := f.record(t, "glucose", 5000)
	everything.Unit = "g/dL"
	everything.Status = catalog.StatusLow

	tests := []struct {
		name       string
		records    []labresult.Record
		confidence float64
		status     Status
		kept       int
	}{
		{"unit variant accepted", []labresult.Record{func() labresult.Record {
			r := f.record(t, "hemoglobin", 10.2)
			r.Unit = "gm/dl"
			return r
		}()}, 1.0, StatusOK, 1},
		{"unit mismatch", []labresult.Record{wrongUnit}, 0.8, StatusOKWithWarnings, 1},
		{"status mismatch", []labresult.Record{wrongStatus}, 0.9, StatusOKWithWarnings, 1},
		{"all three warnings", []labresult.Record{everything}, 0.6 * 0.8 * 0.9, StatusLowConfidence, 1},
		{"two implausible values", []labresult.Record{
			f.record(t, "glucose", 5000), f.record(t, "sodium", 400),
		}, 0.36, StatusLowConfidence, 2},
		{"three implausible values", []labresult.Record{
			f.record(t, "glucose", 5000), f.record(t, "sodium", 400), f.record(t, "potassium", 40),
		}, 0.6 * 0.6 * 0.6, StatusUnprocessed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := f.guardrail.Validate(tt.records, text)
			assert.InDelta(t, tt.confidence, v.Confidence, 1e-9)
			assert.Equal(t, tt.status, v.Status)
			assert.Len(t, v.Records, tt.kept)
		})
	}
}

func TestValidateIdempotent(t *testing.T) {
	f := newFixture(t)
	text := "Heoglobin 10.2 g/dL (Low)\nGlucose 5000 mg/dL\nTotal Cholestrol 180 mg/dl (High)"
	candidates := []labresult.RawCandidate{
		{Name: "Heoglobin", Value: 10.2, Unit: "g/dL", StatusToken: "(Low)"},
		{Name: "Glucose", Value: 5000, Unit: "mg/dL"},
		{Name: "Total Cholestrol", Value: 180, Unit: "mg/dl", StatusToken: "(High)"},
	}

	first := f.guardrail.Validate(f.normalize(t, candidates...), text)
	second := f.guardrail.Validate(f.normalize(t, candidates...), text)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("verdicts differ (-first +second):\n%s", diff)
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	f := newFixture(t)

	records := []labresult.Record{f.record(t, "glucose", 5000)}
	v := f.guardrail.Validate(records, "Glucose 5000")

	require.Len(t, v.Records, 1)
	assert.NotEmpty(t, v.Records[0].Warnings)
	assert.Empty(t, records[0].Warnings)

	again := f.guardrail.Validate(v.Records, "Glucose 5000")
	assert.Equal(t, v.Records[0].Warnings, again.Records[0].Warnings, "warnings are rebuilt, not accumulated")
}

func TestVerdictChecks(t *testing.T) {
	f := newFixture(t)

	v := f.guardrail.Validate([]labresult.Record{f.record(t, "glucose", 5000)}, "Glucose 5000")

	var failed []string
	for _, c := range v.Checks {
		if !c.Passed {
			failed = append(failed, c.Name+":"+c.Impact)
		}
	}
	assert.Equal(t, []string{CheckPhysical + ":minor"}, failed)
	assert.True(t, strings.HasPrefix(v.String(), "ok_with_warnings"))
}

func TestValidateSiblingAnalytesNotTraced(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		key    string
		value  float64
		text   string
		status Status
	}{
		{"hdl against ldl", "hdl", 130, "LDL Cholesterol 130 mg/dL", StatusUnprocessed},
		{"b12 against vitamin d", "vitamin_b12", 25, "Vitamin D 25 ng/mL", StatusUnprocessed},
		{"ldl against ldl", "ldl", 130, "LDL Cholesterol 130 mg/dL", StatusOK},
		{"vitamin d with typo", "vitamin_d", 25, "Vitamn D 25 ng/mL", StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := f.guardrail.Validate([]labresult.Record{f.record(t, tt.key, tt.value)}, tt.text)
			if tt.status == StatusUnprocessed {
				assert.Equal(t, StatusUnprocessed, v.Status)
				assert.Empty(t, v.Records)
				return
			}
			assert.Contains(t, []Status{StatusOK, StatusOKWithWarnings}, v.Status)
			assert.Len(t, v.Records, 1)
		})
	}
}

func TestMarkersAgree(t *testing.T) {
	tests := []struct {
		window, term []string
		want         bool
	}{
		{[]string{"ldl", "cholesterol"}, []string{"hdl", "cholesterol"}, false},
		{[]string{"vitamin", "d"}, []string{"vitamin", "b12"}, false},
		{[]string{"vitamn", "d"}, []string{"vitamin", "d"}, true},
		{[]string{"heoglobin"}, []string{"hemoglobin"}, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, markersAgree(tt.window, tt.term), "%v vs %v", tt.window, tt.term)
	}
}
