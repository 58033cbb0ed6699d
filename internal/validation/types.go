package validation

import (
	"fmt"

	"github.com/ocr-screening/internal/labresult"
	"github.com/ocr-screening/internal/similarity"
)

// Status is the batch-level outcome of validation.
type Status string

const (
	StatusOK             Status = "ok"
	StatusOKWithWarnings Status = "ok_with_warnings"
	StatusLowConfidence  Status = "low_confidence"
	StatusUnprocessed    Status = "unprocessed"
)

// Check names, in evaluation order.
const (
	CheckStructure    = "structure"
	CheckTraceability = "traceability"
	CheckCatalog      = "catalog"
	CheckPhysical     = "physical_plausibility"
	CheckUnit         = "unit_plausibility"
	CheckStatus       = "status_consistency"
)

// checkImpact is how much a failure of each check matters: critical fails
// the batch, major drops the record, minor costs confidence.
var checkImpact = map[string]string{
	CheckStructure:    "major",
	CheckTraceability: "critical",
	CheckCatalog:      "major",
	CheckPhysical:     "minor",
	CheckUnit:         "minor",
	CheckStatus:       "minor",
}

// Rejection is a record that did not pass validation and why.
type Rejection struct {
	Record labresult.Record `json:"record"`
	Reason string           `json:"reason"`
}

// QualityCheck represents an individual validation check on one record
type QualityCheck struct {
	Name    string `json:"name"`
	Test    string `json:"test"`
	Passed  bool   `json:"passed"`
	Details string `json:"details,omitempty"`
	Impact  string `json:"impact"` // "critical", "major", "minor"
}

// Verdict is the result of validating one batch of records.
type Verdict struct {
	Status     Status             `json:"status"`
	Records    []labresult.Record `json:"records"`
	Rejected   []Rejection        `json:"rejected,omitempty"`
	Confidence float64            `json:"confidence"`
	Warnings   []string           `json:"warnings,omitempty"`
	Reason     string             `json:"reason"`
	Checks     []QualityCheck     `json:"checks,omitempty"`
}

func (v Verdict) String() string {
	return fmt.Sprintf("%s (%.2f, %d records, %d rejected): %s",
		v.Status, v.Confidence, len(v.Records), len(v.Rejected), v.Reason)
}

// Config holds the guardrail thresholds and penalties.
type Config struct {
	// TraceSimilarity is the combined similarity a source window must exceed
	// for a fuzzy trace.
	TraceSimilarity float64 `mapstructure:"trace_similarity" yaml:"trace_similarity"`

	// MinFuzzyTraceLength is the shortest term traced fuzzily; shorter
	// abbreviations must appear verbatim.
	MinFuzzyTraceLength int `mapstructure:"min_fuzzy_trace_length" yaml:"min_fuzzy_trace_length"`

	PhysicalPenalty float64 `mapstructure:"physical_penalty" yaml:"physical_penalty"`
	UnitPenalty     float64 `mapstructure:"unit_penalty" yaml:"unit_penalty"`
	StatusPenalty   float64 `mapstructure:"status_penalty" yaml:"status_penalty"`

	UnprocessedBelow   float64 `mapstructure:"unprocessed_below" yaml:"unprocessed_below"`
	LowConfidenceBelow float64 `mapstructure:"low_confidence_below" yaml:"low_confidence_below"`

	Similarity similarity.Weights `mapstructure:"similarity" yaml:"similarity"`
}

// DefaultConfig returns the recommended guardrail settings.
func DefaultConfig() Config {
	return Config{
		TraceSimilarity:     0.7,
		MinFuzzyTraceLength: 4,
		PhysicalPenalty:     0.6,
		UnitPenalty:         0.8,
		StatusPenalty:       0.9,
		UnprocessedBelow:    0.3,
		LowConfidenceBelow:  0.6,
		Similarity:          similarity.DefaultWeights(),
	}
}
