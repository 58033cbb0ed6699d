// Package labresult turns raw extracted test mentions into canonical
// records with a status computed from the catalog reference range.
package labresult

import (
	"fmt"

	"github.com/ocr-screening/internal/catalog"
	"github.com/ocr-screening/internal/match"
)

// RawCandidate is one unvalidated test mention as extracted from text.
type RawCandidate struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit,omitempty"`
	StatusToken string  `json:"status,omitempty"`
	Line        int     `json:"line,omitempty"` // 1-based source line, 0 when unknown
}

// Record is a canonical test result.
type Record struct {
	Key        string         `json:"key"`
	Name       string         `json:"name"`
	Value      float64        `json:"value"`
	Unit       string         `json:"unit"`
	Status     catalog.Status `json:"status"`
	Reference  catalog.Range  `json:"reference_range"`
	Confidence float64        `json:"confidence"`
	StatusHint string         `json:"status_hint,omitempty"`
	Critical   bool           `json:"critical"`

	// Warnings are written by the guardrail only.
	Warnings []string `json:"warnings,omitempty"`

	Match *match.TestMatch `json:"match,omitempty"`
}

func (r Record) String() string {
	return fmt.Sprintf("%s %g %s (%s)", r.Name, r.Value, r.Unit, r.Status)
}

// Drop is a candidate that did not become a record.
type Drop struct {
	Candidate RawCandidate `json:"candidate"`
	Reason    string       `json:"reason"`
}

// Batch is the result of normalising a list of candidates.
type Batch struct {
	Records           []Record `json:"records"`
	Dropped           []Drop   `json:"dropped,omitempty"`
	AverageConfidence float64  `json:"average_confidence"`
}
