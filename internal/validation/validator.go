// Package validation re-verifies normalised records against the source text
// and the catalog before anything is returned to a caller.
package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ocr-screening/internal/catalog"
	"github.com/ocr-screening/internal/labresult"
	"github.com/ocr-screening/internal/normalize"
	"github.com/ocr-screening/internal/similarity"
)

// Guardrail validates record batches. A record that cannot be traced back to
// the source text invalidates the whole batch.
type Guardrail struct {
	index  *catalog.Index
	cfg    Config
	logger zerolog.Logger
}

// Option configures a Guardrail.
type Option func(*Guardrail)

// WithLogger sets the logger used for verdict tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Guardrail) {
		g.logger = logger
	}
}

// NewGuardrail creates a guardrail backed by index.
func NewGuardrail(index *catalog.Index, cfg Config, opts ...Option) *Guardrail {
	g := &Guardrail{
		index:  index,
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Validate checks every record in order and returns the batch verdict. The
// input slice is not modified.
func (g *Guardrail) Validate(records []labresult.Record, originalText string) Verdict {
	if len(records) == 0 {
		return Verdict{
			Status:     StatusOK,
			Records:    []labresult.Record{},
			Confidence: 1.0,
			Reason:     "no tests found",
		}
	}

	source := normalize.Tokens(originalText)
	v := Verdict{
		Records:    make([]labresult.Record, 0, len(records)),
		Confidence: 1.0,
	}

	for _, in := range records {
		r := in
		r.Warnings = nil

		if reason := structuralProblem(r); reason != "" {
			v.reject(r, CheckStructure, reason)
			continue
		}
		v.pass(r, CheckStructure)

		entry, known := g.index.Catalog().Lookup(r.Key)

		if !g.traceable(r, entry, known, source) {
			reason := fmt.Sprintf("test %q not found in source text", r.Name)
			g.logger.Warn().Str("test", r.Key).Msg("untraceable record, batch rejected")
			v.reject(r, CheckTraceability, reason)
			return Verdict{
				Status:     StatusUnprocessed,
				Records:    []labresult.Record{},
				Rejected:   v.Rejected,
				Confidence: 0,
				Reason:     reason,
				Checks:     v.Checks,
			}
		}
		v.pass(r, CheckTraceability)

		if !known {
			v.reject(r, CheckCatalog, fmt.Sprintf("test key %q not in catalog", r.Key))
			continue
		}
		v.pass(r, CheckCatalog)

		if !entry.PhysicallyPlausible(r.Value) {
			v.warn(&r, CheckPhysical, g.cfg.PhysicalPenalty,
				fmt.Sprintf("%s: value %g %s outside physical bounds %s", r.Name, r.Value, r.Unit, entry.Physical))
		} else {
			v.pass(r, CheckPhysical)
		}

		if !g.index.UnitAccepted(r.Key, r.Unit) {
			v.warn(&r, CheckUnit, g.cfg.UnitPenalty,
				fmt.Sprintf("%s: unit %q does not match expected %q", r.Name, r.Unit, entry.Unit))
		} else {
			v.pass(r, CheckUnit)
		}

		if expected := entry.Reference.Classify(r.Value); expected != r.Status {
			v.warn(&r, CheckStatus, g.cfg.StatusPenalty,
				fmt.Sprintf("%s: status %s disagrees with reference range %s (expected %s)", r.Name, r.Status, entry.Reference, expected))
		} else {
			v.pass(r, CheckStatus)
		}

		v.Records = append(v.Records, r)
	}

	g.aggregate(&v)

	g.logger.Debug().
		Str("status", string(v.Status)).
		Float64("confidence", v.Confidence).
		Int("records", len(v.Records)).
		Int("rejected", len(v.Rejected)).
		Msg("batch validated")

	return v
}

func (g *Guardrail) aggregate(v *Verdict) {
	switch {
	case v.Confidence < g.cfg.UnprocessedBelow:
		v.Status = StatusUnprocessed
		v.Reason = fmt.Sprintf("aggregate confidence %.2f below %.2f", v.Confidence, g.cfg.UnprocessedBelow)
		v.Records = []labresult.Record{}
	case v.Confidence < g.cfg.LowConfidenceBelow:
		v.Status = StatusLowConfidence
		v.Reason = fmt.Sprintf("aggregate confidence %.2f below %.2f", v.Confidence, g.cfg.LowConfidenceBelow)
	case len(v.Warnings) > 0:
		v.Status = StatusOKWithWarnings
		v.Reason = fmt.Sprintf("%d warning(s)", len(v.Warnings))
	default:
		v.Status = StatusOK
		v.Reason = "all tests validated"
	}

	if len(v.Records) == 0 && v.Status != StatusUnprocessed {
		v.Reason = "no valid tests"
	}
}

// traceable reports whether the record's display name, key or any catalog
// alias occurs in the source tokens, either verbatim or as a close fuzzy
// match against a window of the same number of words. A fuzzy window must
// still carry the term's marker words verbatim.
func (g *Guardrail) traceable(r labresult.Record, entry catalog.Entry, known bool, source []string) bool {
	terms := []string{r.Name, r.Key}
	if known {
		terms = append(terms, entry.Names()...)
	}

	for _, term := range terms {
		words := normalize.Tokens(term)
		if len(words) == 0 {
			continue
		}
		if normalize.ContainsSequence(source, words) {
			return true
		}

		joined := strings.Join(words, " ")
		if utf8.RuneCountInString(joined) < g.cfg.MinFuzzyTraceLength {
			continue
		}
		for _, window := range normalize.Windows(source, len(words)) {
			if !markersAgree(window, words) {
				continue
			}
			if similarity.Combined(strings.Join(window, " "), joined, g.cfg.Similarity) > g.cfg.TraceSimilarity {
				return true
			}
		}
	}

	return false
}

// markersAgree reports whether every marker word of term sits unchanged at
// the same position in window. Markers are abbreviations of up to three
// letters and words carrying a digit: "hdl" against "ldl", "b12" against "d".
func markersAgree(window, term []string) bool {
	for i, w := range term {
		if isMarker(w) && window[i] != w {
			return false
		}
	}
	return true
}

func isMarker(word string) bool {
	return utf8.RuneCountInString(word) <= 3 || strings.ContainsAny(word, "0123456789")
}

func structuralProblem(r labresult.Record) string {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		missing = append(missing, "value")
	}
	if strings.TrimSpace(r.Unit) == "" {
		missing = append(missing, "unit")
	}
	if !r.Status.Valid() {
		missing = append(missing, "status")
	}
	if len(missing) == 0 {
		return ""
	}
	return "malformed record: missing " + strings.Join(missing, ", ")
}

func (v *Verdict) pass(r labresult.Record, check string) {
	v.Checks = append(v.Checks, QualityCheck{Name: check, Test: r.Key, Passed: true, Impact: checkImpact[check]})
}

func (v *Verdict) reject(r labresult.Record, check, reason string) {
	v.Rejected = append(v.Rejected, Rejection{Record: r, Reason: reason})
	v.Checks = append(v.Checks, QualityCheck{Name: check, Test: r.Key, Passed: false, Details: reason, Impact: checkImpact[check]})
}

func (v *Verdict) warn(r *labresult.Record, check string, penalty float64, reason string) {
	r.Warnings = append(r.Warnings, reason)
	v.Warnings = append(v.Warnings, reason)
	v.Confidence *= penalty
	v.Checks = append(v.Checks, QualityCheck{Name: check, Test: r.Key, Passed: false, Details: reason, Impact: checkImpact[check]})
}
