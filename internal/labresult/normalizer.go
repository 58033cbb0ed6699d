package labresult

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ocr-screening/internal/catalog"
	"github.com/ocr-screening/internal/match"
)

// Adjustments tune the record confidence relative to the matcher's overall
// score.
type Adjustments struct {
	ExactName     float64 `mapstructure:"exact_name" yaml:"exact_name"`
	HintAgrees    float64 `mapstructure:"hint_agrees" yaml:"hint_agrees"`
	HintDisagrees float64 `mapstructure:"hint_disagrees" yaml:"hint_disagrees"`
	PlausibleVal  float64 `mapstructure:"plausible_value" yaml:"plausible_value"`
}

// DefaultAdjustments returns +0.05 exact name, +0.05 agreeing hint, -0.10
// disagreeing hint and +0.02 for a value inside physical bounds.
func DefaultAdjustments() Adjustments {
	return Adjustments{
		ExactName:     0.05,
		HintAgrees:    0.05,
		HintDisagrees: -0.10,
		PlausibleVal:  0.02,
	}
}

// Normalizer resolves candidates with a matcher and builds records from the
// catalog. It is safe for concurrent use.
type Normalizer struct {
	matcher     *match.Matcher
	catalog     *catalog.Catalog
	adjustments Adjustments
	logger      zerolog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for dropped candidates.
func WithLogger(logger zerolog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// WithAdjustments overrides the confidence adjustments.
func WithAdjustments(a Adjustments) Option {
	return func(n *Normalizer) {
		n.adjustments = a
	}
}

// NewNormalizer creates a normalizer. The catalog is consulted for every
// resolved key, so it must be the one the matcher's index was built from.
func NewNormalizer(m *match.Matcher, c *catalog.Catalog, opts ...Option) *Normalizer {
	n := &Normalizer{
		matcher:     m,
		catalog:     c,
		adjustments: DefaultAdjustments(),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts one candidate into a record. It returns false when the
// candidate is dropped.
func (n *Normalizer) Normalize(c RawCandidate) (Record, bool) {
	r, reason := n.normalize(c)
	if reason != "" {
		n.logDrop(c, reason)
		return Record{}, false
	}
	return r, true
}

// NormalizeBatch converts candidates in order. Repeated mentions of the same
// test collapse into the most confident record, kept at the position of the
// first mention.
func (n *Normalizer) NormalizeBatch(candidates []RawCandidate) Batch {
	batch := Batch{Records: []Record{}}
	position := make(map[string]int)
	sources := make([]RawCandidate, 0, len(candidates))

	for _, c := range candidates {
		r, reason := n.normalize(c)
		if reason != "" {
			n.logDrop(c, reason)
			batch.Dropped = append(batch.Dropped, Drop{Candidate: c, Reason: reason})
			continue
		}

		i, seen := position[r.Key]
		if !seen {
			position[r.Key] = len(batch.Records)
			batch.Records = append(batch.Records, r)
			sources = append(sources, c)
			continue
		}

		loser := c
		if r.Confidence > batch.Records[i].Confidence {
			loser = sources[i]
			batch.Records[i] = r
			sources[i] = c
		}
		reason = fmt.Sprintf("duplicate mention of %s", r.Name)
		n.logDrop(loser, reason)
		batch.Dropped = append(batch.Dropped, Drop{Candidate: loser, Reason: reason})
	}

	if len(batch.Records) > 0 {
		total := 0.0
		for _, r := range batch.Records {
			total += r.Confidence
		}
		batch.AverageConfidence = total / float64(len(batch.Records))
	}

	return batch
}

func (n *Normalizer) normalize(c RawCandidate) (Record, string) {
	if strings.TrimSpace(c.Name) == "" {
		return Record{}, "empty test name"
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return Record{}, "value is not a finite number"
	}

	if n.matcher.NameTooLong(c.Name) {
		return Record{}, fmt.Sprintf("test name longer than %d characters", n.matcher.Config().MaxInputRunes)
	}

	tm, ok := n.matcher.MatchTest(c.Name, c.Value, c.Unit, c.StatusToken)
	if !ok {
		return Record{}, fmt.Sprintf("test name %q not recognised", c.Name)
	}
	if tm.Name.Tier == match.TierLow {
		return Record{}, fmt.Sprintf("test name %q matched %s with low confidence (%.2f)", c.Name, tm.Key, tm.Name.Similarity)
	}

	entry, ok := n.catalog.Lookup(tm.Key)
	if !ok {
		return Record{}, fmt.Sprintf("test %s missing from catalog", tm.Key)
	}

	status := entry.Reference.Classify(c.Value)

	return Record{
		Key:        entry.Key,
		Name:       entry.DisplayName,
		Value:      c.Value,
		Unit:       tm.Unit.Key,
		Status:     status,
		Reference:  entry.Reference,
		Confidence: n.confidence(tm, entry, status, c.Value),
		StatusHint: strings.TrimSpace(c.StatusToken),
		Critical:   entry.IsCritical(c.Value),
		Match:      &tm,
	}, ""
}

// confidence adjusts the matcher's overall score; the status hint only
// moves confidence and never changes the computed status.
func (n *Normalizer) confidence(tm match.TestMatch, entry catalog.Entry, status catalog.Status, value float64) float64 {
	score := tm.Overall

	if tm.Name.Tier == match.TierExact {
		score += n.adjustments.ExactName
	}
	if tm.Status != nil {
		if catalog.Status(tm.Status.Key) == status {
			score += n.adjustments.HintAgrees
		} else {
			score += n.adjustments.HintDisagrees
		}
	}
	if entry.Physical != nil && entry.Physical.Contains(value) {
		score += n.adjustments.PlausibleVal
	}

	return math.Max(0.0, math.Min(1.0, score))
}

func (n *Normalizer) logDrop(c RawCandidate, reason string) {
	n.logger.Debug().
		Str("name", c.Name).
		Float64("value", c.Value).
		Int("line", c.Line).
		Str("reason", reason).
		Msg("candidate dropped")
}
