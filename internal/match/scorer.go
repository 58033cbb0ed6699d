package match

import (
	"math"
)

// Scorer fuses field similarities into one confidence and buckets scores
// into tiers.
type Scorer struct {
	weights    FieldWeights
	tiers      Tiers
	exactFloor float64
}

// NewScorer creates a scorer with default weights and tiers.
func NewScorer() *Scorer {
	return NewScorerWithConfig(DefaultFieldWeights(), DefaultTiers(), DefaultThresholds().Exact)
}

// NewScorerWithConfig creates a scorer with custom weights and tier cut-offs.
func NewScorerWithConfig(weights FieldWeights, tiers Tiers, exactFloor float64) *Scorer {
	return &Scorer{
		weights:    weights,
		tiers:      tiers,
		exactFloor: exactFloor,
	}
}

// Tier buckets a similarity score.
func (s *Scorer) Tier(score float64) Tier {
	switch {
	case score >= s.exactFloor:
		return TierExact
	case score >= s.tiers.High:
		return TierHigh
	case score >= s.tiers.Medium:
		return TierMedium
	default:
		return TierLow
	}
}

// Overall computes the weighted average of the field similarities. A status
// that was never supplied is left out and the remaining weights are
// renormalised; a supplied status that did not resolve counts as zero.
func (s *Scorer) Overall(name, unit Result, status *Result, statusSupplied bool) float64 {
	total := s.weights.Name + s.weights.Unit
	score := s.weights.Name*name.Similarity + s.weights.Unit*unit.Similarity

	if statusSupplied {
		total += s.weights.Status
		if status != nil {
			score += s.weights.Status * status.Similarity
		}
	}

	if total <= 0 {
		return 0
	}

	return math.Max(0.0, math.Min(1.0, score/total))
}

// Explain breaks the overall confidence of m into per-field contributions.
func (s *Scorer) Explain(m TestMatch) map[string]float64 {
	total := s.weights.Name + s.weights.Unit
	if m.StatusSupplied {
		total += s.weights.Status
	}

	explanation := map[string]float64{
		"overall": m.Overall,
	}
	if total <= 0 {
		return explanation
	}

	explanation["name_contribution"] = s.weights.Name * m.Name.Similarity / total
	explanation["unit_contribution"] = s.weights.Unit * m.Unit.Similarity / total
	if m.StatusSupplied {
		statusSim := 0.0
		if m.Status != nil {
			statusSim = m.Status.Similarity
		}
		explanation["status_contribution"] = s.weights.Status * statusSim / total
	}

	return explanation
}
