// Package match resolves raw test names, units and status words against a
// catalog index using an ordered cascade of strategies.
package match

import (
	"github.com/ocr-screening/internal/similarity"
)

// Tier is a coarse bucket summarising match quality.
type Tier string

const (
	TierExact   Tier = "exact"
	TierHigh    Tier = "high"
	TierMedium  Tier = "medium"
	TierLow     Tier = "low"
	TierAssumed Tier = "assumed"
	TierDefault Tier = "default"
)

// Method names the strategy that produced a result.
type Method string

const (
	MethodExact      Method = "exact"
	MethodFuzzyIndex Method = "fuzzy_index"
	MethodPhonetic   Method = "phonetic"
	MethodBlend      Method = "ngram_edit_blend"
	MethodAssumed    Method = "assumed"
	MethodDefault    Method = "default"
)

// Result is the outcome of one field lookup.
type Result struct {
	Key        string  `json:"key"`  // catalog key, canonical unit or status
	Term       string  `json:"term"` // vocabulary spelling that matched
	Similarity float64 `json:"similarity"`
	Tier       Tier    `json:"tier"`
	Method     Method  `json:"method"`
}

// TestMatch is the composed resolution of one candidate.
type TestMatch struct {
	Key     string  `json:"key"`
	Value   float64 `json:"value"`
	Name    Result  `json:"name"`
	Unit    Result  `json:"unit"`
	Status  *Result `json:"status,omitempty"`
	Overall float64 `json:"overall"`

	// StatusSupplied is true when a status token was given, resolved or not.
	StatusSupplied bool `json:"status_supplied"`
}

// Thresholds are the per-field acceptance cut-offs.
type Thresholds struct {
	Name     float64 `mapstructure:"name" yaml:"name"`
	Unit     float64 `mapstructure:"unit" yaml:"unit"`
	Status   float64 `mapstructure:"status" yaml:"status"`
	Exact    float64 `mapstructure:"exact" yaml:"exact"`       // lower bound of the exact tier
	Phonetic float64 `mapstructure:"phonetic" yaml:"phonetic"` // acceptance for the phonetic blend
}

// DefaultThresholds returns name 0.5, unit 0.6, status 0.5, exact 0.95 and
// phonetic 0.8.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Name:     0.5,
		Unit:     0.6,
		Status:   0.5,
		Exact:    0.95,
		Phonetic: 0.8,
	}
}

// FieldWeights blend the three field similarities into one confidence.
type FieldWeights struct {
	Name   float64 `mapstructure:"name" yaml:"name"`
	Unit   float64 `mapstructure:"unit" yaml:"unit"`
	Status float64 `mapstructure:"status" yaml:"status"`
}

// DefaultFieldWeights returns the 0.6/0.25/0.15 split.
func DefaultFieldWeights() FieldWeights {
	return FieldWeights{
		Name:   0.6,
		Unit:   0.25,
		Status: 0.15,
	}
}

// PhoneticBlend mixes the phonetic score with the combined string score.
type PhoneticBlend struct {
	Phonetic float64 `mapstructure:"phonetic" yaml:"phonetic"`
	String   float64 `mapstructure:"string" yaml:"string"`
}

// DefaultPhoneticBlend returns 0.7 phonetic, 0.3 string.
func DefaultPhoneticBlend() PhoneticBlend {
	return PhoneticBlend{Phonetic: 0.7, String: 0.3}
}

// Tiers are the similarity cut-offs below the exact tier.
type Tiers struct {
	High   float64 `mapstructure:"high" yaml:"high"`
	Medium float64 `mapstructure:"medium" yaml:"medium"`
}

// DefaultTiers returns high 0.8, medium 0.6.
func DefaultTiers() Tiers {
	return Tiers{High: 0.8, Medium: 0.6}
}

// DefaultStrategies is the full cascade in evaluation order.
func DefaultStrategies() []Method {
	return []Method{MethodExact, MethodFuzzyIndex, MethodPhonetic, MethodBlend}
}

// DefaultMaxInputRunes is well above the longest catalog name.
const DefaultMaxInputRunes = 64

// Config holds every tunable of the matcher.
type Config struct {
	Thresholds      Thresholds         `mapstructure:"thresholds" yaml:"thresholds"`
	Weights         FieldWeights       `mapstructure:"weights" yaml:"weights"`
	Similarity      similarity.Weights `mapstructure:"similarity" yaml:"similarity"`
	Blend           PhoneticBlend      `mapstructure:"blend" yaml:"blend"`
	Tiers           Tiers              `mapstructure:"tiers" yaml:"tiers"`
	MaxEditDistance int                `mapstructure:"max_edit_distance" yaml:"max_edit_distance"`

	// MaxInputRunes bounds the canonical length of any field sent through
	// the cascade; longer input never matches.
	MaxInputRunes int `mapstructure:"max_input_runes" yaml:"max_input_runes"`

	// Strategies is the cascade order. Leaving a method out disables it.
	Strategies []Method `mapstructure:"strategies" yaml:"strategies"`
}

// DefaultConfig returns the recommended matcher configuration.
func DefaultConfig() Config {
	return Config{
		Thresholds:      DefaultThresholds(),
		Weights:         DefaultFieldWeights(),
		Similarity:      similarity.DefaultWeights(),
		Blend:           DefaultPhoneticBlend(),
		Tiers:           DefaultTiers(),
		MaxEditDistance: 2,
		MaxInputRunes:   DefaultMaxInputRunes,
		Strategies:      DefaultStrategies(),
	}
}
