// Package symspell implements the Symmetric Delete fuzzy lookup used to find
// catalog terms within a small edit distance of a noisy OCR token.
//
// SymSpell pre-computes a "delete dictionary" for every indexed term, so a
// lookup only has to generate the deletes of the query and verify the
// handful of terms that share one.
package symspell

// Config holds SymSpell configuration parameters.
type Config struct {
	// MaxEditDistance is the maximum Damerau-Levenshtein distance for a suggestion.
	// Default: 2 (catches most OCR slips without pairing unrelated short terms)
	MaxEditDistance int `mapstructure:"max_edit_distance" yaml:"max_edit_distance"`

	// MinTermLength is the minimum term length to index.
	// Default: 3 (abbreviations like "HB" are left to exact lookup)
	MinTermLength int `mapstructure:"min_term_length" yaml:"min_term_length"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxEditDistance: 2,
		MinTermLength:   3,
	}
}

// Suggestion represents a candidate term for a lookup.
type Suggestion struct {
	// Term is the indexed term.
	Term string

	// Owner identifies what the term belongs to (a catalog key, a canonical unit, a status).
	Owner string

	// Distance is the edit distance from the input to this term.
	Distance int

	// NormalizedDistance is Distance divided by the longer of the two lengths.
	NormalizedDistance float64
}

// Similarity converts the normalized distance into a [0,1] score.
func (s Suggestion) Similarity() float64 {
	return 1.0 - s.NormalizedDistance
}

// DictionaryStats holds statistics about the built dictionary.
type DictionaryStats struct {
	// TermCount is the number of unique terms in the dictionary.
	TermCount int

	// DeleteCount is the number of entries in the delete dictionary.
	DeleteCount int
}
