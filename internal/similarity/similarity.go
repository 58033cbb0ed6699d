// Package similarity provides the string scoring functions used to resolve
// noisy lab test mentions against catalog terms.
//
// Every function is pure, works on runes and returns a score in [0,1] where
// 1 means identical. Callers are expected to pass canonicalised input (see
// package normalize); only NGram folds case itself.
package similarity

import (
	"strings"
	"unicode/utf8"
)

// Weights controls how Combined blends the individual scores. Match
// thresholds are tuned against these values, so changing them shifts every
// threshold that relies on Combined.
type Weights struct {
	Edit      float64 `mapstructure:"edit" yaml:"edit"`
	Jaro      float64 `mapstructure:"jaro" yaml:"jaro"`
	Substring float64 `mapstructure:"substring" yaml:"substring"`
	NGram     float64 `mapstructure:"ngram" yaml:"ngram"`
}

// DefaultWeights returns the 0.3/0.3/0.2/0.2 blend.
func DefaultWeights() Weights {
	return Weights{
		Edit:      0.3,
		Jaro:      0.3,
		Substring: 0.2,
		NGram:     0.2,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Edit + w.Jaro + w.Substring + w.NGram
}

// Combined is the weighted sum of the four scores using bigrams for NGram.
func Combined(a, b string, w Weights) float64 {
	score := w.Edit*EditDistance(a, b) +
		w.Jaro*Jaro(a, b) +
		w.Substring*Substring(a, b) +
		w.NGram*NGram(a, b, 2)
	return clamp(score)
}

// Levenshtein computes the edit distance between two strings.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// EditDistance converts the Levenshtein distance into a similarity:
// 1 - distance/max(len(a), len(b)). Two empty strings are identical.
func EditDistance(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
}

// Jaro computes the Jaro similarity between two strings.
func Jaro(a, b string) float64 {
	if a == b {
		return 1.0
	}

	ra, rb := []rune(a), []rune(b)
	lenA, lenB := len(ra), len(rb)
	if lenA == 0 || lenB == 0 {
		return 0.0
	}

	window := max(lenA, lenB)/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, lenA)
	matchedB := make([]bool, lenB)

	matches := 0
	for i := 0; i < lenA; i++ {
		start := max(0, i-window)
		end := min(i+window+1, lenB)
		for j := start; j < end; j++ {
			if matchedB[j] || ra[i] != rb[j] {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < lenA; i++ {
		if !matchedA[i] {
			continue
		}
		for !matchedB[k] {
			k++
		}
		if ra[i] != rb[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(lenA) + m/float64(lenB) + (m-float64(transpositions)/2)/m) / 3.0
}

// Substring scores containment: a shorter string fully inside the longer one
// scores len(shorter)/len(longer), otherwise the longest common contiguous
// substring is measured against the longer string.
func Substring(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	shorter, longer := ra, rb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	if strings.Contains(string(longer), string(shorter)) {
		return float64(len(shorter)) / float64(len(longer))
	}

	return float64(longestCommonSubstring(ra, rb)) / float64(len(longer))
}

func longestCommonSubstring(a, b []rune) int {
	best := 0
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return best
}

// NGram returns the Jaccard overlap of the case-folded n-gram sets of a and b.
// A non-empty string shorter than n is its own single gram.
func NGram(a, b string, n int) float64 {
	if n <= 0 {
		n = 2
	}
	setA := grams(strings.ToLower(a), n)
	setB := grams(strings.ToLower(b), n)

	union := len(setA)
	intersection := 0
	for g := range setB {
		if setA[g] {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func grams(s string, n int) map[string]bool {
	set := make(map[string]bool)
	r := []rune(s)
	if len(r) == 0 {
		return set
	}
	if len(r) < n {
		set[s] = true
		return set
	}
	for i := 0; i+n <= len(r); i++ {
		set[string(r[i:i+n])] = true
	}
	return set
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
