package symspell

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// SymSpell implements the Symmetric Delete lookup.
// It pre-computes all possible deletions within max edit distance, so the
// index is read-only and safe for concurrent lookups once built.
type SymSpell struct {
	// dictionary maps terms to their owners
	dictionary map[string]string

	// deletes maps delete variants to their original terms
	deletes map[string][]string

	config *Config
}

// New creates a new SymSpell instance with the given configuration.
func New(config *Config) *SymSpell {
	if config == nil {
		config = DefaultConfig()
	}
	return &SymSpell{
		dictionary: make(map[string]string),
		deletes:    make(map[string][]string),
		config:     config,
	}
}

// AddTerm indexes a term for owner. Terms are expected to be canonical
// already; the first owner registered for a term wins.
func (s *SymSpell) AddTerm(term, owner string) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < s.config.MinTermLength {
		return
	}
	if _, exists := s.dictionary[term]; exists {
		return
	}

	s.dictionary[term] = owner

	for _, del := range deletesOf(term, s.config.MaxEditDistance) {
		s.deletes[del] = append(s.deletes[del], term)
	}
}

// Lookup finds terms within maxDistance of input, sorted by normalized
// distance (ascending) then term, so equal inputs always rank equally.
func (s *SymSpell) Lookup(input string, maxDistance int) []Suggestion {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return nil
	}

	if maxDistance > s.config.MaxEditDistance {
		maxDistance = s.config.MaxEditDistance
	}

	if owner, ok := s.dictionary[input]; ok {
		return []Suggestion{{Term: input, Owner: owner}}
	}

	seen := make(map[string]bool)
	var candidates []Suggestion

	consider := func(term string) {
		if seen[term] {
			return
		}
		seen[term] = true
		dist := s.editDistance(input, term, maxDistance)
		if dist < 0 || dist > maxDistance {
			return
		}
		candidates = append(candidates, Suggestion{
			Term:               term,
			Owner:              s.dictionary[term],
			Distance:           dist,
			NormalizedDistance: normalizedDistance(input, term, dist),
		})
	}

	// The input itself may be a delete of a dictionary term.
	for _, del := range append(deletesOf(input, maxDistance), input) {
		for _, term := range s.deletes[del] {
			consider(term)
		}
		// The delete may itself be a term (input has extra characters).
		if _, ok := s.dictionary[del]; ok {
			consider(del)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].NormalizedDistance != candidates[j].NormalizedDistance {
			return candidates[i].NormalizedDistance < candidates[j].NormalizedDistance
		}
		return candidates[i].Term < candidates[j].Term
	})

	return candidates
}

// deletesOf returns every string obtained from term by removing up to
// distance runes, sorted. Single-rune strings are not reduced further.
func deletesOf(term string, distance int) []string {
	if distance <= 0 || term == "" {
		return nil
	}

	seen := make(map[string]struct{})
	frontier := []string{term}
	for level := 0; level < distance && len(frontier) > 0; level++ {
		var next []string
		for _, t := range frontier {
			r := []rune(t)
			if len(r) <= 1 {
				continue
			}
			for i := range r {
				del := string(r[:i]) + string(r[i+1:])
				if _, ok := seen[del]; ok {
					continue
				}
				seen[del] = struct{}{}
				next = append(next, del)
			}
		}
		frontier = next
	}

	out := make([]string, 0, len(seen))
	for del := range seen {
		out = append(out, del)
	}
	sort.Strings(out)
	return out
}

// editDistance calculates the Damerau-Levenshtein (optimal string alignment)
// distance between two strings.
// Returns -1 if distance exceeds maxDistance (early exit optimisation).
func (s *SymSpell) editDistance(x, y string, maxDistance int) int {
	a, b := []rune(x), []rune(y)
	lenA, lenB := len(a), len(b)

	if abs(lenA-lenB) > maxDistance {
		return -1
	}

	if lenA == 0 {
		return lenB
	}
	if lenB == 0 {
		return lenA
	}

	// Ensure a is the shorter string for optimisation
	if lenA > lenB {
		a, b = b, a
		lenA, lenB = lenB, lenA
	}

	prevPrev := make([]int, lenA+1)
	prev := make([]int, lenA+1)
	curr := make([]int, lenA+1)

	for i := 0; i <= lenA; i++ {
		prev[i] = i
	}

	for j := 1; j <= lenB; j++ {
		curr[0] = j
		minDist := j

		for i := 1; i <= lenA; i++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			curr[i] = min(
				prev[i]+1,      // deletion
				curr[i-1]+1,    // insertion
				prev[i-1]+cost, // substitution
			)

			// Damerau transposition
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				curr[i] = min(curr[i], prevPrev[i-2]+cost)
			}

			if curr[i] < minDist {
				minDist = curr[i]
			}
		}

		if minDist > maxDistance {
			return -1
		}

		prevPrev, prev, curr = prev, curr, prevPrev
	}

	if prev[lenA] > maxDistance {
		return -1
	}
	return prev[lenA]
}

// Stats returns statistics about the dictionary.
func (s *SymSpell) Stats() DictionaryStats {
	return DictionaryStats{
		TermCount:   len(s.dictionary),
		DeleteCount: len(s.deletes),
	}
}

func normalizedDistance(a, b string, dist int) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 0
	}
	return float64(dist) / float64(maxLen)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
